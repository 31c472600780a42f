package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate into domain errors.
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
)

// violation reports the SQLSTATE and constraint of a server-side error.
// Both are empty for anything that did not come from Postgres.
func violation(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", ""
	}
	return pgErr.Code, pgErr.ConstraintName
}

func isUniqueViolation(err error) bool {
	code, _ := violation(err)
	return code == sqlStateUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	code, _ := violation(err)
	return code == sqlStateForeignKeyViolation
}

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE metacharacters so s matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
