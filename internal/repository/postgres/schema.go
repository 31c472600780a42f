package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
)

// EnsureSchema creates the tables if they do not exist and inserts the root
// folder on first start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	// Index names must be unique per schema, so they carry the table prefix.
	prefix := strings.TrimSuffix(tables.Nodes, "nodes")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			path TEXT PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			parent_path TEXT REFERENCES ` + tables.Nodes + `(path),
			is_folder BOOLEAN NOT NULL,
			owner_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			modified_at TIMESTAMPTZ,
			size BIGINT NOT NULL DEFAULT 0,
			remark TEXT NOT NULL DEFAULT '',
			content_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `nodes_parent ON ` + tables.Nodes + `(parent_path)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			role TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + prefix + `users_email ON ` + tables.Users + `(lower(email))`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Teams + ` (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			folder_path TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + prefix + `teams_name ON ` + tables.Teams + `(lower(name))`,

		`CREATE TABLE IF NOT EXISTS ` + tables.TeamMembers + ` (
			team_id TEXT NOT NULL REFERENCES ` + tables.Teams + `(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			granted_by TEXT NOT NULL,
			granted_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (team_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_` + prefix + `team_members_user ON ` + tables.TeamMembers + `(user_id)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Activity + ` (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			user_id TEXT NOT NULL,
			user_email TEXT NOT NULL,
			action TEXT NOT NULL,
			target_path TEXT NOT NULL,
			node_id TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	root := docsystem.NewRoot(uuid.NewString(), time.Now().UTC())
	insertRoot := fmt.Sprintf(`
		INSERT INTO %s (path, id, name, parent_path, is_folder, owner_id, created_at)
		VALUES ($1, $2, '', NULL, TRUE, $3, $4)
		ON CONFLICT (path) DO NOTHING
	`, tables.Nodes)
	if _, err := pool.Exec(ctx, insertRoot, root.Path, root.ID, root.Owner, root.CreatedAt); err != nil {
		return fmt.Errorf("insert root folder: %w", err)
	}
	return nil
}

// DropSchema removes every table. Used by tests and the seed CLI's reset.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	stmt := fmt.Sprintf(`DROP TABLE IF EXISTS %s, %s, %s, %s, %s CASCADE`,
		tables.TeamMembers, tables.Teams, tables.Activity, tables.Users, tables.Nodes)
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}
