package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds the prefixed table names. Prefixes are spliced into SQL
// text, so NewTableNames only accepts lower-case letters, digits and "_".
type TableNames struct {
	Nodes       string
	Users       string
	Teams       string
	TeamMembers string
	Activity    string
}

var tablePrefixPattern = regexp.MustCompile(`^[a-z0-9_]*$`)

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) (*TableNames, error) {
	if !tablePrefixPattern.MatchString(prefix) {
		return nil, fmt.Errorf("invalid table prefix %q: only a-z, 0-9 and _ are allowed", prefix)
	}
	return &TableNames{
		Nodes:       prefix + "nodes",
		Users:       prefix + "users",
		Teams:       prefix + "teams",
		TeamMembers: prefix + "team_members",
		Activity:    prefix + "activity_log",
	}, nil
}

// PoolOptions sizes the connection pool. Zero values keep the pgxpool
// defaults.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
	Logger   *slog.Logger
}

// CreateConnectionPool creates a pgx connection pool and pings the server.
//
// PgBouncer in transaction pooling mode (port 6543) cannot use prepared
// statements, so the pool switches to QueryExecModeCacheDescribe there unless
// the connection string already picked a mode.
func CreateConnectionPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		logger.Debug("using cache_describe exec mode for PgBouncer", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("postgres pool ready", "max_conns", config.MaxConns, "min_conns", config.MinConns)
	return pool, nil
}

// GetExecutor returns the transaction stored in ctx, or the pool when there
// is none, so repository methods join an enclosing ExecTx automatically.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}
