package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
	"github.com/YugenJarwal13/InternalDMS/internal/domain/repositories"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
)

const nodeColumns = `id, path, name, COALESCE(parent_path, ''), is_folder, owner_id, created_at, modified_at, size, remark, content_id`

// PostgresTreeStore implements docsystem.TreeStore on a single nodes table
// keyed by canonical path. parent_path references path, so the database
// itself rejects orphans.
type PostgresTreeStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	tx     repositories.TransactionManager
	logger *slog.Logger
}

// NewTreeStore creates a new tree store
func NewTreeStore(config *RepositoryConfig) *PostgresTreeStore {
	return &PostgresTreeStore{
		pool:   config.Pool,
		tables: config.Tables,
		tx:     NewTransactionManager(config.Pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, config.Logger),
		logger: config.Logger,
	}
}

var _ docsysRepo.TreeStore = (*PostgresTreeStore)(nil)

func scanNode(row pgx.Row) (*docsystem.Node, error) {
	var n docsystem.Node
	err := row.Scan(
		&n.ID,
		&n.Path,
		&n.Name,
		&n.ParentPath,
		&n.IsFolder,
		&n.Owner,
		&n.CreatedAt,
		&n.ModifiedAt,
		&n.Size,
		&n.Remark,
		&n.ContentID,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Get retrieves a node by path
func (r *PostgresTreeStore) Get(ctx context.Context, path string) (*docsystem.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE path = $1`, nodeColumns, r.tables.Nodes)

	n, err := scanNode(GetExecutor(ctx, r.pool).QueryRow(ctx, query, path))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewNodeNotFound(path)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return n, nil
}

// FindByID retrieves a node by its stable ID
func (r *PostgresTreeStore) FindByID(ctx context.Context, id string) (*docsystem.Node, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, nodeColumns, r.tables.Nodes)

	n, err := scanNode(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("node %s not found", id)}
		}
		return nil, fmt.Errorf("find node: %w", err)
	}
	return n, nil
}

// ListChildren returns the direct children of a folder in byte order of name
func (r *PostgresTreeStore) ListChildren(ctx context.Context, path string) ([]docsystem.Node, error) {
	parent, err := r.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !parent.IsFolder {
		return nil, &domain.NotAFolderError{Path: path}
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE parent_path = $1
		ORDER BY name COLLATE "C"
	`, nodeColumns, r.tables.Nodes)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, path)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	children := []docsystem.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}
	return children, nil
}

// WalkSubtree streams the subtree in one query. Ordering by the array of path
// segments under the "C" collation yields pre-order with siblings in byte
// order.
func (r *PostgresTreeStore) WalkSubtree(ctx context.Context, path string) iter.Seq2[*docsystem.Node, error] {
	return func(yield func(*docsystem.Node, error) bool) {
		descendants := escapeLike(path) + "/%"
		if path == "/" {
			descendants = "/%"
		}
		query := fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE path = $1 OR path LIKE $2 ESCAPE '\'
			ORDER BY string_to_array(path, '/') COLLATE "C"
		`, nodeColumns, r.tables.Nodes)

		rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, path, descendants)
		if err != nil {
			yield(nil, fmt.Errorf("walk subtree: %w", err))
			return
		}
		defer rows.Close()

		first := true
		for rows.Next() {
			n, err := scanNode(rows)
			if err != nil {
				yield(nil, fmt.Errorf("scan node: %w", err))
				return
			}
			if first && n.Path != path {
				// The root of the walk sorts first; anything else means it is gone.
				yield(nil, domain.NewNodeNotFound(path))
				return
			}
			first = false
			if !yield(n, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate subtree: %w", err))
			return
		}
		if first {
			yield(nil, domain.NewNodeNotFound(path))
		}
	}
}

func (r *PostgresTreeStore) Insert(ctx context.Context, node *docsystem.Node) error {
	b := &docsysRepo.Batch{}
	b.Insert(node)
	return r.Apply(ctx, b)
}

func (r *PostgresTreeStore) Update(ctx context.Context, node *docsystem.Node) error {
	b := &docsysRepo.Batch{}
	b.Update(node)
	return r.Apply(ctx, b)
}

func (r *PostgresTreeStore) Remove(ctx context.Context, path string) error {
	b := &docsysRepo.Batch{}
	b.Remove(path)
	return r.Apply(ctx, b)
}

// Apply runs the batch in one transaction. Statements execute in order, so
// each one observes the effects of those before it.
func (r *PostgresTreeStore) Apply(ctx context.Context, batch *docsysRepo.Batch) error {
	return r.tx.ExecTx(ctx, func(ctx context.Context) error {
		for _, op := range batch.Ops {
			var err error
			switch op.Kind {
			case docsysRepo.OpInsert:
				err = r.insert(ctx, op.Node)
			case docsysRepo.OpUpdate:
				err = r.update(ctx, op.Node)
			case docsysRepo.OpRemove:
				err = r.remove(ctx, op.Path)
			default:
				err = fmt.Errorf("unknown batch operation %d", op.Kind)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresTreeStore) insert(ctx context.Context, n *docsystem.Node) error {
	if err := docsysRepo.CheckInsertable(n); err != nil {
		return err
	}
	parent, err := r.Get(ctx, n.ParentPath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NoSuchParentError{Path: n.Path, ParentPath: n.ParentPath}
		}
		return err
	}
	if !parent.IsFolder {
		return &domain.NotAFolderError{Path: n.ParentPath}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (path, id, name, parent_path, is_folder, owner_id, created_at, modified_at, size, remark, content_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.tables.Nodes)

	_, err = GetExecutor(ctx, r.pool).Exec(ctx, query,
		n.Path,
		n.ID,
		n.Name,
		n.ParentPath,
		n.IsFolder,
		n.Owner,
		n.CreatedAt,
		n.ModifiedAt,
		n.Size,
		n.Remark,
		n.ContentID,
	)
	if err != nil {
		code, constraint := violation(err)
		switch {
		case code == sqlStateUniqueViolation && constraint == r.tables.Nodes+"_pkey":
			return &domain.DuplicatePathError{Path: n.Path}
		case code == sqlStateUniqueViolation:
			return &domain.ConflictError{Message: fmt.Sprintf("node id %s already in use", n.ID), ResourceType: "node", ResourceID: n.ID}
		case code == sqlStateForeignKeyViolation:
			return &domain.NoSuchParentError{Path: n.Path, ParentPath: n.ParentPath}
		}
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

func (r *PostgresTreeStore) update(ctx context.Context, n *docsystem.Node) error {
	existing, err := r.Get(ctx, n.Path)
	if err != nil {
		return err
	}
	if err := docsysRepo.CheckUpdatable(existing, n); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET owner_id = $1, created_at = $2, modified_at = $3, size = $4, remark = $5, content_id = $6
		WHERE path = $7
	`, r.tables.Nodes)

	_, err = GetExecutor(ctx, r.pool).Exec(ctx, query,
		n.Owner,
		n.CreatedAt,
		n.ModifiedAt,
		n.Size,
		n.Remark,
		n.ContentID,
		n.Path,
	)
	if err != nil {
		return fmt.Errorf("update node: %w", err)
	}
	return nil
}

func (r *PostgresTreeStore) remove(ctx context.Context, path string) error {
	existing, err := r.Get(ctx, path)
	if err != nil {
		return err
	}
	if existing.IsRoot() {
		return &domain.ValidationError{Message: "the root folder cannot be removed"}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE path = $1`, r.tables.Nodes)
	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, path); err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewFolderNotEmpty(path)
		}
		return fmt.Errorf("delete node: %w", err)
	}
	return nil
}
