// Package badger persists the document tree and the user directory in an
// embedded BadgerDB database.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"

	"github.com/YugenJarwal13/InternalDMS/internal/domain/models/docsystem"
)

// maxTxnRetries bounds how often an update is retried after badger reports
// an optimistic-concurrency conflict.
const maxTxnRetries = 5

// Config selects where the database lives.
type Config struct {
	// Path is the directory BadgerDB stores its files in.
	Path string

	// InMemory keeps everything in RAM. Path is ignored.
	InMemory bool

	Logger *slog.Logger
}

// DB wraps the badger handle shared by the tree store and the directory
// repositories.
type DB struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger *slog.Logger
}

// Open opens (or creates) the database and makes sure the root folder exists.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None) // Records are small JSON documents

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.Path, err)
	}

	seq, err := db.GetSequence(keyActivitySeq, 100)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to allocate activity sequence: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &DB{db: db, seq: seq, logger: logger}
	if err := d.ensureRoot(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to initialize root folder: %w", err)
	}
	return d, nil
}

// Close releases the activity sequence and closes the database.
func (d *DB) Close() error {
	seqErr := d.seq.Release()
	if err := d.db.Close(); err != nil {
		return err
	}
	return seqErr
}

// HealthCheck performs a trivial read transaction.
func (d *DB) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(keyNode("/"))
		return err
	})
}

func (d *DB) ensureRoot() error {
	return d.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyNode("/"))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		root := docsystem.NewRoot(uuid.NewString(), time.Now().UTC())
		return putNode(txn, root)
	})
}

// update runs fn in a read-write transaction, retrying on conflicts with
// concurrent transactions.
func (d *DB) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = d.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		d.logger.Debug("badger transaction conflict, retrying", "attempt", attempt+1)
	}
	return fmt.Errorf("transaction kept conflicting after %d attempts: %w", maxTxnRetries, err)
}
