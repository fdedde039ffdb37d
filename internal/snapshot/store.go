// Package snapshot opens the place a merchant snapshot lives: a JSON file, a
// SQLite database file or a PostgreSQL database.
package snapshot

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bookstore/recordstore/internal/db"
	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/bookstore/recordstore/internal/repo"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedTarget is returned by Open for a target it cannot map to a store
	ErrUnsupportedTarget = errors.New("unsupported snapshot target")

	// ErrNotFound is matched by read errors when no snapshot has been written yet
	ErrNotFound = repo.ErrSnapshotNotFound
)

// Store reads and writes whole snapshots.
type Store interface {
	merchant.SnapshotReader
	merchant.SnapshotWriter
	Ping() error
	Close() error
}

// Kind names the backend chosen for a target.
type Kind string

const (
	KindJSON     Kind = "json"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// KindOf classifies target without opening it.
func KindOf(target string) (Kind, error) {
	if db.IsPostgresDSN(target) {
		return KindPostgres, nil
	}
	switch strings.ToLower(filepath.Ext(target)) {
	case ".json":
		return KindJSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite, nil
	}
	return "", fmt.Errorf("%w: %q (want .json, .db, .sqlite, .sqlite3 or a postgres:// URL)", ErrUnsupportedTarget, target)
}

// Open returns the store for target. Database targets are migrated on open.
func Open(target string, logger *zap.Logger) (Store, error) {
	kind, err := KindOf(target)
	if err != nil {
		return nil, err
	}

	log := logger.With(zap.String("store", string(kind)))
	if kind == KindJSON {
		return NewFileStore(target, log), nil
	}

	database, err := db.Connect(target)
	if err != nil {
		return nil, fmt.Errorf("connect snapshot database: %w", err)
	}
	if err := db.RunMigrations(database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate snapshot database: %w", err)
	}
	log.Info("Snapshot database ready")

	return &dbStore{
		SnapshotRepository: repo.NewSnapshotRepository(database, log),
		database:           database,
	}, nil
}

type dbStore struct {
	*repo.SnapshotRepository
	database *db.DB
}

func (s *dbStore) Close() error {
	return s.database.Close()
}
