package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bookstore/recordstore/internal/merchant"
	"go.uber.org/zap"
)

// FileStore keeps a snapshot as an indented JSON document on disk.
type FileStore struct {
	path string
	log  *zap.Logger
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, log: logger}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

// Encode renders snap in the on-disk format.
func Encode(snap *merchant.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses the on-disk format. Unknown fields and anything after the
// document are rejected.
func Decode(data []byte) (*merchant.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var snap merchant.Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode snapshot: trailing data after document")
	}
	return &snap, nil
}

// WriteSnapshot replaces the file atomically: the document goes to a
// temporary file in the same directory which is then renamed over the target.
func (s *FileStore) WriteSnapshot(ctx context.Context, snap *merchant.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		s.log.Error("Failed to create temp snapshot", zap.String("dir", dir), zap.Error(err))
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		s.log.Error("Failed to replace snapshot", zap.String("path", s.path), zap.Error(err))
		return err
	}

	s.log.Debug("Snapshot written",
		zap.String("path", s.path),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// ReadSnapshot reads and decodes the file. A missing file yields an error
// matching ErrNotFound.
func (s *FileStore) ReadSnapshot(ctx context.Context) (*merchant.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, err
	}
	return Decode(data)
}

// Ping reports whether the snapshot directory is reachable.
func (s *FileStore) Ping() error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

// Close is a no-op for files.
func (s *FileStore) Close() error {
	return nil
}
