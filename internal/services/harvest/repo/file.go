// Package repo implements the harvest service's persistence ports: the JSON
// file store and the optional Postgres archive
package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"

	perr "breachwatch/internal/platform/errors"
	"breachwatch/internal/platform/logger"

	"breachwatch/internal/core/record"
)

// backupSuffix is appended to the store path for the pre-write copy
const backupSuffix = ".backup.json"

// FileStore persists records as indented UTF-8 JSON at a fixed path.
// Writes go through a temp file and rename so a crash mid-save never leaves
// a truncated store; the previous contents survive at <path>.backup.json
type FileStore struct {
	path string
}

// NewFileStore builds a FileStore rooted at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the store path
func (f *FileStore) Path() string { return f.path }

// BackupPath returns where Save preserves the pre-write contents
func (f *FileStore) BackupPath() string { return f.path + backupSuffix }

// Load reads the store. A missing file is an empty store; corrupt JSON is
// logged at warn and also degrades to empty rather than aborting the run
func (f *FileStore) Load(ctx context.Context) ([]record.Record, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeStorage, "store: read %q", f.path)
	}

	var recs []record.Record
	if err := json.Unmarshal(b, &recs); err != nil {
		logger.C(ctx).Warn().Err(err).Str("path", f.path).
			Msg("store file is corrupt, starting from empty")
		return nil, nil
	}
	return recs, nil
}

// Save backs up the current file, sorts recs newest first, and atomically
// replaces the store. recs is not mutated
func (f *FileStore) Save(ctx context.Context, recs []record.Record) error {
	if err := f.backup(); err != nil {
		return err
	}

	sorted := make([]record.Record, len(recs))
	copy(sorted, recs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	b, err := marshalStore(sorted)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "store: temp file in %q", dir)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return perr.Wrap(err, perr.ErrorCodeStorage, "store: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return perr.Wrap(err, perr.ErrorCodeStorage, "store: close temp file")
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return perr.Wrap(err, perr.ErrorCodeStorage, "store: chmod temp file")
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return perr.Wrapf(err, perr.ErrorCodeStorage, "store: replace %q", f.path)
	}

	logger.C(ctx).Debug().Str("path", f.path).Int("records", len(sorted)).Msg("store saved")
	return nil
}

// backup copies the current store file aside. Nothing to do when the store
// does not exist yet
func (f *FileStore) backup() error {
	src, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return perr.Wrapf(err, perr.ErrorCodeStorage, "store: open %q for backup", f.path)
	}
	defer src.Close()

	dst, err := os.OpenFile(f.BackupPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "store: create backup %q", f.BackupPath())
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return perr.Wrap(err, perr.ErrorCodeStorage, "store: copy backup")
	}
	if err := dst.Close(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeStorage, "store: close backup")
	}
	return nil
}

// marshalStore renders the legacy on-disk shape: two-space indent, no HTML
// escaping, trailing newline
func marshalStore(recs []record.Record) ([]byte, error) {
	if recs == nil {
		recs = []record.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "store: marshal records")
	}
	return buf.Bytes(), nil
}
