package catalog

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	pkgio "github.com/matzehuels/curator/pkg/io"
)

// Store loads and saves catalog records.
type Store interface {
	// LoadAll returns every record that could be decoded. Records that
	// fail to decode are logged and left out.
	LoadAll(ctx context.Context) ([]*Entry, error)
	// Save writes the full record, including keys it does not model.
	Save(ctx context.Context, e *Entry) error
}

// FileStore keeps one JSON file per record below a data directory.
type FileStore struct {
	dir    string
	logger *log.Logger
}

// NewFileStore creates a FileStore rooted at dir. A nil logger uses
// log.Default().
func NewFileStore(dir string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{dir: dir, logger: logger}
}

// Dir returns the data directory.
func (s *FileStore) Dir() string { return s.dir }

// LoadAll walks the data directory for *.json files in lexical order.
// Hidden files and directories are ignored.
func (s *FileStore) LoadAll(ctx context.Context) ([]*Entry, error) {
	var entries []*Entry
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != s.dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping record", "path", path, "err", err)
			return nil
		}
		e, err := Decode(data)
		if err != nil {
			s.logger.Warn("skipping record", "path", path, "err", err)
			return nil
		}
		e.Path = path
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, err, "load catalog from %s", s.dir)
	}
	return entries, nil
}

// Save writes e to its backing file, or to {dir}/{kind}/{id}.json for a
// record that was not loaded from disk.
func (s *FileStore) Save(ctx context.Context, e *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cerrors.ValidateRecordID(e.ID()); err != nil {
		return err
	}
	if e.Path == "" {
		e.Path = filepath.Join(s.dir, string(e.Kind()), e.ID()+".json")
	}
	return pkgio.ExportJSON(e.Path, e)
}

var _ Store = (*FileStore)(nil)
