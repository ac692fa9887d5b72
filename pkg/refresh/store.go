package refresh

import (
	"context"
	"errors"
	"io/fs"

	cerrors "github.com/matzehuels/curator/pkg/errors"
	pkgio "github.com/matzehuels/curator/pkg/io"
)

// FileStore persists the [State] document as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store for the document at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document path.
func (s *FileStore) Path() string { return s.path }

// Load reads the document. A missing file returns nil without error, which
// [ShouldRefresh] treats as always due.
func (s *FileStore) Load(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var st State
	if err := pkgio.ImportJSON(s.path, &st); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidConfig, err, "load refresh state")
	}
	return &st, nil
}

// Save writes the document atomically.
func (s *FileStore) Save(ctx context.Context, st *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := pkgio.ExportJSON(s.path, st); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInternal, err, "save refresh state")
	}
	return nil
}
