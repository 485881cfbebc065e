package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// Store reads raw template files by slash-separated name, e.g.
// "BC-IA-PAID.html" or "common/footer.html".
type Store interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// FSStore reads templates from a file system: os.DirFS(TEMPLATE_PATH) in
// production, an embedded or in-memory FS in tests.
type FSStore struct {
	fsys fs.FS
}

// NewFSStore creates an FSStore over fsys.
func NewFSStore(fsys fs.FS) *FSStore {
	return &FSStore{fsys: fsys}
}

// Read returns the content of name, or ErrTemplateNotFound.
func (s *FSStore) Read(_ context.Context, name string) ([]byte, error) {
	name = path.Clean(name)
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: invalid name %q", ErrTemplateNotFound, name)
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return data, nil
}

var _ Store = (*FSStore)(nil)
