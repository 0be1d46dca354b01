// Package workspace provides request-scoped scratch directories.
package workspace

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ZacxDev/reel-composer/internal/failure"
)

// Workspace is a private directory owned by one request. Everything written
// under it is removed by Release.
type Workspace struct {
	dir  string
	once sync.Once
	err  error
}

// Acquire creates a fresh directory under root. An empty root uses the
// system temporary directory.
func Acquire(root, prefix string) (*Workspace, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, failure.Wrap(err, failure.KindIO, "workspace.Acquire", "failed to create workspace root")
		}
	}
	dir, err := os.MkdirTemp(root, prefix+"-*")
	if err != nil {
		return nil, failure.Wrap(err, failure.KindIO, "workspace.Acquire", "failed to create workspace")
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// Release removes the workspace and its contents. It is safe to call more
// than once; later calls return the first result.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.err = failure.Wrap(err, failure.KindIO, "workspace.Release", "failed to remove workspace")
		}
	})
	return w.err
}
