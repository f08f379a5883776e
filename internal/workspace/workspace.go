// Package workspace holds the temporary files of a single export operation.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Workspace is a private directory for one operation. Files put into it keep
// their base name; Close removes the directory and everything in it.
type Workspace struct {
	id  string
	dir string

	mu     sync.Mutex
	n      int
	closed bool
}

// New creates a uniquely named workspace under root. An empty root uses the
// system temporary directory.
func New(root string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	id := uuid.New().String()
	dir := filepath.Join(root, "trazabilidad-"+id)
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{id: id, dir: dir}, nil
}

// ID identifies the operation the workspace belongs to.
func (w *Workspace) ID() string {
	return w.id
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Put stores the content of r under the base name of name and returns its path.
// Files with the same name do not overwrite each other.
func (w *Workspace) Put(name string, r io.Reader) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return "", errors.New("workspace closed")
	}
	w.n++
	sub := filepath.Join(w.dir, strconv.Itoa(w.n))
	w.mu.Unlock()

	if err := os.Mkdir(sub, 0700); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(sub, base)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", base, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", base, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", base, err)
	}
	return path, nil
}

// Close removes the workspace. It is safe to call more than once.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	return nil
}
