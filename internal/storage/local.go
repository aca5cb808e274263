package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PublicPrefix is the URL prefix the static handler serves Local files under.
const PublicPrefix = "/uploads"

// Local stores files on disk under root/<folder>/<name>.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) Root() string { return l.root }

func (l *Local) Save(_ context.Context, folder, name string, r io.Reader) (string, error) {
	if _, err := cleanSegment(folder); err != nil {
		return "", err
	}
	if _, err := cleanSegment(name); err != nil {
		return "", err
	}

	dir := filepath.Join(l.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return path.Join(PublicPrefix, folder, name), nil
}

func (l *Local) Delete(_ context.Context, p string) error {
	rel := strings.TrimPrefix(p, PublicPrefix+"/")
	if _, err := cleanSegment(rel); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
