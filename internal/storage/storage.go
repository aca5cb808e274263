// Package storage persists uploaded files. Rows only keep the returned path.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is a blob store keyed by folder and file name.
type Store interface {
	// Save writes r and returns the public path or URL of the stored file.
	Save(ctx context.Context, folder, name string, r io.Reader) (string, error)
	// Delete removes a file previously returned by Save. Missing files are not an error.
	Delete(ctx context.Context, path string) error
}

// File is an upload waiting to be stored.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func FromMultipartList(fhs []*multipart.FileHeader) []File {
	out := make([]File, 0, len(fhs))
	for _, fh := range fhs {
		out = append(out, FromMultipart(fh))
	}
	return out
}

// Ext returns the lower-cased extension of name, including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// NewName returns a collision-resistant name that keeps the original extension.
func NewName(original string) string {
	return uuid.NewString() + Ext(original)
}

// SaveAll stores files in order under folder. On failure, files already
// written by this call are deleted before returning.
func SaveAll(ctx context.Context, st Store, folder string, files []File) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		p, err := saveOne(ctx, st, folder, f)
		if err != nil {
			Cleanup(ctx, st, paths)
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func saveOne(ctx context.Context, st Store, folder string, f File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", f.Name, err)
	}
	defer rc.Close()
	return st.Save(ctx, folder, NewName(f.Name), rc)
}

// Cleanup deletes paths, ignoring errors.
func Cleanup(ctx context.Context, st Store, paths []string) {
	for _, p := range paths {
		_ = st.Delete(ctx, p)
	}
}

var ErrUnsafePath = errors.New("unsafe storage path")

func cleanSegment(s string) (string, error) {
	if s == "" || strings.Contains(s, "..") || strings.ContainsAny(s, `\`) || strings.HasPrefix(s, "/") {
		return "", ErrUnsafePath
	}
	return s, nil
}
