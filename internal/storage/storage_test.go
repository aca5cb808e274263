package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFile(name, body string) File {
	return File{
		Name: name,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func TestLocalSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	st := NewLocal(root)
	ctx := context.Background()

	p, err := st.Save(ctx, "project-updates", "abc.pdf", strings.NewReader("hola"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/project-updates/abc.pdf", p)

	b, err := os.ReadFile(filepath.Join(root, "project-updates", "abc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "hola", string(b))

	require.NoError(t, st.Delete(ctx, p))
	_, err = os.Stat(filepath.Join(root, "project-updates", "abc.pdf"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, st.Delete(ctx, p), "deleting twice is fine")
}

func TestLocalRejectsTraversal(t *testing.T) {
	st := NewLocal(t.TempDir())
	_, err := st.Save(context.Background(), "../etc", "x.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsafePath)
	assert.ErrorIs(t, st.Delete(context.Background(), "/uploads/../../etc/passwd"), ErrUnsafePath)
}

type failingStore struct {
	*Local
	failOn int
	calls  int
}

func (f *failingStore) Save(ctx context.Context, folder, name string, r io.Reader) (string, error) {
	f.calls++
	if f.calls == f.failOn {
		return "", errors.New("disk full")
	}
	return f.Local.Save(ctx, folder, name, r)
}

func TestSaveAllKeepsOrderAndCleansUp(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	paths, err := SaveAll(ctx, NewLocal(root), "services", []File{
		memFile("a.PNG", "1"), memFile("b.jpg", "2"), memFile("c.webp", "3"),
	})
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.True(t, strings.HasSuffix(paths[0], ".png"))
	assert.True(t, strings.HasSuffix(paths[1], ".jpg"))
	assert.True(t, strings.HasSuffix(paths[2], ".webp"))

	failRoot := t.TempDir()
	fs := &failingStore{Local: NewLocal(failRoot), failOn: 3}
	_, err = SaveAll(ctx, fs, "services", []File{
		memFile("a.png", "1"), memFile("b.png", "2"), memFile("c.png", "3"),
	})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(failRoot, "services"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAssetFromURL(t *testing.T) {
	cases := []struct {
		url, kind, id string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/services/4f1c.png", "image", "services/4f1c"},
		{"https://res.cloudinary.com/demo/raw/upload/v1712345678/project-updates/doc.pdf", "raw", "project-updates/doc.pdf"},
		{"https://res.cloudinary.com/demo/raw/upload/project-updates/9a2b", "raw", "project-updates/9a2b"},
		{"https://res.cloudinary.com/demo/video/upload/v1/project-updates/demo.mp4", "video", "project-updates/demo"},
	}
	for _, tc := range cases {
		kind, id, err := assetFromURL(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.kind, kind, tc.url)
		assert.Equal(t, tc.id, id, tc.url)
	}

	_, _, err := assetFromURL("https://example.com/uploads/x.png")
	assert.Error(t, err)
}
