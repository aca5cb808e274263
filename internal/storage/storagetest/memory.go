// Package storagetest provides an in-memory storage.Store for tests.
package storagetest

import (
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/storage"
)

var ErrInjected = errors.New("storagetest: injected failure")

type Memory struct {
	mu      sync.Mutex
	files   map[string][]byte
	failAt  int
	saves   int
	deletes []string
}

func New() *Memory {
	return &Memory{files: map[string][]byte{}}
}

// FailOnSave makes the nth Save call from now fail.
func (m *Memory) FailOnSave(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAt = m.saves + n
}

func (m *Memory) Save(_ context.Context, folder, name string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failAt != 0 && m.saves == m.failAt {
		m.failAt = 0
		return "", ErrInjected
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	p := path.Join(storage.PublicPrefix, folder, name)
	m.files[p] = b
	return p, nil
}

func (m *Memory) Delete(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
	m.deletes = append(m.deletes, p)
	return nil
}

// Paths lists stored files, sorted.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (m *Memory) Content(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[p]
	return b, ok
}

func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deletes...)
}

// File returns an upload whose declared size is size and whose body is a
// short marker, so size limits can be tested without allocating.
func File(name string, size int64) storage.File {
	return storage.File{
		Name: name,
		Size: size,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(name)), nil },
	}
}
