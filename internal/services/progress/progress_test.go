package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository/repotest"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/storage"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/storage/storagetest"
)

type fixture struct {
	store      *repotest.Store
	files      *storagetest.Memory
	svc        *Service
	client     models.User
	freelancer models.User
	project    models.Project
}

func newFixture() *fixture {
	store := repotest.New()
	files := storagetest.New()
	f := &fixture{store: store, files: files}
	f.client = store.AddUser(models.User{Name: "Carla", Email: "carla@uni.edu", Role: models.RoleClient, IsActive: true})
	f.freelancer = store.AddUser(models.User{Name: "Fede", Email: "fede@uni.edu", Role: models.RoleFreelancer, IsActive: true})
	f.project = store.AddProject(models.Project{ClientID: f.client.ID, FreelancerID: f.freelancer.ID, Title: "App", Status: models.ProjectActive})
	f.svc = NewService(store.Projects(), store.Updates(), files, zap.NewNop())
	return f
}

func (f *fixture) input() Input {
	return Input{ProjectID: f.project.ID, Title: "Semana 1", Description: "Wireframes listos"}
}

func TestAddUpdateKeepsFileOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	u, err := f.svc.AddUpdate(ctx, &f.freelancer, f.input(), []storage.File{
		storagetest.File("c.pdf", 3),
		storagetest.File("a.png", 1),
		storagetest.File("b.zip", 2),
	})
	require.NoError(t, err)
	assert.NotEqual(t, "", u.ID.String())
	require.Len(t, u.Files, 3)

	for i, name := range []string{"c.pdf", "a.png", "b.zip"} {
		body, ok := f.files.Content(u.Files[i])
		require.True(t, ok)
		assert.Equal(t, name, string(body), "file %d", i)
		assert.Contains(t, u.Files[i], "/uploads/project-updates/")
	}

	list, err := f.svc.ListUpdates(ctx, &f.client, f.project.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string(u.Files), []string(list[0].Files))
}

func TestAddUpdateSizeBoundary(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	_, err := f.svc.AddUpdate(ctx, &f.freelancer, f.input(), []storage.File{storagetest.File("exact.bin", MaxFileSize)})
	require.NoError(t, err)

	f = newFixture()
	_, err = f.svc.AddUpdate(ctx, &f.freelancer, f.input(), []storage.File{
		storagetest.File("ok.bin", 10),
		storagetest.File("big.bin", MaxFileSize+1),
	})
	assert.True(t, apperr.Is(err, apperr.TooLarge))
	assert.Empty(t, f.files.Paths(), "nothing written when any file is too large")
}

func TestAddUpdateRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.AddUpdate(ctx, &f.client, f.input(), nil)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = f.svc.AddUpdate(ctx, &f.freelancer, Input{ProjectID: f.project.ID}, nil)
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = f.svc.AddUpdate(ctx, &f.freelancer, Input{ProjectID: f.client.ID, Title: "x", Description: "y"}, nil)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	files := make([]storage.File, MaxFiles+1)
	for i := range files {
		files[i] = storagetest.File("f.txt", 1)
	}
	_, err = f.svc.AddUpdate(ctx, &f.freelancer, f.input(), files)
	assert.True(t, apperr.Is(err, apperr.Validation))

	u, err := f.svc.AddUpdate(ctx, &f.freelancer, f.input(), files[:MaxFiles])
	require.NoError(t, err)
	assert.Len(t, u.Files, MaxFiles)
}

func TestAddUpdateCleansUpOnInsertFailure(t *testing.T) {
	f := newFixture()
	f.store.FailNext("Updates.Create", errors.New("connection reset"))

	_, err := f.svc.AddUpdate(context.Background(), &f.freelancer, f.input(), []storage.File{
		storagetest.File("a.png", 1),
		storagetest.File("b.png", 1),
	})
	assert.True(t, apperr.Is(err, apperr.Internal))
	assert.Empty(t, f.files.Paths())
	assert.Len(t, f.files.Deleted(), 2)
}

func TestAddUpdateCleansUpOnPartialSave(t *testing.T) {
	f := newFixture()
	f.files.FailOnSave(2)

	_, err := f.svc.AddUpdate(context.Background(), &f.freelancer, f.input(), []storage.File{
		storagetest.File("a.png", 1),
		storagetest.File("b.png", 1),
	})
	assert.True(t, apperr.Is(err, apperr.Internal))
	assert.Empty(t, f.files.Paths())
}

func TestListUpdates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	outsider := f.store.AddUser(models.User{Name: "X", Email: "x@uni.edu", IsActive: true})

	for _, title := range []string{"uno", "dos"} {
		in := f.input()
		in.Title = title
		_, err := f.svc.AddUpdate(ctx, &f.freelancer, in, nil)
		require.NoError(t, err)
	}

	list, err := f.svc.ListUpdates(ctx, &f.freelancer, f.project.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dos", list[0].Title, "newest first")

	_, err = f.svc.ListUpdates(ctx, &outsider, f.project.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}
