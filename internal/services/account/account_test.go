package account

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
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/auth"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/storage/storagetest"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/utils"
)

type fixture struct {
	store *repotest.Store
	files *storagetest.Memory
	creds *auth.Credentials
	svc   *Service
}

func newFixture() fixture {
	store := repotest.New()
	files := storagetest.New()
	creds := auth.NewCredentials(store.Users(), "secret", 60)
	return fixture{
		store: store,
		files: files,
		creds: creds,
		svc:   NewService(store.Users(), creds, files, zap.NewNop()),
	}
}

func strp(s string) *string { return &s }

func TestRegister(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	sess, err := f.svc.Register(ctx, RegisterInput{
		Name:     "Lucía",
		Email:    " Lucia@Uni.EDU ",
		Password: "supersecreto",
		Role:     "freelancer",
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "lucia@uni.edu", sess.User.Email)
	assert.Equal(t, models.RoleFreelancer, sess.User.Role)
	assert.True(t, sess.User.IsActive)
	assert.True(t, utils.CheckPassword(sess.User.Password, "supersecreto"))

	got, err := f.creds.VerifyToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, got.ID)
}

func TestRegisterDefaultsToClient(t *testing.T) {
	f := newFixture()
	sess, err := f.svc.Register(context.Background(), RegisterInput{Name: "Pedro", Email: "p@uni.edu", Password: "12345678"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, sess.User.Role)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{Email: "bad", Password: "short", Role: "admin"}, nil)
	require.True(t, apperr.Is(err, apperr.Validation))
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Fields, "name")
	assert.Contains(t, ae.Fields, "email")
	assert.Contains(t, ae.Fields, "password")
	assert.Contains(t, ae.Fields, "role")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.AddUser(models.User{Name: "Ana", Email: "ana@uni.edu", IsActive: true})

	_, err := f.svc.Register(ctx, RegisterInput{Name: "Otra", Email: "ANA@uni.edu", Password: "12345678"}, nil)
	require.True(t, apperr.Is(err, apperr.Validation))
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Fields, "email")
}

func TestRegisterAvatar(t *testing.T) {
	ctx := context.Background()

	t.Run("too large", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@uni.edu", Password: "12345678"},
			ptr(storagetest.File("me.png", MaxAvatarSize+1)))
		assert.True(t, apperr.Is(err, apperr.TooLarge))
		assert.Empty(t, f.files.Paths())
	})

	t.Run("bad extension", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@uni.edu", Password: "12345678"},
			ptr(storagetest.File("me.gif", 10)))
		assert.True(t, apperr.Is(err, apperr.Validation))
	})

	t.Run("stored", func(t *testing.T) {
		f := newFixture()
		sess, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@uni.edu", Password: "12345678"},
			ptr(storagetest.File("me.png", MaxAvatarSize)))
		require.NoError(t, err)
		assert.Equal(t, []string{sess.User.AvatarURL}, f.files.Paths())
	})

	t.Run("removed when insert fails", func(t *testing.T) {
		f := newFixture()
		f.store.FailNext("Users.Create", errors.New("connection reset"))
		_, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@uni.edu", Password: "12345678"},
			ptr(storagetest.File("me.png", 100)))
		assert.True(t, apperr.Is(err, apperr.Internal))
		assert.Empty(t, f.files.Paths())
	})
}

func ptr[T any](v T) *T { return &v }

func TestLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hash, err := utils.HashPassword("correcta123")
	require.NoError(t, err)
	f.store.AddUser(models.User{Name: "Ana", Email: "ana@uni.edu", Password: hash, Role: models.RoleClient, IsActive: true})
	f.store.AddUser(models.User{Name: "Off", Email: "off@uni.edu", Password: hash, Role: models.RoleClient, IsActive: false})

	sess, err := f.svc.Login(ctx, "ANA@uni.edu", "correcta123")
	require.NoError(t, err)
	assert.Equal(t, "ana@uni.edu", sess.User.Email)

	_, err = f.svc.Login(ctx, "ana@uni.edu", "incorrecta")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	_, err = f.svc.Login(ctx, "nadie@uni.edu", "correcta123")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	_, err = f.svc.Login(ctx, "off@uni.edu", "correcta123")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	_, err = f.svc.Login(ctx, "", "")
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestLoginWithGoogle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.LoginWithGoogle(ctx, "g@uni.edu", "", "https://img/x.png")
	require.NoError(t, err)
	assert.Equal(t, "g", first.User.Name)
	assert.Equal(t, models.RoleClient, first.User.Role)

	again, err := f.svc.LoginWithGoogle(ctx, "G@uni.edu", "Gabriela", "")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID)
}

func TestGetPublicHidesInactive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	on := f.store.AddUser(models.User{Name: "On", Email: "on@uni.edu", Role: models.RoleFreelancer, IsActive: true})
	off := f.store.AddUser(models.User{Name: "Off", Email: "off@uni.edu", IsActive: false})

	p, err := f.svc.GetPublic(ctx, on.ID)
	require.NoError(t, err)
	assert.Equal(t, "On", p.Name)

	_, err = f.svc.GetPublic(ctx, off.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.store.AddUser(models.User{Name: "Ana", Email: "ana@uni.edu", Role: models.RoleFreelancer, IsActive: true})

	got, err := f.svc.UpdateProfile(ctx, &u, u.ID, ProfileInput{
		Name:            strp("Ana María"),
		Bio:             strp("Diseñadora"),
		HourlyRate:      strp("12.5"),
		Skills:          strp(`["Figma", "figma", " Illustrator "]`),
		Languages:       strp("es, en"),
		ExperienceLevel: strp("Expert"),
		GitHubURL:       strp("https://github.com/ana"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", got.Name)
	require.NotNil(t, got.FreelancerProfile)
	assert.Equal(t, 12.5, got.FreelancerProfile.HourlyRate)
	assert.Equal(t, []string{"Figma", "Illustrator"}, []string(got.FreelancerProfile.Skills))
	assert.Equal(t, []string{"es", "en"}, []string(got.FreelancerProfile.Languages))
	assert.Equal(t, models.ExperienceExpert, got.FreelancerProfile.ExperienceLevel)

	// untouched fields survive a second partial update
	got, err = f.svc.UpdateProfile(ctx, &u, u.ID, ProfileInput{Career: strp("Diseño gráfico")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Diseñadora", got.FreelancerProfile.Bio)
	assert.Equal(t, "Diseño gráfico", got.FreelancerProfile.Career)
}

func TestUpdateProfileRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.store.AddUser(models.User{Name: "Ana", Email: "ana@uni.edu", Role: models.RoleClient, IsActive: true})
	other := f.store.AddUser(models.User{Name: "Leo", Email: "leo@uni.edu", Role: models.RoleClient, IsActive: true})
	admin := f.store.AddUser(models.User{Name: "Root", Email: "root@uni.edu", Role: models.RoleAdmin, IsActive: true})

	_, err := f.svc.UpdateProfile(ctx, &other, u.ID, ProfileInput{Name: strp("X")}, nil)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = f.svc.UpdateProfile(ctx, &admin, u.ID, ProfileInput{Name: strp("X")}, nil)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	_, err = f.svc.UpdateProfile(ctx, &u, u.ID, ProfileInput{
		HourlyRate: strp("-3"),
		WebsiteURL: strp("ftp://x"),
		Name:       strp("  "),
		Skills:     strp("[oops"),
	}, nil)
	require.True(t, apperr.Is(err, apperr.Validation))
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, ae.Fields, "hourly_rate")
	assert.Contains(t, ae.Fields, "website_url")
	assert.Contains(t, ae.Fields, "name")
	assert.Contains(t, ae.Fields, "skills")
}

func TestUpdateProfileReplacesAvatar(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.store.AddUser(models.User{Name: "Ana", Email: "ana@uni.edu", Role: models.RoleClient, IsActive: true})

	first, err := f.svc.UpdateProfile(ctx, &u, u.ID, ProfileInput{}, ptr(storagetest.File("a.png", 10)))
	require.NoError(t, err)
	second, err := f.svc.UpdateProfile(ctx, &u, u.ID, ProfileInput{}, ptr(storagetest.File("b.jpg", 10)))
	require.NoError(t, err)

	assert.NotEqual(t, first.AvatarURL, second.AvatarURL)
	assert.Equal(t, []string{second.AvatarURL}, f.files.Paths())
}

func TestUpdateProfileIsAllOrNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.store.AddUser(models.User{Name: "Ana", Email: "ana@uni.edu", Role: models.RoleFreelancer, IsActive: true})

	f.store.FailNext("Users.UpsertProfile", errors.New("connection reset"))
	_, err := f.svc.UpdateProfile(ctx, &u, u.ID, ProfileInput{
		Name: strp("Ana María"),
		Bio:  strp("Diseñadora"),
	}, ptr(storagetest.File("a.png", 10)))
	assert.True(t, apperr.Is(err, apperr.Internal))

	got, ok := f.store.User(u.ID)
	require.True(t, ok)
	assert.Equal(t, "Ana", got.Name)
	assert.Empty(t, got.AvatarURL)
	assert.Empty(t, f.files.Paths(), "uploaded avatar removed")

	after, err := f.svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, after.FreelancerProfile)
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	hash, err := utils.HashPassword("vieja1234")
	require.NoError(t, err)
	u := f.store.AddUser(models.User{Name: "Ana", Email: "ana@uni.edu", Password: hash, IsActive: true})

	err = f.svc.ChangePassword(ctx, &u, "otra", "nueva12345")
	assert.True(t, apperr.Is(err, apperr.Validation))

	err = f.svc.ChangePassword(ctx, &u, "vieja1234", "corta")
	assert.True(t, apperr.Is(err, apperr.Validation))

	require.NoError(t, f.svc.ChangePassword(ctx, &u, "vieja1234", "nueva12345"))
	_, err = f.svc.Login(ctx, "ana@uni.edu", "nueva12345")
	assert.NoError(t, err)
}
