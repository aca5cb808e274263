package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository/repotest"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/utils"
)

func TestIssueThenVerifyReturnsFreshRow(t *testing.T) {
	store := repotest.New()
	u := store.AddUser(models.User{Name: "Ana", Email: "ana@uni.edu", Role: models.RoleClient, IsActive: true})
	creds := NewCredentials(store.Users(), "secret", 60)

	tok, err := creds.IssueToken(&u)
	require.NoError(t, err)

	claims, err := utils.ParseJWT("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, "ana@uni.edu", claims.Email)

	// role changed after the token was issued
	u.Role = models.RoleFreelancer
	require.NoError(t, store.Users().Update(context.Background(), &u))

	got, err := creds.VerifyToken(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, models.RoleFreelancer, got.Role)
}

func TestVerifyTokenFailures(t *testing.T) {
	store := repotest.New()
	creds := NewCredentials(store.Users(), "secret", 60)
	ctx := context.Background()

	_, err := creds.VerifyToken(ctx, "garbage")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	ghost := models.User{ID: uuid.New(), Email: "ghost@uni.edu", Role: models.RoleClient}
	tok, err := creds.IssueToken(&ghost)
	require.NoError(t, err)
	_, err = creds.VerifyToken(ctx, tok)
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "unknown user")

	inactive := store.AddUser(models.User{Email: "off@uni.edu", Role: models.RoleClient, IsActive: false})
	tok, err = creds.IssueToken(&inactive)
	require.NoError(t, err)
	_, err = creds.VerifyToken(ctx, tok)
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "inactive user")

	expired := NewCredentials(store.Users(), "secret", -1)
	active := store.AddUser(models.User{Email: "on@uni.edu", Role: models.RoleClient, IsActive: true})
	tok, err = expired.IssueToken(&active)
	require.NoError(t, err)
	_, err = creds.VerifyToken(ctx, tok)
	assert.True(t, apperr.Is(err, apperr.Unauthorized), "expired token")
}
