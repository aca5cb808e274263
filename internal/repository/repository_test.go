package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return gdb, mock
}

func TestChatFindByIDNotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewChatRepository(gdb)

	mock.ExpectQuery(`SELECT \* FROM "chats"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSummariesMapsRows(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewChatRepository(gdb)

	me := uuid.New()
	other := uuid.New()
	chatA := uuid.New()
	chatB := uuid.New()
	project := uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"chat_id", "project_id", "project_title", "created_at",
		"counterpart_id", "counterpart_name", "counterpart_avatar", "counterpart_role",
		"last_message", "last_message_at", "unread_count",
	}).
		AddRow(chatA.String(), project.String(), "Rediseño de logo", now.Add(-time.Hour),
			other.String(), "Lucía", "/uploads/avatars/l.png", "freelancer",
			"¿Cómo va?", now, int64(2)).
		AddRow(chatB.String(), nil, "", now.Add(-2*time.Hour),
			other.String(), "Lucía", "", "freelancer",
			nil, nil, int64(0))

	mock.ExpectQuery(`FROM chats c`).WillReturnRows(rows)

	out, err := repo.ListSummaries(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, chatA, out[0].ChatID)
	require.NotNil(t, out[0].ProjectID)
	assert.Equal(t, project, *out[0].ProjectID)
	assert.Equal(t, "¿Cómo va?", out[0].LastMessage)
	assert.Equal(t, int64(2), out[0].UnreadCount)
	assert.Equal(t, models.RoleFreelancer, out[0].Counterpart.Role)
	assert.Equal(t, "Lucía", out[0].Counterpart.Name)

	assert.Nil(t, out[1].ProjectID)
	assert.Empty(t, out[1].LastMessage)
	assert.Nil(t, out[1].LastMessageAt)
}

func TestCountUnread(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewChatRepository(gdb)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountUnread(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestUpdateStatusStale(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProjectRepository(gdb)

	mock.ExpectExec(`UPDATE "projects" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), uuid.New(), models.ProjectPending, models.ProjectActive)
	assert.ErrorIs(t, err, ErrStaleStatus)
}

func TestUpdateStatusApplied(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProjectRepository(gdb)

	mock.ExpectExec(`UPDATE "projects" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), uuid.New(), models.ProjectActive, models.ProjectReview)
	assert.NoError(t, err)
}

func TestSumPayments(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProjectRepository(gdb)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(250.5))

	total, err := repo.SumPayments(context.Background(), uuid.New(), models.RoleFreelancer)
	require.NoError(t, err)
	assert.InDelta(t, 250.5, total, 0.001)
}

func TestCategories(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewServiceRepository(gdb)

	mock.ExpectQuery(`SELECT DISTINCT .*category.* FROM "services"`).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("Diseño").AddRow("Programación"))

	cats, err := repo.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Diseño", "Programación"}, cats)
}

func TestFindOrCreateForProjectInserts(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewChatRepository(gdb)
	p := &models.Project{ID: uuid.New(), ClientID: uuid.New(), FreelancerID: uuid.New()}

	mock.ExpectQuery(`INSERT INTO "chats" .* ON CONFLICT DO NOTHING RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))

	chat, created, err := repo.FindOrCreateForProject(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, chat.ProjectID)
	assert.Equal(t, p.ID, *chat.ProjectID)
	assert.Equal(t, p.ClientID, chat.ClientID)
}

func TestFindOrCreateForProjectRereadsOnConflict(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewChatRepository(gdb)
	p := &models.Project{ID: uuid.New(), ClientID: uuid.New(), FreelancerID: uuid.New()}
	existing := uuid.New()

	mock.ExpectQuery(`INSERT INTO "chats" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "chats" WHERE project_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "client_id", "freelancer_id"}).
			AddRow(existing.String(), p.ID.String(), p.ClientID.String(), p.FreelancerID.String()))

	chat, created, err := repo.FindOrCreateForProject(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing, chat.ID)
}

func TestFindOrCreateDirectRereadsOnConflict(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewChatRepository(gdb)
	clientID, freelancerID, existing := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`INSERT INTO "chats" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "chats" WHERE client_id = \$1 AND freelancer_id = \$2 AND project_id IS NULL`).
		WithArgs(clientID, freelancerID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "freelancer_id"}).
			AddRow(existing.String(), clientID.String(), freelancerID.String()))

	chat, created, err := repo.FindOrCreateDirect(context.Background(), clientID, freelancerID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing, chat.ID)
	assert.Nil(t, chat.ProjectID)
}

func newContract() *Contract {
	client, freelancer := uuid.New(), uuid.New()
	return &Contract{
		Project: &models.Project{ServiceID: uuid.New(), ClientID: client, FreelancerID: freelancer, Title: "Logo", Amount: 25},
		Payment: &models.Payment{ClientID: client, FreelancerID: freelancer, Amount: 25, PaymentMethod: models.PaymentCard, Status: models.PaymentCompleted},
		Seed:    &models.Message{SenderID: client, ReceiverID: freelancer, Body: "Hola"},
	}
}

func TestCreateContractCommits(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProjectRepository(gdb)
	c := newContract()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "chats" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectExec(`UPDATE "chats" SET "last_message_at"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateContract(context.Background(), c))
	require.NotNil(t, c.Chat)
	assert.Equal(t, c.Project.ID, c.Payment.ProjectID)
	assert.Equal(t, c.Chat.ID, c.Seed.ChatID)
	require.NotNil(t, c.Seed.ProjectID)
	assert.Equal(t, c.Project.ID, *c.Seed.ProjectID)
}

func TestCreateContractRollsBackOnPaymentFailure(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProjectRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "payments"`).WillReturnError(errors.New("payments unavailable"))
	mock.ExpectRollback()

	err := repo.CreateContract(context.Background(), newContract())
	assert.EqualError(t, err, "payments unavailable")
}

func TestCreateContractRollsBackOnSeedFailure(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProjectRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "projects"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "chats" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery(`INSERT INTO "messages"`).WillReturnError(errors.New("messages unavailable"))
	mock.ExpectRollback()

	assert.Error(t, repo.CreateContract(context.Background(), newContract()))
}

func TestConsumeRejectsSpentCode(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewPasswordResetRepository(gdb)
	user := uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "password_reset_codes" SET "used"=\$1 WHERE user_id = \$2 AND code = \$3 AND used = false AND expires_at > \$4`).
		WithArgs(true, user, "123456", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Consume(context.Background(), user, "123456", now, "hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeBurnsCodeThenSetsPassword(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewPasswordResetRepository(gdb)
	user := uuid.New()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "password_reset_codes" SET "used"=\$1 WHERE user_id = \$2 AND code = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "users" SET "password"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "password_reset_codes" SET "used"=\$1 WHERE user_id = \$2 AND used = false`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repo.Consume(context.Background(), user, "123456", now, "hash"))
}

func TestUpdateWithProfileRollsBack(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)
	u := &models.User{ID: uuid.New(), Name: "Ana", Role: models.RoleFreelancer, IsActive: true}
	p := &models.FreelancerProfile{UserID: u.ID, Bio: "Diseñadora"}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "freelancer_profiles" .* ON CONFLICT \("user_id"\) DO UPDATE SET`).
		WillReturnError(errors.New("profiles unavailable"))
	mock.ExpectRollback()

	err := repo.UpdateWithProfile(context.Background(), u, p)
	assert.EqualError(t, err, "profiles unavailable")
}

func TestUpdateWithoutProfileCommits(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)
	u := &models.User{ID: uuid.New(), Name: "Ana", Role: models.RoleClient, IsActive: true}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateWithProfile(context.Background(), u, nil))
}
