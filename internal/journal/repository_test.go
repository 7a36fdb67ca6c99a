package journal

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/brightwash/orderdesk-backend/pkg/db/models"
	"github.com/brightwash/orderdesk-backend/pkg/enums"
	pkgerrors "github.com/brightwash/orderdesk-backend/pkg/errors"
)

func setupJournalTestDB(t *testing.T) *Repository {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=private"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Submission{}))

	repo, err := NewRepository(conn)
	require.NoError(t, err)
	return repo
}

func TestRecordAttemptAndMarkAccepted(t *testing.T) {
	repo := setupJournalTestDB(t)
	ctx := context.Background()

	draftID := uuid.New()
	payload := map[string]any{"customer_id": "C1", "items": []string{"l-1"}}
	submission, err := repo.RecordAttempt(ctx, draftID, "C1", payload, "25.50")
	require.NoError(t, err)
	assert.Equal(t, enums.SubmissionStatusPending, submission.Status)

	require.NoError(t, repo.MarkAccepted(ctx, submission.ID, "order-99", 201))

	loaded, err := repo.FindByID(ctx, submission.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubmissionStatusAccepted, loaded.Status)
	require.NotNil(t, loaded.UpstreamID)
	assert.Equal(t, "order-99", *loaded.UpstreamID)
	assert.Equal(t, "25.50", loaded.TotalAmount)
}

func TestMarkRejectedAndFailed(t *testing.T) {
	repo := setupJournalTestDB(t)
	ctx := context.Background()

	first, err := repo.RecordAttempt(ctx, uuid.New(), "C1", map[string]any{}, "10")
	require.NoError(t, err)
	require.NoError(t, repo.MarkRejected(ctx, first.ID, 422, "customer has unpaid balance"))

	loaded, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubmissionStatusRejected, loaded.Status)
	require.NotNil(t, loaded.LastError)
	require.NotNil(t, loaded.UpstreamStatus)
	assert.Equal(t, 422, *loaded.UpstreamStatus)

	second, err := repo.RecordAttempt(ctx, uuid.New(), "C2", map[string]any{}, "5")
	require.NoError(t, err)
	require.NoError(t, repo.MarkFailed(ctx, second.ID, "connection refused"))

	loaded, err = repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SubmissionStatusFailed, loaded.Status)
}

func TestMarkMissingSubmission(t *testing.T) {
	repo := setupJournalTestDB(t)

	err := repo.MarkAccepted(context.Background(), uuid.New(), "order-1", 201)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListByDraftOrdersOldestFirst(t *testing.T) {
	repo := setupJournalTestDB(t)
	ctx := context.Background()
	draftID := uuid.New()

	first, err := repo.RecordAttempt(ctx, draftID, "C1", map[string]any{"attempt": 1}, "10")
	require.NoError(t, err)
	_, err = repo.RecordAttempt(ctx, draftID, "C1", map[string]any{"attempt": 2}, "10")
	require.NoError(t, err)
	_, err = repo.RecordAttempt(ctx, uuid.New(), "C2", map[string]any{}, "1")
	require.NoError(t, err)

	rows, err := repo.ListByDraft(ctx, draftID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
}

func TestRecentHonorsLimit(t *testing.T) {
	repo := setupJournalTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.RecordAttempt(ctx, uuid.New(), "C1", map[string]any{"n": i}, "1")
		require.NoError(t, err)
	}

	rows, err := repo.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
