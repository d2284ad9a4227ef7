package schedulefollowup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &Config{Timeout: 5 * time.Second, DefaultDays: 30}
	h := NewHandler(cfg, store.New(db), logger.NewZapAdapter(zaptest.NewLogger(t)))
	h.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return h, mock
}

// ==========================
// Scheduling Tests
// ==========================

func TestExecute_SchedulesFollowUp(t *testing.T) {
	h, mock := newTestHandler(t)

	dueAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO follow_ups`).
		WithArgs("m-1", dueAt, "waiting on statements", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	output, err := h.execute(context.Background(), &Input{
		MerchantID: "m-1",
		Days:       14,
		Reason:     "waiting on statements",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), output.FollowUpID)
	assert.Equal(t, "2025-06-15T12:00:00Z", output.DueAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_DefaultsDays(t *testing.T) {
	h, mock := newTestHandler(t)

	dueAt := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO follow_ups`).
		WithArgs("m-1", dueAt, "check back in", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	output, err := h.execute(context.Background(), &Input{
		MerchantID: "m-1",
		Reason:     "check back in",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-07-01T12:00:00Z", output.DueAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Failure Tests
// ==========================

func TestExecute_RequiresMerchantID(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{Reason: "check back in"})
	assert.True(t, errors.Is(err, ErrScheduleFailed))
}

func TestExecute_WrapsInsertFailure(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`INSERT INTO follow_ups`).
		WillReturnError(errors.New("relation does not exist"))

	_, err := h.execute(context.Background(), &Input{MerchantID: "m-1", Reason: "x"})
	assert.True(t, errors.Is(err, ErrScheduleFailed))
}
