package generateoffers

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
	"uwizard-workers/internal/models"
	"uwizard-workers/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &Config{Timeout: 5 * time.Second}
	h := NewHandler(cfg, store.New(db), logger.NewZapAdapter(zaptest.NewLogger(t)))
	return h, mock
}

func cleanMetrics() *models.Metrics {
	return &models.Metrics{
		AvgMonthlyRevenue:   80000,
		AvgDailyBalance3M:   12000,
		TotalNSF3M:          1,
		TotalDaysNegative3M: 2,
	}
}

func boolPtr(b bool) *bool { return &b }

func expectOfferPersist(mock sqlmock.Sqlmock, offerCount int) {
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE offers SET status = 'superseded'`).
		WithArgs("m-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	for i := 0; i < offerCount; i++ {
		mock.ExpectExec(`INSERT INTO offers`).
			WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectCommit()
}

// ==========================
// Offer Generation Tests
// ==========================

func TestExecute_GeneratesAndPersistsTieredOffers(t *testing.T) {
	h, mock := newTestHandler(t)

	overrides := &models.OfferOverrides{
		Caps: &models.OfferCaps{PaybackToMonthlyRev: 2.0},
	}

	expectOfferPersist(mock, 3)

	output, err := h.execute(context.Background(), &Input{
		MerchantID: "m-1",
		Metrics:    cleanMetrics(),
		Overrides:  overrides,
	})
	require.NoError(t, err)
	require.Len(t, output.Offers, 3)
	assert.False(t, output.Rejected)
	assert.Equal(t, 96000.0, output.BaseAmount)
	assert.Equal(t, 57600.0, output.Offers[0].Amount)
	assert.Equal(t, 72000.0, output.Offers[0].Payback)
	assert.Equal(t, 96000.0, output.Offers[2].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_PreviewSkipsPersistence(t *testing.T) {
	h, mock := newTestHandler(t)

	output, err := h.execute(context.Background(), &Input{
		MerchantID: "m-1",
		Metrics:    cleanMetrics(),
		Overrides:  &models.OfferOverrides{Caps: &models.OfferCaps{PaybackToMonthlyRev: 2.0}},
		Persist:    boolPtr(false),
	})
	require.NoError(t, err)
	assert.Len(t, output.Offers, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_GuardrailRejectionIsNotAnError(t *testing.T) {
	h, mock := newTestHandler(t)

	m := cleanMetrics()
	m.TotalNSF3M = 10

	output, err := h.execute(context.Background(), &Input{MerchantID: "m-1", Metrics: m})
	require.NoError(t, err)
	assert.True(t, output.Rejected)
	assert.NotEmpty(t, output.RejectionReason)
	assert.Empty(t, output.Offers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_LoadsMetricsFromStore(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT statement_month, total_deposits, avg_daily_balance, ending_balance, nsf_count, days_negative FROM statement_metrics`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"statement_month", "total_deposits", "avg_daily_balance", "ending_balance", "nsf_count", "days_negative"}).
			AddRow("2025-05", 80000.0, 12000.0, 9000.0, 0, 0).
			AddRow("2025-04", 80000.0, 12000.0, 9500.0, 0, 0).
			AddRow("2025-03", 80000.0, 12000.0, 8800.0, 0, 0))
	expectOfferPersist(mock, 3)

	output, err := h.execute(context.Background(), &Input{
		MerchantID: "m-1",
		Overrides:  &models.OfferOverrides{Caps: &models.OfferCaps{PaybackToMonthlyRev: 2.0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 96000.0, output.BaseAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Failure Tests
// ==========================

func TestExecute_NoMetricsOnFile(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT statement_month, total_deposits, avg_daily_balance, ending_balance, nsf_count, days_negative FROM statement_metrics`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"statement_month", "total_deposits", "avg_daily_balance", "ending_balance", "nsf_count", "days_negative"}))

	_, err := h.execute(context.Background(), &Input{MerchantID: "m-1"})
	assert.True(t, errors.Is(err, ErrNoMetrics))
}

func TestExecute_RequiresMerchantIDWithoutMetrics(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{})
	assert.True(t, errors.Is(err, ErrNoMetrics))
}

func TestExecute_WrapsPersistFailure(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE offers SET status = 'superseded'`).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := h.execute(context.Background(), &Input{
		MerchantID: "m-1",
		Metrics:    cleanMetrics(),
		Overrides:  &models.OfferOverrides{Caps: &models.OfferCaps{PaybackToMonthlyRev: 2.0}},
	})
	assert.True(t, errors.Is(err, ErrOfferPersistFailed))
}
