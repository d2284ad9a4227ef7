package matchrule

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/decision/rules"
	"uwizard-workers/internal/models"
	"uwizard-workers/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:  5 * time.Second,
		CacheTTL: time.Minute,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func testCatalog() *rules.Catalog {
	return rules.NewCatalog([]models.Rule{
		{
			ID:       "collect-ein",
			Name:     "Collect EIN from new merchants",
			Priority: 1,
			Enabled:  true,
			When: models.AndCondition{Conditions: []models.Condition{
				models.EqualsCondition{Field: "merchant.status", Value: "new"},
				models.MissingAnyCondition{Fields: []string{"business.ein"}},
			}},
			Then: []models.Action{
				models.MessageAction{TemplateID: "ask_ein"},
				models.AskAction{Fields: []string{"business.ein"}},
			},
		},
		{
			ID:       "request-statements",
			Name:     "Ask for statements once identity is on file",
			Priority: 2,
			Enabled:  true,
			When:     models.NotExpiredAllCondition{Fields: []string{"business.ein"}},
			Then:     []models.Action{models.AskForStatementsAction{}},
		},
	})
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	h := NewHandler(createTestConfig(), testCatalog(), store.New(db), rdb, createTestLogger(t))
	return h, mock, mr
}

func strPtr(s string) *string { return &s }

func inlineState(status models.MerchantStatus, fields map[string]models.FieldStatus) *models.MerchantState {
	return &models.MerchantState{
		MerchantID: "m-1",
		Status:     status,
		Fields:     fields,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestExecute_MatchesFirstRuleByPriority(t *testing.T) {
	h, _, _ := newTestHandler(t)

	output, err := h.execute(context.Background(), &Input{
		State: inlineState(models.MerchantStatusNew, map[string]models.FieldStatus{}),
	})
	require.NoError(t, err)

	assert.True(t, output.Matched)
	assert.Equal(t, "collect-ein", output.RuleID)
	require.Len(t, output.Actions, 2)

	msg, ok := output.Actions[0].(models.MessageAction)
	require.True(t, ok)
	assert.Equal(t, "ask_ein", msg.TemplateID)
}

func TestExecute_FallsThroughToLaterRule(t *testing.T) {
	h, _, _ := newTestHandler(t)

	now := time.Now().UTC()
	output, err := h.execute(context.Background(), &Input{
		State: inlineState(models.MerchantStatusExisting, map[string]models.FieldStatus{
			"business.ein": {Value: strPtr("12-3456789"), LastVerifiedAt: &now},
		}),
	})
	require.NoError(t, err)

	assert.True(t, output.Matched)
	assert.Equal(t, "request-statements", output.RuleID)
}

func TestExecute_NoMatchIsValidOutcome(t *testing.T) {
	h, _, _ := newTestHandler(t)

	// Existing merchant with no EIN on file: rule one wants status new, rule
	// two wants a fresh EIN. Neither fires.
	output, err := h.execute(context.Background(), &Input{
		State: inlineState(models.MerchantStatusExisting, map[string]models.FieldStatus{}),
	})
	require.NoError(t, err)

	assert.False(t, output.Matched)
	assert.Empty(t, output.RuleID)
	assert.NotNil(t, output.Actions)
	assert.Empty(t, output.Actions)
}

// ==========================
// State Loading Tests
// ==========================

func TestExecute_LoadsStateFromStoreAndCaches(t *testing.T) {
	h, mock, mr := newTestHandler(t)

	mock.ExpectQuery(`SELECT id, legal_name, dba, phone, email, status FROM merchants`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "legal_name", "dba", "phone", "email", "status"}).
			AddRow("m-1", "Acme Bakery LLC", nil, nil, nil, "new"))
	mock.ExpectQuery(`SELECT field_id, value, last_verified_at FROM field_states`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"field_id", "value", "last_verified_at"}))
	mock.ExpectQuery(`SELECT statement_month, total_deposits, avg_daily_balance, ending_balance, nsf_count, days_negative FROM statement_metrics`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"statement_month", "total_deposits", "avg_daily_balance", "ending_balance", "nsf_count", "days_negative"}))

	output, err := h.execute(context.Background(), &Input{MerchantID: "m-1"})
	require.NoError(t, err)
	assert.Equal(t, "collect-ein", output.RuleID)

	assert.True(t, mr.Exists("merchant:state:m-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_UsesCachedState(t *testing.T) {
	h, mock, mr := newTestHandler(t)

	cached, err := json.Marshal(inlineState(models.MerchantStatusNew, map[string]models.FieldStatus{}))
	require.NoError(t, err)
	mr.Set("merchant:state:m-1", string(cached))

	output, err := h.execute(context.Background(), &Input{MerchantID: "m-1"})
	require.NoError(t, err)
	assert.Equal(t, "collect-ein", output.RuleID)

	// No database expectations were registered, so a DB hit would fail here.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_CacheFailureFallsBackToStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// A broken cache must not break rule matching.
	rdb, rmock := redismock.NewClientMock()
	rmock.ExpectGet("merchant:state:m-1").SetErr(errors.New("connection refused"))
	rmock.Regexp().ExpectSet("merchant:state:m-1", `.*`, time.Minute).SetVal("OK")

	h := NewHandler(createTestConfig(), testCatalog(), store.New(db), rdb, createTestLogger(t))

	mock.ExpectQuery(`SELECT id, legal_name, dba, phone, email, status FROM merchants`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "legal_name", "dba", "phone", "email", "status"}).
			AddRow("m-1", "Acme Bakery LLC", nil, nil, nil, "new"))
	mock.ExpectQuery(`SELECT field_id, value, last_verified_at FROM field_states`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"field_id", "value", "last_verified_at"}))
	mock.ExpectQuery(`SELECT statement_month, total_deposits, avg_daily_balance, ending_balance, nsf_count, days_negative FROM statement_metrics`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"statement_month", "total_deposits", "avg_daily_balance", "ending_balance", "nsf_count", "days_negative"}))

	output, err := h.execute(context.Background(), &Input{MerchantID: "m-1"})
	require.NoError(t, err)
	assert.Equal(t, "collect-ein", output.RuleID)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestExecute_MerchantNotFound(t *testing.T) {
	h, mock, _ := newTestHandler(t)

	mock.ExpectQuery(`SELECT id, legal_name, dba, phone, email, status FROM merchants`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "legal_name", "dba", "phone", "email", "status"}))

	_, err := h.execute(context.Background(), &Input{MerchantID: "missing"})
	assert.True(t, errors.Is(err, ErrMerchantNotFound))
}

func TestExecute_RequiresMerchantIDOrState(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{})
	assert.True(t, errors.Is(err, ErrMerchantNotFound))
}
