package rendertemplate

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
	"uwizard-workers/internal/decision/templates"
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

	catalog := templates.NewCatalog([]models.Template{
		{ID: "greeting", Label: "Greeting", Text: "Hello {{business.legal_name}}, welcome back."},
		{ID: "ask_ein", Label: "Ask for EIN", Text: "We do not have your EIN on file. What is it?"},
	})

	cfg := &Config{Timeout: 5 * time.Second}
	h := NewHandler(cfg, catalog, store.New(db), logger.NewZapAdapter(zaptest.NewLogger(t)))
	return h, mock
}

func strPtr(s string) *string { return &s }

// ==========================
// Rendering Tests
// ==========================

func TestExecute_RendersWithInlineState(t *testing.T) {
	h, _ := newTestHandler(t)

	state := &models.MerchantState{
		MerchantID: "m-1",
		Status:     models.MerchantStatusExisting,
		Fields: map[string]models.FieldStatus{
			"business.legal_name": {Value: strPtr("Acme Bakery LLC")},
		},
	}

	output, err := h.execute(context.Background(), &Input{
		MerchantID: "m-1",
		TemplateID: "greeting",
		State:      state,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Acme Bakery LLC, welcome back.", output.Text)
	assert.Equal(t, "greeting", output.TemplateID)
}

func TestExecute_DefaultPersonaContractsText(t *testing.T) {
	h, _ := newTestHandler(t)

	output, err := h.execute(context.Background(), &Input{
		TemplateID: "ask_ein",
		State:      &models.MerchantState{MerchantID: "m-1", Fields: map[string]models.FieldStatus{}},
	})
	require.NoError(t, err)
	assert.Contains(t, output.Text, "don't")
}

func TestExecute_ExplicitPersonaOverridesDefault(t *testing.T) {
	h, _ := newTestHandler(t)

	professional := &models.Persona{
		Style:        models.StyleProfessional,
		ReadingLevel: models.Reading8th,
		Emoji:        models.EmojiLow,
	}

	output, err := h.execute(context.Background(), &Input{
		TemplateID: "ask_ein",
		Persona:    professional,
		State:      &models.MerchantState{MerchantID: "m-1", Fields: map[string]models.FieldStatus{}},
	})
	require.NoError(t, err)
	assert.Contains(t, output.Text, "do not")
	assert.NotContains(t, output.Text, "don't")
}

func TestExecute_UnknownTemplate(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.execute(context.Background(), &Input{
		TemplateID: "nope",
		State:      &models.MerchantState{Fields: map[string]models.FieldStatus{}},
	})
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

// ==========================
// State Loading Tests
// ==========================

func TestExecute_LoadsStateFromStore(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT id, legal_name, dba, phone, email, status FROM merchants`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "legal_name", "dba", "phone", "email", "status"}).
			AddRow("m-1", "Acme Bakery LLC", nil, nil, nil, "existing"))
	mock.ExpectQuery(`SELECT field_id, value, last_verified_at FROM field_states`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"field_id", "value", "last_verified_at"}).
			AddRow("business.legal_name", "Acme Bakery LLC", time.Now().UTC()))
	mock.ExpectQuery(`SELECT statement_month, total_deposits, avg_daily_balance, ending_balance, nsf_count, days_negative FROM statement_metrics`).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"statement_month", "total_deposits", "avg_daily_balance", "ending_balance", "nsf_count", "days_negative"}))

	output, err := h.execute(context.Background(), &Input{MerchantID: "m-1", TemplateID: "greeting"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Acme Bakery LLC, welcome back.", output.Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_MerchantNotFound(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT id, legal_name, dba, phone, email, status FROM merchants`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "legal_name", "dba", "phone", "email", "status"}))

	_, err := h.execute(context.Background(), &Input{MerchantID: "missing", TemplateID: "greeting"})
	assert.True(t, errors.Is(err, ErrMerchantNotFound))
}
