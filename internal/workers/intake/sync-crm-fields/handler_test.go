package synccrmfields

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
	"uwizard-workers/internal/common/pipedrive"
	"uwizard-workers/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

type stubCRM struct {
	configured bool
	org        *pipedrive.Organization
	err        error
}

func (s *stubCRM) IsConfigured() bool { return s.configured }

func (s *stubCRM) GetOrganization(ctx context.Context, orgID int) (*pipedrive.Organization, error) {
	return s.org, s.err
}

func newTestHandler(t *testing.T, crm CRMService) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &Config{Timeout: 5 * time.Second}
	h := NewHandler(cfg, crm, store.New(db), logger.NewZapAdapter(zaptest.NewLogger(t)))
	return h, mock
}

// ==========================
// Sync Tests
// ==========================

func TestExecute_SyncsPopulatedFields(t *testing.T) {
	crm := &stubCRM{
		configured: true,
		org: &pipedrive.Organization{
			ID:      42,
			Name:    "Acme Bakery LLC",
			Address: "1 Main St, Springfield",
			Phone:   []pipedrive.ContactValue{{Value: "+15555550100", Primary: true}},
			Email:   []pipedrive.ContactValue{{Value: "owner@acme.test", Primary: true}},
		},
	}
	h, mock := newTestHandler(t, crm)

	expected := []struct {
		fieldID string
		value   string
	}{
		{"business.legal_name", "Acme Bakery LLC"},
		{"business.address", "1 Main St, Springfield"},
		{"contact.phone", "+15555550100"},
		{"contact.email", "owner@acme.test"},
	}
	for _, e := range expected {
		mock.ExpectExec(`INSERT INTO field_states`).
			WithArgs("m-1", e.fieldID, e.value, "crm", 0.9, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	output, err := h.execute(context.Background(), &Input{MerchantID: "m-1", OrgID: 42})
	require.NoError(t, err)
	assert.Equal(t, []string{"business.legal_name", "business.address", "contact.phone", "contact.email"}, output.SyncedFields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_SkipsEmptyFields(t *testing.T) {
	crm := &stubCRM{
		configured: true,
		org: &pipedrive.Organization{
			ID:   42,
			Name: "Acme Bakery LLC",
		},
	}
	h, mock := newTestHandler(t, crm)

	mock.ExpectExec(`INSERT INTO field_states`).
		WithArgs("m-1", "business.legal_name", "Acme Bakery LLC", "crm", 0.9, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := h.execute(context.Background(), &Input{MerchantID: "m-1", OrgID: 42})
	require.NoError(t, err)
	assert.Equal(t, []string{"business.legal_name"}, output.SyncedFields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Failure Tests
// ==========================

func TestExecute_NotConfigured(t *testing.T) {
	h, _ := newTestHandler(t, &stubCRM{configured: false})

	_, err := h.execute(context.Background(), &Input{MerchantID: "m-1", OrgID: 42})
	assert.True(t, errors.Is(err, ErrCRMNotConfigured))
}

func TestExecute_RequiresMerchantAndOrg(t *testing.T) {
	h, _ := newTestHandler(t, &stubCRM{configured: true})

	_, err := h.execute(context.Background(), &Input{MerchantID: "m-1"})
	assert.True(t, errors.Is(err, ErrCRMSyncFailed))
}

func TestExecute_WrapsAPIFailure(t *testing.T) {
	h, _ := newTestHandler(t, &stubCRM{configured: true, err: errors.New("pipedrive: 401 unauthorized")})

	_, err := h.execute(context.Background(), &Input{MerchantID: "m-1", OrgID: 42})
	assert.True(t, errors.Is(err, ErrCRMSyncFailed))
	assert.Contains(t, err.Error(), "unauthorized")
}
