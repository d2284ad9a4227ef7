// internal/decision/rules/engine_test.go
package rules

import (
	"testing"
	"time"

	"uwizard-workers/internal/decision/conditions"
	"uwizard-workers/internal/decision/fields"
	"uwizard-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	eval := conditions.NewEvaluatorAt(fields.Builtin(), func() time.Time { return testNow })
	return NewEngine(eval)
}

func newMerchantState() models.MerchantState {
	return models.MerchantState{
		MerchantID: "merchant-123",
		Status:     models.MerchantStatusNew,
		Fields:     map[string]models.FieldStatus{},
	}
}

func alwaysRule(id string, priority int, enabled bool) models.Rule {
	return models.Rule{
		ID:       id,
		Name:     id,
		Priority: priority,
		Enabled:  enabled,
		When:     models.AndCondition{},
		Then:     []models.Action{models.MessageAction{TemplateID: "tpl-" + id}},
	}
}

func neverRule(id string, priority int) models.Rule {
	return models.Rule{
		ID:       id,
		Name:     id,
		Priority: priority,
		Enabled:  true,
		When:     models.OrCondition{},
		Then:     []models.Action{models.MessageAction{TemplateID: "tpl-" + id}},
	}
}

// ==========================
// Match Tests
// ==========================

func TestEngine_Match_FirstMatchWins(t *testing.T) {
	engine := newTestEngine()

	// Both rules match; only the lower priority fires, never a merge.
	result := engine.Match([]models.Rule{
		alwaysRule("second", 20, true),
		alwaysRule("first", 10, true),
	}, newMerchantState())

	require.NotNil(t, result.Matched)
	assert.Equal(t, "first", result.Matched.ID)
	require.Len(t, result.Actions, 1)
	assert.Equal(t, models.MessageAction{TemplateID: "tpl-first"}, result.Actions[0])
}

func TestEngine_Match_TiesKeepInsertionOrder(t *testing.T) {
	engine := newTestEngine()

	result := engine.Match([]models.Rule{
		alwaysRule("inserted-first", 10, true),
		alwaysRule("inserted-second", 10, true),
	}, newMerchantState())

	require.NotNil(t, result.Matched)
	assert.Equal(t, "inserted-first", result.Matched.ID)
}

func TestEngine_Match_SkipsDisabled(t *testing.T) {
	engine := newTestEngine()

	result := engine.Match([]models.Rule{
		alwaysRule("disabled", 1, false),
		alwaysRule("enabled", 2, true),
	}, newMerchantState())

	require.NotNil(t, result.Matched)
	assert.Equal(t, "enabled", result.Matched.ID)
}

func TestEngine_Match_NoMatchIsValidOutcome(t *testing.T) {
	engine := newTestEngine()

	result := engine.Match([]models.Rule{
		neverRule("r1", 1),
		alwaysRule("disabled", 2, false),
	}, newMerchantState())

	assert.Nil(t, result.Matched)
	assert.Empty(t, result.Actions)
	assert.NotNil(t, result.Actions)
}

func TestEngine_Match_EmptyCatalog(t *testing.T) {
	engine := newTestEngine()

	result := engine.Match(nil, newMerchantState())

	assert.Nil(t, result.Matched)
	assert.Empty(t, result.Actions)
}

func TestEngine_Match_ConditionDrivenSelection(t *testing.T) {
	engine := newTestEngine()

	askSSN := models.Rule{
		ID:       "ask-ssn",
		Name:     "Ask for SSN last four",
		Priority: 10,
		Enabled:  true,
		When:     models.MissingAnyCondition{Fields: []string{"owner.ssn_last4"}},
		Then: []models.Action{
			models.MessageAction{TemplateID: "need_ssn"},
			models.AskAction{Fields: []string{"owner.ssn_last4"}},
		},
	}
	offerPath := models.Rule{
		ID:       "generate-offers",
		Name:     "Underwrite when identity complete",
		Priority: 20,
		Enabled:  true,
		When:     models.NotExpiredAllCondition{Fields: []string{"owner.ssn_last4"}},
		Then:     []models.Action{models.GenerateOffersAction{}},
	}
	catalog := []models.Rule{askSSN, offerPath}

	state := newMerchantState()
	result := engine.Match(catalog, state)
	require.NotNil(t, result.Matched)
	assert.Equal(t, "ask-ssn", result.Matched.ID)
	assert.Len(t, result.Actions, 2)

	ssn := "1234"
	verified := testNow.AddDate(0, 0, -3)
	state.Fields["owner.ssn_last4"] = models.FieldStatus{Value: &ssn, LastVerifiedAt: &verified}

	result = engine.Match(catalog, state)
	require.NotNil(t, result.Matched)
	assert.Equal(t, "generate-offers", result.Matched.ID)
	assert.Equal(t, []models.Action{models.GenerateOffersAction{}}, result.Actions)
}

func TestEngine_Match_DoesNotMutateInput(t *testing.T) {
	engine := newTestEngine()

	catalog := []models.Rule{
		alwaysRule("b", 2, true),
		alwaysRule("a", 1, true),
	}
	engine.Match(catalog, newMerchantState())

	assert.Equal(t, "b", catalog[0].ID)
	assert.Equal(t, "a", catalog[1].ID)
}

// ==========================
// Catalog Mutation Tests
// ==========================

func TestCatalog_AddUpdateDelete(t *testing.T) {
	cat := NewCatalog(nil)

	require.NoError(t, cat.Add(alwaysRule("r1", 1, true)))
	assert.Error(t, cat.Add(alwaysRule("r1", 5, true)))

	updated := alwaysRule("r1", 1, true)
	updated.Name = "renamed"
	require.NoError(t, cat.Update(updated))
	got, ok := cat.Get("r1")
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Name)

	assert.Error(t, cat.Update(alwaysRule("ghost", 1, true)))

	require.NoError(t, cat.Delete("r1"))
	assert.Error(t, cat.Delete("r1"))
	_, ok = cat.Get("r1")
	assert.False(t, ok)
}

func TestCatalog_SetEnabled(t *testing.T) {
	cat := NewCatalog([]models.Rule{alwaysRule("r1", 1, true)})

	require.NoError(t, cat.SetEnabled("r1", false))
	got, _ := cat.Get("r1")
	assert.False(t, got.Enabled)

	assert.Error(t, cat.SetEnabled("ghost", false))
}

func TestCatalog_Reorder(t *testing.T) {
	cat := NewCatalog([]models.Rule{
		alwaysRule("a", 1, true),
		alwaysRule("b", 2, true),
		alwaysRule("c", 3, true),
		alwaysRule("d", 4, true),
	})

	// Pull d and b to the front; a and c keep their relative order behind.
	require.NoError(t, cat.Reorder([]string{"d", "b"}))

	snapshot := cat.Snapshot()
	ids := []string{}
	priorities := []int{}
	for _, r := range snapshot {
		ids = append(ids, r.ID)
		priorities = append(priorities, r.Priority)
	}
	assert.Equal(t, []string{"d", "b", "a", "c"}, ids)
	assert.Equal(t, []int{1, 2, 3, 4}, priorities)
}

func TestCatalog_Reorder_Errors(t *testing.T) {
	cat := NewCatalog([]models.Rule{alwaysRule("a", 1, true)})

	assert.Error(t, cat.Reorder([]string{"ghost"}))
	require.NoError(t, cat.Add(alwaysRule("b", 2, true)))
	assert.Error(t, cat.Reorder([]string{"a", "a"}))
}

func TestCatalog_SnapshotIsolation(t *testing.T) {
	cat := NewCatalog([]models.Rule{alwaysRule("a", 1, true)})

	snapshot := cat.Snapshot()
	require.NoError(t, cat.SetEnabled("a", false))

	assert.True(t, snapshot[0].Enabled)
}
