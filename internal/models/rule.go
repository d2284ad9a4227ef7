// internal/models/rule.go
package models

import (
	"encoding/json"
	"fmt"
)

// Condition is a closed set of boolean checks over a MerchantState. Every
// variant lives in this file; the evaluator matches exhaustively on the
// concrete types.
type Condition interface {
	isCondition()
}

const (
	CondEquals        = "equals"
	CondMissingAny    = "missingAny"
	CondExpiredAny    = "expiredAny"
	CondNotExpiredAll = "notExpiredAll"
	CondAnd           = "and"
	CondOr            = "or"
)

// EqualsCondition compares a stored field value (or a synthetic path such as
// merchant.status) against a literal.
type EqualsCondition struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// MissingAnyCondition is true when at least one listed field has no value.
type MissingAnyCondition struct {
	Fields []string `json:"fields"`
}

// ExpiredAnyCondition is true when at least one listed field is stale per
// its registry expiry window.
type ExpiredAnyCondition struct {
	Fields []string `json:"fields"`
}

// NotExpiredAllCondition is true only when every listed field exists and is
// fresh. Missing fields fail the check.
type NotExpiredAllCondition struct {
	Fields []string `json:"fields"`
}

// AndCondition is true when all children are true. An empty list is true.
type AndCondition struct {
	Conditions []Condition `json:"conditions"`
}

// OrCondition is true when any child is true. An empty list is false.
type OrCondition struct {
	Conditions []Condition `json:"conditions"`
}

func (EqualsCondition) isCondition()        {}
func (MissingAnyCondition) isCondition()    {}
func (ExpiredAnyCondition) isCondition()    {}
func (NotExpiredAllCondition) isCondition() {}
func (AndCondition) isCondition()           {}
func (OrCondition) isCondition()            {}

func (c EqualsCondition) MarshalJSON() ([]byte, error) {
	type alias EqualsCondition
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{CondEquals, alias(c)})
}

func (c MissingAnyCondition) MarshalJSON() ([]byte, error) {
	type alias MissingAnyCondition
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{CondMissingAny, alias(c)})
}

func (c ExpiredAnyCondition) MarshalJSON() ([]byte, error) {
	type alias ExpiredAnyCondition
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{CondExpiredAny, alias(c)})
}

func (c NotExpiredAllCondition) MarshalJSON() ([]byte, error) {
	type alias NotExpiredAllCondition
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{CondNotExpiredAll, alias(c)})
}

func (c AndCondition) MarshalJSON() ([]byte, error) {
	children, err := marshalConditions(c.Conditions)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Kind       string            `json:"kind"`
		Conditions []json.RawMessage `json:"conditions"`
	}{CondAnd, children})
}

func (c OrCondition) MarshalJSON() ([]byte, error) {
	children, err := marshalConditions(c.Conditions)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Kind       string            `json:"kind"`
		Conditions []json.RawMessage `json:"conditions"`
	}{CondOr, children})
}

func marshalConditions(conds []Condition) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(conds))
	for _, c := range conds {
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

// DecodeCondition parses one condition node from its kind-tagged JSON form.
// An unrecognized kind is a hard input error; callers validate shapes at the
// boundary so the evaluator stays total.
func DecodeCondition(raw json.RawMessage) (Condition, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("condition node is not an object: %w", err)
	}
	switch probe.Kind {
	case CondEquals:
		var c EqualsCondition
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case CondMissingAny:
		var c MissingAnyCondition
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case CondExpiredAny:
		var c ExpiredAnyCondition
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case CondNotExpiredAll:
		var c NotExpiredAllCondition
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case CondAnd, CondOr:
		var node struct {
			Conditions []json.RawMessage `json:"conditions"`
		}
		if err := json.Unmarshal(raw, &node); err != nil {
			return nil, err
		}
		children := make([]Condition, 0, len(node.Conditions))
		for _, childRaw := range node.Conditions {
			child, err := DecodeCondition(childRaw)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if probe.Kind == CondAnd {
			return AndCondition{Conditions: children}, nil
		}
		return OrCondition{Conditions: children}, nil
	default:
		return nil, fmt.Errorf("unknown condition kind %q", probe.Kind)
	}
}

// Action is a closed set of inert instructions a matched rule emits.
// Executing the side effects belongs to the caller.
type Action interface {
	isAction()
}

const (
	ActMessage          = "message"
	ActAsk              = "ask"
	ActConfirm          = "confirm"
	ActSetPersona       = "setPersona"
	ActAskForStatements = "askForStatements"
	ActStartPlaid       = "startPlaid"
	ActGenerateOffers   = "generateOffers"
	ActScheduleFollowUp = "scheduleFollowUp"
)

// MessageAction renders and sends the referenced template.
type MessageAction struct {
	TemplateID string `json:"templateId"`
}

// AskAction requests values for the listed fields.
type AskAction struct {
	Fields []string `json:"fields"`
}

// ConfirmAction asks the merchant to re-confirm stale values.
type ConfirmAction struct {
	Fields []string `json:"fields"`
}

// SetPersonaAction switches the conversation style.
type SetPersonaAction struct {
	Style PersonaStyle `json:"style"`
}

// AskForStatementsAction requests bank statement uploads.
type AskForStatementsAction struct{}

// StartPlaidAction kicks off a Plaid link flow.
type StartPlaidAction struct{}

// GenerateOffersAction triggers offer underwriting on current metrics.
type GenerateOffersAction struct{}

// ScheduleFollowUpAction books a follow-up after the given number of days.
type ScheduleFollowUpAction struct {
	Days int `json:"days"`
}

func (MessageAction) isAction()          {}
func (AskAction) isAction()              {}
func (ConfirmAction) isAction()          {}
func (SetPersonaAction) isAction()       {}
func (AskForStatementsAction) isAction() {}
func (StartPlaidAction) isAction()       {}
func (GenerateOffersAction) isAction()   {}
func (ScheduleFollowUpAction) isAction() {}

func (a MessageAction) MarshalJSON() ([]byte, error) {
	type alias MessageAction
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{ActMessage, alias(a)})
}

func (a AskAction) MarshalJSON() ([]byte, error) {
	type alias AskAction
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{ActAsk, alias(a)})
}

func (a ConfirmAction) MarshalJSON() ([]byte, error) {
	type alias ConfirmAction
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{ActConfirm, alias(a)})
}

func (a SetPersonaAction) MarshalJSON() ([]byte, error) {
	type alias SetPersonaAction
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{ActSetPersona, alias(a)})
}

func (a AskForStatementsAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
	}{ActAskForStatements})
}

func (a StartPlaidAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
	}{ActStartPlaid})
}

func (a GenerateOffersAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
	}{ActGenerateOffers})
}

func (a ScheduleFollowUpAction) MarshalJSON() ([]byte, error) {
	type alias ScheduleFollowUpAction
	return json.Marshal(struct {
		Kind string `json:"kind"`
		alias
	}{ActScheduleFollowUp, alias(a)})
}

// DecodeAction parses one action from its kind-tagged JSON form.
func DecodeAction(raw json.RawMessage) (Action, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("action node is not an object: %w", err)
	}
	switch probe.Kind {
	case ActMessage:
		var a MessageAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActAsk:
		var a AskAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActConfirm:
		var a ConfirmAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActSetPersona:
		var a SetPersonaAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActAskForStatements:
		return AskForStatementsAction{}, nil
	case ActStartPlaid:
		return StartPlaidAction{}, nil
	case ActGenerateOffers:
		return GenerateOffersAction{}, nil
	case ActScheduleFollowUp:
		var a ScheduleFollowUpAction
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", probe.Kind)
	}
}

// Rule is operator-authored decision data. Lower priority sorts first;
// ties keep insertion order.
type Rule struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Priority int       `json:"priority"`
	Enabled  bool      `json:"enabled"`
	When     Condition `json:"when"`
	Then     []Action  `json:"then"`
}

// ReferencedTemplates lists the template ids this rule's actions render.
func (r Rule) ReferencedTemplates() []string {
	var ids []string
	for _, act := range r.Then {
		if msg, ok := act.(MessageAction); ok {
			ids = append(ids, msg.TemplateID)
		}
	}
	return ids
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var shadow struct {
		ID       string            `json:"id"`
		Name     string            `json:"name"`
		Priority int               `json:"priority"`
		Enabled  bool              `json:"enabled"`
		When     json.RawMessage   `json:"when"`
		Then     []json.RawMessage `json:"then"`
	}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	r.ID = shadow.ID
	r.Name = shadow.Name
	r.Priority = shadow.Priority
	r.Enabled = shadow.Enabled
	if len(shadow.When) > 0 {
		cond, err := DecodeCondition(shadow.When)
		if err != nil {
			return fmt.Errorf("rule %s: %w", shadow.ID, err)
		}
		r.When = cond
	}
	r.Then = make([]Action, 0, len(shadow.Then))
	for _, rawAct := range shadow.Then {
		act, err := DecodeAction(rawAct)
		if err != nil {
			return fmt.Errorf("rule %s: %w", shadow.ID, err)
		}
		r.Then = append(r.Then, act)
	}
	return nil
}
