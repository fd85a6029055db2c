package models

import (
	"time"

	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// RuleType says how a targeting rule matches a user.
type RuleType string

const (
	// RuleTypeSpecific matches one exact normalized identity.
	RuleTypeSpecific RuleType = "specific"
	// RuleTypeGroup matches every member of a named group.
	RuleTypeGroup RuleType = "group"
	// RuleTypeDefault matches everyone. By convention its target is "*".
	RuleTypeDefault RuleType = "default"
)

func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypeSpecific, RuleTypeGroup, RuleTypeDefault:
		return true
	}
	return false
}

// Rule routes a user to a policy document version.
//
// Invariants:
//   - Type is one of specific, group, default
//   - specific and group rules carry a non-empty TargetValue
//   - DocumentID is non-nil
//
// Rules coming out of storage may still violate these (an admin edit raced a
// document delete, a migration left an empty target); the evaluator skips
// such entries instead of failing the whole resolution.
type Rule struct {
	ID          domain.RuleID   `json:"id"`
	Priority    int             `json:"priority"`
	Type        RuleType        `json:"rule_type"`
	TargetValue string          `json:"target_value"`
	DocumentID  domain.DocumentID `json:"document_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewRule validates and constructs a Rule. A default rule with an empty
// target gets the conventional "*".
func NewRule(id domain.RuleID, priority int, ruleType RuleType, targetValue string, documentID domain.DocumentID, now time.Time) (*Rule, error) {
	if !ruleType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown rule type %q", ruleType)
	}
	if documentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "rule must reference a document")
	}
	switch ruleType {
	case RuleTypeSpecific, RuleTypeGroup:
		if targetValue == "" {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s rule requires a target value", ruleType)
		}
	case RuleTypeDefault:
		if targetValue == "" {
			targetValue = "*"
		}
	}
	return &Rule{
		ID:          id,
		Priority:    priority,
		Type:        ruleType,
		TargetValue: targetValue,
		DocumentID:  documentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// WellFormed reports whether the rule can participate in evaluation.
func (r Rule) WellFormed() bool {
	if !r.Type.IsValid() || r.DocumentID.IsNil() {
		return false
	}
	if r.Type != RuleTypeDefault && r.TargetValue == "" {
		return false
	}
	return true
}
