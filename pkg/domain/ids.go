// Package domain holds the shared vocabulary of the consent platform: typed
// identifiers, user types, and languages. Types here are pure values with no
// I/O; validation happens in Parse constructors at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "yinyom/pkg/domain-errors"
)

// Typed IDs prevent cross-entity assignment at compile time. Construct via
// the New/Parse helpers; direct casting bypasses validation.
type (
	// DocumentID identifies a policy document version.
	DocumentID uuid.UUID

	// RuleID identifies a targeting rule.
	RuleID uuid.UUID

	// ConsentID identifies a stored consent record.
	ConsentID uuid.UUID
)

func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }
func NewRuleID() RuleID         { return RuleID(uuid.New()) }
func NewConsentID() ConsentID   { return ConsentID(uuid.New()) }

func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id RuleID) String() string     { return uuid.UUID(id).String() }
func (id ConsentID) String() string  { return uuid.UUID(id).String() }

func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RuleID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ConsentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// ParseDocumentID parses external input into a DocumentID.
// Errors: CodeInvalidInput when empty, malformed, or the nil UUID.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID(u), nil
}

// ParseRuleID parses external input into a RuleID.
func ParseRuleID(s string) (RuleID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return RuleID{}, err
	}
	return RuleID(u), nil
}

// ParseConsentID parses external input into a ConsentID.
func ParseConsentID(s string) (ConsentID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ConsentID{}, err
	}
	return ConsentID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
