package models

import (
	"time"

	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// Document is one version of a consent policy for a (user type, language)
// audience pair.
//
// Invariants:
//   - Version is non-empty, at most 32 characters (free-form: "1.0", "2.1.3")
//   - Content is non-empty
//   - CreatedAt is immutable after construction
//
// # Active-version invariant
//
// In steady state at most one document per (UserType, Language) pair has
// IsActive set. Activation enforces this at the store layer by deactivating
// siblings in the same transaction. The data can transiently violate it
// (concurrent admin edits, partial imports), so readers take the most
// recently updated active document rather than assuming uniqueness.
type Document struct {
	ID        domain.DocumentID `json:"id"`
	Version   string            `json:"version"`
	UserType  domain.UserType   `json:"user_type"`
	Language  domain.Language   `json:"language"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewDocument validates invariants and constructs an inactive Document.
// Activation is a separate, deliberate admin step.
func NewDocument(id domain.DocumentID, version string, userType domain.UserType, language domain.Language, title, content string, now time.Time) (*Document, error) {
	if version == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document version cannot be empty")
	}
	if len(version) > 32 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document version must be 32 characters or less")
	}
	if content == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document content cannot be empty")
	}
	return &Document{
		ID:        id,
		Version:   version,
		UserType:  userType,
		Language:  language,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Filter narrows admin document listings.
type Filter struct {
	UserType   domain.UserType
	Language   domain.Language
	ActiveOnly bool
}
