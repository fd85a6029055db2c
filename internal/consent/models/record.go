package models

import (
	"time"

	"yinyom/internal/identity"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// Record captures one person's acceptance of one policy document version.
//
// The raw identity never reaches storage: MaskedIdentity is the display-safe
// form, IdentityHash the SHA-256 of the normalized identity used for lookups
// and deduplication.
//
// Invariants:
//   - IdentityHash is non-empty
//   - IdentityKind is thai_id or passport (a record for an invalid identity
//     cannot exist; validation gates the Accept flow)
//   - DocumentID and DocumentVersion reference the accepted version
type Record struct {
	ID              domain.ConsentID  `json:"id"`
	IdentityKind    identity.Kind     `json:"identity_kind"`
	MaskedIdentity  string            `json:"masked_identity"`
	IdentityHash    string            `json:"-"`
	UserType        domain.UserType   `json:"user_type"`
	Language        domain.Language   `json:"language"`
	DocumentID      domain.DocumentID `json:"document_id"`
	DocumentVersion string            `json:"document_version"`
	AcceptedAt      time.Time         `json:"accepted_at"`
	IPAddress       string            `json:"ip_address,omitempty"`
	UserAgent       string            `json:"user_agent,omitempty"`
}

// NewRecord validates invariants and constructs a Record.
func NewRecord(id domain.ConsentID, kind identity.Kind, masked, hash string, userType domain.UserType, language domain.Language, documentID domain.DocumentID, documentVersion string, acceptedAt time.Time, ipAddress, userAgent string) (*Record, error) {
	if kind != identity.KindThaiID && kind != identity.KindPassport {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "consent requires a validated identity")
	}
	if hash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identity hash cannot be empty")
	}
	if documentID.IsNil() || documentVersion == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "consent must reference a document version")
	}
	return &Record{
		ID:              id,
		IdentityKind:    kind,
		MaskedIdentity:  masked,
		IdentityHash:    hash,
		UserType:        userType,
		Language:        language,
		DocumentID:      documentID,
		DocumentVersion: documentVersion,
		AcceptedAt:      acceptedAt,
		IPAddress:       ipAddress,
		UserAgent:       userAgent,
	}, nil
}

// Filter narrows admin listings and exports.
type Filter struct {
	UserType domain.UserType
	Language domain.Language
	From     time.Time
	To       time.Time
}
