package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yinyom/internal/consent/store/record"
	"yinyom/internal/identity"
	policymodels "yinyom/internal/policy/models"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
	"yinyom/pkg/platform/audit"
)

const validThaiID = "1112034563562"

// fixedResolver hands back one document for everyone, like a tenant with a
// single active policy and no targeting rules.
type fixedResolver struct {
	doc *policymodels.Document
	err error
}

func (r *fixedResolver) ResolveVersion(ctx context.Context, identity, userGroup string, userType domain.UserType, language domain.Language) (*policymodels.Document, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.doc, nil
}

// failingAuditor always errors, to exercise fail-open behavior.
type failingAuditor struct{}

func (failingAuditor) Emit(ctx context.Context, event audit.Event) error {
	return errors.New("kafka unreachable")
}

func testDoc(t *testing.T) *policymodels.Document {
	t.Helper()
	doc, err := policymodels.NewDocument(domain.NewDocumentID(), "1.0", domain.UserTypeCustomer, domain.LanguageThai, "Policy", "body", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	doc.IsActive = true
	return doc
}

func acceptReq(raw string) AcceptRequest {
	return AcceptRequest{
		RawIdentity: raw,
		UserType:    domain.UserTypeCustomer,
		Language:    domain.LanguageThai,
		IPAddress:   "203.0.113.7",
		UserAgent:   "test-agent",
		RequestID:   "req-1",
	}
}

func TestAccept(t *testing.T) {
	ctx := context.Background()

	t.Run("records a consent without the raw identity", func(t *testing.T) {
		doc := testDoc(t)
		auditor := audit.NewMemory()
		svc := New(record.NewInMemory(), &fixedResolver{doc: doc}, WithAuditPublisher(auditor))

		res, err := svc.Accept(ctx, acceptReq("1-1120-34563-56-2"))
		require.NoError(t, err)
		assert.False(t, res.AlreadyAccepted)
		assert.Equal(t, doc.ID, res.Record.DocumentID)
		assert.Equal(t, "1.0", res.Record.DocumentVersion)
		assert.Equal(t, identity.KindThaiID, res.Record.IdentityKind)

		// Only the masked form and the hash survive.
		assert.Equal(t, "*-****-*****-**-2", res.Record.MaskedIdentity)
		assert.Equal(t, identity.Hash(validThaiID), res.Record.IdentityHash)
		assert.NotContains(t, res.Record.MaskedIdentity, validThaiID)

		events := auditor.Events()
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionConsentGranted, events[0].Action)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.Equal(t, identity.Hash(validThaiID), events[0].SubjectIDHash)
	})

	t.Run("invalid identity is rejected before resolution", func(t *testing.T) {
		svc := New(record.NewInMemory(), &fixedResolver{err: errors.New("resolver must not be called")})
		_, err := svc.Accept(ctx, acceptReq("1101700230705"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("second accept of the same document is idempotent", func(t *testing.T) {
		doc := testDoc(t)
		auditor := audit.NewMemory()
		svc := New(record.NewInMemory(), &fixedResolver{doc: doc}, WithAuditPublisher(auditor))

		first, err := svc.Accept(ctx, acceptReq(validThaiID))
		require.NoError(t, err)

		// Different formatting of the same ID still dedupes.
		second, err := svc.Accept(ctx, acceptReq("1-1120-34563-56-2"))
		require.NoError(t, err)
		assert.True(t, second.AlreadyAccepted)
		assert.Equal(t, first.Record.ID, second.Record.ID)

		assert.Len(t, auditor.Events(), 1, "no second audit event for a duplicate")
	})

	t.Run("passport identities work end to end", func(t *testing.T) {
		doc := testDoc(t)
		svc := New(record.NewInMemory(), &fixedResolver{doc: doc})

		res, err := svc.Accept(ctx, acceptReq("ab 123-4567"))
		require.NoError(t, err)
		assert.Equal(t, identity.KindPassport, res.Record.IdentityKind)
		assert.Equal(t, identity.Hash("AB1234567"), res.Record.IdentityHash)
	})

	t.Run("resolver failure propagates", func(t *testing.T) {
		svc := New(record.NewInMemory(), &fixedResolver{err: dErrors.New(dErrors.CodeNotFound, "no active policy for this audience")})
		_, err := svc.Accept(ctx, acceptReq(validThaiID))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("audit outage does not block the accept", func(t *testing.T) {
		doc := testDoc(t)
		svc := New(record.NewInMemory(), &fixedResolver{doc: doc}, WithAuditPublisher(failingAuditor{}))

		res, err := svc.Accept(ctx, acceptReq(validThaiID))
		require.NoError(t, err)
		assert.NotNil(t, res.Record)
	})
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	doc := testDoc(t)
	svc := New(record.NewInMemory(), &fixedResolver{doc: doc})

	_, err := svc.Accept(ctx, acceptReq(validThaiID))
	require.NoError(t, err)

	t.Run("finds consents under any formatting of the identity", func(t *testing.T) {
		recs, err := svc.Lookup(ctx, "1-1120-34563-56-2")
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, doc.ID, recs[0].DocumentID)
	})

	t.Run("unknown identity returns empty, not an error", func(t *testing.T) {
		recs, err := svc.Lookup(ctx, "AB1234567")
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("invalid identity is a validation error", func(t *testing.T) {
		_, err := svc.Lookup(ctx, "12345")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
