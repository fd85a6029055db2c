package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"yinyom/internal/consent/export"
	"yinyom/internal/consent/metrics"
	"yinyom/internal/consent/models"
	"yinyom/internal/identity"
	policymodels "yinyom/internal/policy/models"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
	"yinyom/pkg/platform/audit"
)

// RecordStore is the persistence boundary for consent records.
type RecordStore interface {
	Create(ctx context.Context, rec *models.Record) error
	FindByHashAndDocument(ctx context.Context, hash string, docID domain.DocumentID) (*models.Record, error)
	ListByHash(ctx context.Context, hash string) ([]models.Record, error)
	List(ctx context.Context, filter models.Filter) ([]models.Record, error)
}

// VersionResolver picks the document a user must consent to. Implemented by
// the targeting service.
type VersionResolver interface {
	ResolveVersion(ctx context.Context, identity, userGroup string, userType domain.UserType, language domain.Language) (*policymodels.Document, error)
}

// AuditPublisher receives compliance events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AcceptRequest carries everything the accept flow needs. RawIdentity is the
// user-entered string; normalization happens inside.
type AcceptRequest struct {
	RawIdentity string
	UserGroup   string
	UserType    domain.UserType
	Language    domain.Language
	IPAddress   string
	UserAgent   string
	RequestID   string
}

// AcceptResult returns the stored record and the document it covers.
type AcceptResult struct {
	Record   *models.Record
	Document *policymodels.Document
	// AlreadyAccepted is set when an identical consent existed; the accept
	// is idempotent and the prior record is returned.
	AlreadyAccepted bool
}

// Service orchestrates the consent flow and admin record access.
type Service struct {
	records  RecordStore
	resolver VersionResolver
	auditor  AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service.
func New(records RecordStore, resolver VersionResolver, opts ...Option) *Service {
	s := &Service{
		records:  records,
		resolver: resolver,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accept runs the full consent flow: validate the identity, resolve the
// applicable document version, persist the record, emit the audit event.
// Accepting the same document twice with the same identity is idempotent.
func (s *Service) Accept(ctx context.Context, req AcceptRequest) (*AcceptResult, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.AcceptDuration.Observe(time.Since(start).Seconds())
		}
	}()

	vr := identity.Validate(req.RawIdentity)
	if !vr.Valid {
		if s.metrics != nil {
			s.metrics.RejectedIdentities.Inc()
		}
		return nil, dErrors.New(dErrors.CodeValidation, vr.Err)
	}

	doc, err := s.resolver.ResolveVersion(ctx, vr.Normalized, req.UserGroup, req.UserType, req.Language)
	if err != nil {
		return nil, err
	}

	hash := identity.Hash(vr.Normalized)
	if existing, err := s.records.FindByHashAndDocument(ctx, hash, doc.ID); err == nil {
		if s.metrics != nil {
			s.metrics.DuplicateAccepts.Inc()
		}
		return &AcceptResult{Record: existing, Document: doc, AlreadyAccepted: true}, nil
	} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}

	rec, err := models.NewRecord(
		domain.NewConsentID(), vr.Kind, identity.Mask(vr.Normalized, vr.Kind), hash,
		req.UserType, req.Language, doc.ID, doc.Version, s.now(),
		req.IPAddress, req.UserAgent,
	)
	if err != nil {
		return nil, err
	}

	if err := s.records.Create(ctx, rec); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			// Lost a race with an identical accept; fetch and return it.
			if existing, ferr := s.records.FindByHashAndDocument(ctx, hash, doc.ID); ferr == nil {
				return &AcceptResult{Record: existing, Document: doc, AlreadyAccepted: true}, nil
			}
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ConsentsRecorded.WithLabelValues(string(rec.IdentityKind)).Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:        audit.CategoryCompliance,
		Action:          audit.ActionConsentGranted,
		Timestamp:       rec.AcceptedAt,
		RequestID:       req.RequestID,
		SubjectIDHash:   hash,
		UserType:        req.UserType.String(),
		Language:        req.Language.String(),
		DocumentID:      doc.ID.String(),
		DocumentVersion: doc.Version,
	})
	s.logger.InfoContext(ctx, "consent recorded",
		"consent_id", rec.ID.String(),
		"identity_kind", string(rec.IdentityKind),
		"document_id", doc.ID.String(),
		"document_version", doc.Version,
	)
	return &AcceptResult{Record: rec, Document: doc}, nil
}

// Lookup returns every consent the given raw identity has granted.
func (s *Service) Lookup(ctx context.Context, rawIdentity string) ([]models.Record, error) {
	vr := identity.Validate(rawIdentity)
	if !vr.Valid {
		return nil, dErrors.New(dErrors.CodeValidation, vr.Err)
	}
	return s.records.ListByHash(ctx, identity.Hash(vr.Normalized))
}

// ListRecords is the admin listing with filters.
func (s *Service) ListRecords(ctx context.Context, filter models.Filter) ([]models.Record, error) {
	return s.records.List(ctx, filter)
}

// ExportFormat names an admin export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// Export streams filtered records to w in the requested format.
func (s *Service) Export(ctx context.Context, w io.Writer, filter models.Filter, format ExportFormat, actor string) error {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ExportDuration.Observe(time.Since(start).Seconds())
		}
	}()

	records, err := s.records.List(ctx, filter)
	if err != nil {
		return err
	}
	switch format {
	case ExportCSV:
		err = export.WriteCSV(w, records)
	case ExportXLSX:
		err = export.WriteXLSX(w, records)
	default:
		return dErrors.Newf(dErrors.CodeBadRequest, "unsupported export format %q", format)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "export consent records")
	}

	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Action:    audit.ActionConsentExported,
		Timestamp: s.now(),
		Actor:     actor,
		Detail:    map[string]string{"format": string(format)},
	})
	return nil
}

// emitAudit is fail-open: the consent store is the system of record, so a
// sink outage must not block the user-facing flow.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", string(event.Action),
			"error", err.Error(),
		)
	}
}
