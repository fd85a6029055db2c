package service

import (
	"context"
	"log/slog"
	"time"

	"yinyom/internal/content"
	"yinyom/internal/policy/metrics"
	"yinyom/internal/policy/models"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
	"yinyom/pkg/platform/audit"
)

// DocumentStore is the persistence boundary for policy documents.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id domain.DocumentID) (*models.Document, error)
	FindActive(ctx context.Context, userType domain.UserType, language domain.Language) ([]models.Document, error)
	Activate(ctx context.Context, id domain.DocumentID, now time.Time) error
	List(ctx context.Context, filter models.Filter) ([]models.Document, error)
}

// ActiveCache caches active-document lookups. Implementations are best
// effort; every error here is survivable by going to the store.
type ActiveCache interface {
	Get(ctx context.Context, userType domain.UserType, language domain.Language) (*models.Document, error)
	Set(ctx context.Context, doc *models.Document) error
	Invalidate(ctx context.Context, userType domain.UserType, language domain.Language) error
}

// AuditPublisher receives compliance events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates policy document management and display rendering.
type Service struct {
	docs    DocumentStore
	cache   ActiveCache
	auditor AuditPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCache(cache ActiveCache) Option {
	return func(s *Service) { s.cache = cache }
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
func New(docs DocumentStore, opts ...Option) *Service {
	s := &Service{
		docs:   docs,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateVersion stores a new, inactive policy document version.
func (s *Service) CreateVersion(ctx context.Context, version string, userType domain.UserType, language domain.Language, title, content string) (*models.Document, error) {
	doc, err := models.NewDocument(domain.NewDocumentID(), version, userType, language, title, content, s.now())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.DocumentsCreated.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Category:        audit.CategoryOperations,
		Action:          audit.ActionPolicyCreated,
		Timestamp:       doc.CreatedAt,
		UserType:        doc.UserType.String(),
		Language:        doc.Language.String(),
		DocumentID:      doc.ID.String(),
		DocumentVersion: doc.Version,
	})
	s.logger.InfoContext(ctx, "policy version created",
		"document_id", doc.ID.String(),
		"version", doc.Version,
		"user_type", doc.UserType.String(),
		"language", doc.Language.String(),
	)
	return doc, nil
}

// UpdateVersion replaces the title and content of an existing version.
// Content edits to the active version take effect immediately, so the cache
// entry for its audience is dropped.
func (s *Service) UpdateVersion(ctx context.Context, id domain.DocumentID, title, newContent string) (*models.Document, error) {
	if newContent == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "document content cannot be empty")
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Title = title
	doc.Content = newContent
	doc.UpdatedAt = s.now()
	if err := s.docs.Update(ctx, doc); err != nil {
		return nil, err
	}
	s.invalidate(ctx, doc.UserType, doc.Language)
	return doc, nil
}

// Activate makes the document the live version for its audience pair,
// deactivating siblings.
func (s *Service) Activate(ctx context.Context, id domain.DocumentID) error {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.Activate(ctx, id, s.now()); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.DocumentsActivated.Inc()
	}
	s.invalidate(ctx, doc.UserType, doc.Language)
	s.emitAudit(ctx, audit.Event{
		Category:        audit.CategoryCompliance,
		Action:          audit.ActionPolicyActivated,
		Timestamp:       s.now(),
		UserType:        doc.UserType.String(),
		Language:        doc.Language.String(),
		DocumentID:      id.String(),
		DocumentVersion: doc.Version,
	})
	s.logger.InfoContext(ctx, "policy version activated",
		"document_id", id.String(),
		"version", doc.Version,
		"user_type", doc.UserType.String(),
		"language", doc.Language.String(),
	)
	return nil
}

// GetActive returns the live document for an audience pair. When the data
// transiently holds more than one active version, the most recently updated
// one wins and the anomaly is logged.
func (s *Service) GetActive(ctx context.Context, userType domain.UserType, language domain.Language) (*models.Document, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ActiveLookupDuration.Observe(time.Since(start).Seconds())
		}
	}()

	if s.cache != nil {
		doc, err := s.cache.Get(ctx, userType, language)
		if err != nil {
			s.logger.WarnContext(ctx, "active-document cache read failed", "error", err.Error())
		} else if doc != nil {
			if s.metrics != nil {
				s.metrics.ActiveCacheHits.Inc()
			}
			return doc, nil
		}
		if s.metrics != nil {
			s.metrics.ActiveCacheMisses.Inc()
		}
	}

	active, err := s.docs.FindActive(ctx, userType, language)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no active policy for this audience")
	}
	if len(active) > 1 {
		s.logger.WarnContext(ctx, "multiple active policy versions for one audience",
			"user_type", userType.String(),
			"language", language.String(),
			"count", len(active),
		)
	}
	doc := active[0]
	if s.cache != nil {
		if err := s.cache.Set(ctx, &doc); err != nil {
			s.logger.WarnContext(ctx, "active-document cache write failed", "error", err.Error())
		}
	}
	return &doc, nil
}

func (s *Service) Get(ctx context.Context, id domain.DocumentID) (*models.Document, error) {
	return s.docs.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter models.Filter) ([]models.Document, error) {
	return s.docs.List(ctx, filter)
}

// Rendered returns the document plus its sanitized display HTML.
func (s *Service) Rendered(ctx context.Context, id domain.DocumentID) (*models.Document, content.Rendered, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, content.Rendered{}, err
	}
	return doc, content.Render(doc.Content), nil
}

// RenderedActive resolves the live document for an audience and renders it.
func (s *Service) RenderedActive(ctx context.Context, userType domain.UserType, language domain.Language) (*models.Document, content.Rendered, error) {
	doc, err := s.GetActive(ctx, userType, language)
	if err != nil {
		return nil, content.Rendered{}, err
	}
	return doc, content.Render(doc.Content), nil
}

// emitAudit is fail-open: a sink outage must not block policy management.
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

func (s *Service) invalidate(ctx context.Context, userType domain.UserType, language domain.Language) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userType, language); err != nil {
		s.logger.WarnContext(ctx, "active-document cache invalidation failed",
			"user_type", userType.String(),
			"language", language.String(),
			"error", err.Error(),
		)
	}
}
