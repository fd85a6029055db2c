package service

import (
	"context"
	"log/slog"
	"time"

	"yinyom/internal/targeting"
	"yinyom/internal/targeting/metrics"
	"yinyom/internal/targeting/models"
	policymodels "yinyom/internal/policy/models"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
	"yinyom/pkg/platform/audit"
)

// RuleStore is the persistence boundary for targeting rules.
type RuleStore interface {
	Create(ctx context.Context, rule *models.Rule) error
	Update(ctx context.Context, rule *models.Rule) error
	Delete(ctx context.Context, id domain.RuleID) error
	FindByID(ctx context.Context, id domain.RuleID) (*models.Rule, error)
	List(ctx context.Context) ([]models.Rule, error)
}

// PolicyReader is the slice of the policy service the evaluator needs:
// dereferencing a matched rule's document and the audience fallback.
type PolicyReader interface {
	Get(ctx context.Context, id domain.DocumentID) (*policymodels.Document, error)
	GetActive(ctx context.Context, userType domain.UserType, language domain.Language) (*policymodels.Document, error)
}

// AuditPublisher receives compliance events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns rule CRUD and version resolution.
type Service struct {
	rules    RuleStore
	policies PolicyReader
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
func New(rules RuleStore, policies PolicyReader, opts ...Option) *Service {
	s := &Service{
		rules:    rules,
		policies: policies,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveVersion picks the policy document the given user must consent to.
// The identity must already be normalized (identity.Validate output) because
// specific rules match exactly. When no rule matches, the active document for
// the user's audience pair is the fallback; only when that is also absent
// does resolution fail with CodeNotFound.
func (s *Service) ResolveVersion(ctx context.Context, identity, userGroup string, userType domain.UserType, language domain.Language) (*policymodels.Document, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
		}
	}()

	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, err
	}

	res := targeting.Resolve(identity, userGroup, rules)
	for _, skipped := range res.Skipped {
		s.logger.WarnContext(ctx, "skipping malformed targeting rule",
			"rule_id", skipped.ID.String(),
			"rule_type", string(skipped.Type),
		)
	}
	if s.metrics != nil && len(res.Skipped) > 0 {
		s.metrics.MalformedRules.Add(float64(len(res.Skipped)))
	}

	if res.Matched {
		doc, err := s.policies.Get(ctx, res.DocumentID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				// Rule points at a deleted document; fall back rather
				// than dead-ending the consent flow.
				s.logger.WarnContext(ctx, "targeting rule references missing document",
					"rule_id", res.MatchedRule.ID.String(),
					"document_id", res.DocumentID.String(),
				)
				return s.fallback(ctx, userType, language)
			}
			return nil, err
		}
		s.countResolution(string(res.MatchedRule.Type))
		return doc, nil
	}

	return s.fallback(ctx, userType, language)
}

func (s *Service) fallback(ctx context.Context, userType domain.UserType, language domain.Language) (*policymodels.Document, error) {
	doc, err := s.policies.GetActive(ctx, userType, language)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.countResolution("none")
		}
		return nil, err
	}
	s.countResolution("fallback")
	return doc, nil
}

func (s *Service) countResolution(outcome string) {
	if s.metrics != nil {
		s.metrics.Resolutions.WithLabelValues(outcome).Inc()
	}
}

// CreateRule validates the referenced document exists and stores the rule.
func (s *Service) CreateRule(ctx context.Context, priority int, ruleType models.RuleType, targetValue string, documentID domain.DocumentID) (*models.Rule, error) {
	if _, err := s.policies.Get(ctx, documentID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "rule references an unknown document")
		}
		return nil, err
	}
	rule, err := models.NewRule(domain.NewRuleID(), priority, ruleType, targetValue, documentID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	s.emitAudit(ctx, audit.Event{
		Category:   audit.CategoryCompliance,
		Action:     audit.ActionRuleCreated,
		Timestamp:  rule.CreatedAt,
		DocumentID: rule.DocumentID.String(),
		Detail: map[string]string{
			"rule_id":   rule.ID.String(),
			"rule_type": string(rule.Type),
		},
	})
	s.logger.InfoContext(ctx, "targeting rule created",
		"rule_id", rule.ID.String(),
		"rule_type", string(rule.Type),
		"priority", rule.Priority,
	)
	return rule, nil
}

// UpdateRule replaces the mutable fields of an existing rule.
func (s *Service) UpdateRule(ctx context.Context, id domain.RuleID, priority int, ruleType models.RuleType, targetValue string, documentID domain.DocumentID) (*models.Rule, error) {
	existing, err := s.rules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.policies.Get(ctx, documentID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "rule references an unknown document")
		}
		return nil, err
	}
	updated, err := models.NewRule(id, priority, ruleType, targetValue, documentID, existing.CreatedAt)
	if err != nil {
		return nil, err
	}
	updated.UpdatedAt = s.now()
	if err := s.rules.Update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteRule(ctx context.Context, id domain.RuleID) error {
	if err := s.rules.Delete(ctx, id); err != nil {
		return err
	}
	s.emitAudit(ctx, audit.Event{
		Category:  audit.CategoryCompliance,
		Action:    audit.ActionRuleDeleted,
		Timestamp: s.now(),
		Detail:    map[string]string{"rule_id": id.String()},
	})
	return nil
}

func (s *Service) ListRules(ctx context.Context) ([]models.Rule, error) {
	return s.rules.List(ctx)
}

// emitAudit is fail-open: a sink outage must not block rule management.
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
