package rule

import (
	"context"
	"sort"
	"sync"

	"yinyom/internal/targeting/models"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// InMemory keeps targeting rules in a map, for tests and development.
type InMemory struct {
	mu    sync.RWMutex
	rules map[domain.RuleID]models.Rule
	seq   int
	order map[domain.RuleID]int
}

func NewInMemory() *InMemory {
	return &InMemory{
		rules: make(map[domain.RuleID]models.Rule),
		order: make(map[domain.RuleID]int),
	}
}

func (s *InMemory) Create(ctx context.Context, rule *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.ID]; ok {
		return dErrors.New(dErrors.CodeConflict, "rule already exists")
	}
	s.rules[rule.ID] = *rule
	s.seq++
	s.order[rule.ID] = s.seq
	return nil
}

func (s *InMemory) Update(ctx context.Context, rule *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.ID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	s.rules[rule.ID] = *rule
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id domain.RuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	delete(s.rules, id)
	delete(s.order, id)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.RuleID) (*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	out := rule
	return &out, nil
}

// List returns rules in insertion order. The evaluator re-sorts by priority
// with a stable sort, so insertion order is the documented tie-break.
func (s *InMemory) List(ctx context.Context) ([]models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] < s.order[out[j].ID] })
	return out, nil
}
