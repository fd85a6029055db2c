package document

import (
	"context"
	"sort"
	"sync"
	"time"

	"yinyom/internal/policy/models"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// InMemory keeps policy documents in a map. Suitable for tests and
// single-node development; production uses Postgres.
type InMemory struct {
	mu   sync.RWMutex
	docs map[domain.DocumentID]models.Document
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[domain.DocumentID]models.Document)}
}

func (s *InMemory) Create(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return dErrors.New(dErrors.CodeConflict, "document already exists")
	}
	for _, existing := range s.docs {
		if existing.UserType == doc.UserType && existing.Language == doc.Language && existing.Version == doc.Version {
			return dErrors.New(dErrors.CodeConflict, "version already exists for this audience")
		}
	}
	s.docs[doc.ID] = *doc
	return nil
}

func (s *InMemory) Update(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	s.docs[doc.ID] = *doc
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	out := doc
	return &out, nil
}

// FindActive returns every active document for the audience pair. More than
// one result means the steady-state invariant is transiently violated; the
// service layer picks the most recently updated.
func (s *InMemory) FindActive(ctx context.Context, userType domain.UserType, language domain.Language) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Document
	for _, doc := range s.docs {
		if doc.IsActive && doc.UserType == userType && doc.Language == language {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Activate marks the document active and deactivates every sibling for the
// same (user type, language) pair in one critical section.
func (s *InMemory) Activate(ctx context.Context, id domain.DocumentID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.docs[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	for docID, doc := range s.docs {
		if docID == id || doc.UserType != target.UserType || doc.Language != target.Language || !doc.IsActive {
			continue
		}
		doc.IsActive = false
		doc.UpdatedAt = now
		s.docs[docID] = doc
	}
	target.IsActive = true
	target.UpdatedAt = now
	s.docs[id] = target
	return nil
}

func (s *InMemory) List(ctx context.Context, filter models.Filter) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Document
	for _, doc := range s.docs {
		if filter.UserType != "" && doc.UserType != filter.UserType {
			continue
		}
		if filter.Language != "" && doc.Language != filter.Language {
			continue
		}
		if filter.ActiveOnly && !doc.IsActive {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
