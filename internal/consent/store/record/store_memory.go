package record

import (
	"context"
	"sort"
	"sync"

	"yinyom/internal/consent/models"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// InMemory keeps consent records in a map, for tests and development.
type InMemory struct {
	mu      sync.RWMutex
	records map[domain.ConsentID]models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[domain.ConsentID]models.Record)}
}

func (s *InMemory) Create(ctx context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return dErrors.New(dErrors.CodeConflict, "consent record already exists")
	}
	for _, existing := range s.records {
		if existing.IdentityHash == rec.IdentityHash && existing.DocumentID == rec.DocumentID {
			return dErrors.New(dErrors.CodeConflict, "consent already recorded for this document")
		}
	}
	s.records[rec.ID] = *rec
	return nil
}

func (s *InMemory) FindByHashAndDocument(ctx context.Context, hash string, docID domain.DocumentID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.IdentityHash == hash && rec.DocumentID == docID {
			out := rec
			return &out, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "consent record not found")
}

func (s *InMemory) ListByHash(ctx context.Context, hash string) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Record
	for _, rec := range s.records {
		if rec.IdentityHash == hash {
			out = append(out, rec)
		}
	}
	sortByAcceptedAt(out)
	return out, nil
}

func (s *InMemory) List(ctx context.Context, filter models.Filter) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Record
	for _, rec := range s.records {
		if filter.UserType != "" && rec.UserType != filter.UserType {
			continue
		}
		if filter.Language != "" && rec.Language != filter.Language {
			continue
		}
		if !filter.From.IsZero() && rec.AcceptedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && rec.AcceptedAt.After(filter.To) {
			continue
		}
		out = append(out, rec)
	}
	sortByAcceptedAt(out)
	return out, nil
}

func sortByAcceptedAt(recs []models.Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].AcceptedAt.After(recs[j].AcceptedAt) })
}
