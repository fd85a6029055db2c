package document

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"yinyom/internal/policy/models"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newDoc(version string, userType domain.UserType, language domain.Language) *models.Document {
	doc, err := models.NewDocument(domain.NewDocumentID(), version, userType, language, "Privacy Policy", "# Policy\nbody", s.now)
	s.Require().NoError(err)
	return doc
}

func (s *InMemoryStoreSuite) TestCreate() {
	s.Run("stores a document", func() {
		doc := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageThai)
		s.Require().NoError(s.store.Create(s.ctx, doc))

		found, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal(doc.Version, found.Version)
		s.False(found.IsActive)
	})

	s.Run("rejects duplicate ID", func() {
		doc := s.newDoc("1.1", domain.UserTypeCustomer, domain.LanguageThai)
		s.Require().NoError(s.store.Create(s.ctx, doc))

		err := s.store.Create(s.ctx, doc)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects duplicate version for the same audience", func() {
		first := s.newDoc("2.0", domain.UserTypeEmployee, domain.LanguageEnglish)
		s.Require().NoError(s.store.Create(s.ctx, first))

		second := s.newDoc("2.0", domain.UserTypeEmployee, domain.LanguageEnglish)
		err := s.store.Create(s.ctx, second)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("same version for a different audience is fine", func() {
		th := s.newDoc("3.0", domain.UserTypePartner, domain.LanguageThai)
		en := s.newDoc("3.0", domain.UserTypePartner, domain.LanguageEnglish)
		s.Require().NoError(s.store.Create(s.ctx, th))
		s.Require().NoError(s.store.Create(s.ctx, en))
	})
}

func (s *InMemoryStoreSuite) TestUpdate() {
	doc := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageThai)
	s.Require().NoError(s.store.Create(s.ctx, doc))

	s.Run("updates content", func() {
		doc.Content = "updated body"
		doc.UpdatedAt = s.now.Add(time.Hour)
		s.Require().NoError(s.store.Update(s.ctx, doc))

		found, err := s.store.FindByID(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Equal("updated body", found.Content)
	})

	s.Run("unknown document is NotFound", func() {
		missing := s.newDoc("9.9", domain.UserTypeCustomer, domain.LanguageThai)
		err := s.store.Update(s.ctx, missing)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *InMemoryStoreSuite) TestActivate() {
	v1 := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageThai)
	v2 := s.newDoc("2.0", domain.UserTypeCustomer, domain.LanguageThai)
	other := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageEnglish)
	for _, doc := range []*models.Document{v1, v2, other} {
		s.Require().NoError(s.store.Create(s.ctx, doc))
	}

	s.Require().NoError(s.store.Activate(s.ctx, v1.ID, s.now.Add(time.Minute)))
	s.Require().NoError(s.store.Activate(s.ctx, other.ID, s.now.Add(time.Minute)))

	s.Run("activating a sibling deactivates the previous version", func() {
		s.Require().NoError(s.store.Activate(s.ctx, v2.ID, s.now.Add(2*time.Minute)))

		active, err := s.store.FindActive(s.ctx, domain.UserTypeCustomer, domain.LanguageThai)
		s.Require().NoError(err)
		s.Require().Len(active, 1)
		s.Equal(v2.ID, active[0].ID)

		old, err := s.store.FindByID(s.ctx, v1.ID)
		s.Require().NoError(err)
		s.False(old.IsActive)
	})

	s.Run("other audiences are untouched", func() {
		active, err := s.store.FindActive(s.ctx, domain.UserTypeCustomer, domain.LanguageEnglish)
		s.Require().NoError(err)
		s.Require().Len(active, 1)
		s.Equal(other.ID, active[0].ID)
	})

	s.Run("unknown document is NotFound", func() {
		err := s.store.Activate(s.ctx, domain.NewDocumentID(), s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *InMemoryStoreSuite) TestFindActive() {
	s.Run("empty when nothing is active", func() {
		active, err := s.store.FindActive(s.ctx, domain.UserTypeCustomer, domain.LanguageThai)
		s.Require().NoError(err)
		s.Empty(active)
	})

	s.Run("most recently updated first on transient double-activation", func() {
		older := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageThai)
		newer := s.newDoc("2.0", domain.UserTypeCustomer, domain.LanguageThai)
		older.IsActive = true
		newer.IsActive = true
		newer.UpdatedAt = s.now.Add(time.Hour)
		s.Require().NoError(s.store.Create(s.ctx, older))
		s.Require().NoError(s.store.Create(s.ctx, newer))

		active, err := s.store.FindActive(s.ctx, domain.UserTypeCustomer, domain.LanguageThai)
		s.Require().NoError(err)
		s.Require().Len(active, 2)
		s.Equal(newer.ID, active[0].ID)
	})
}

func (s *InMemoryStoreSuite) TestList() {
	thai := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageThai)
	english := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageEnglish)
	employee := s.newDoc("1.0", domain.UserTypeEmployee, domain.LanguageThai)
	for _, doc := range []*models.Document{thai, english, employee} {
		s.Require().NoError(s.store.Create(s.ctx, doc))
	}
	s.Require().NoError(s.store.Activate(s.ctx, thai.ID, s.now))

	s.Run("no filter returns everything", func() {
		docs, err := s.store.List(s.ctx, models.Filter{})
		s.Require().NoError(err)
		s.Len(docs, 3)
	})

	s.Run("filters by user type and language", func() {
		docs, err := s.store.List(s.ctx, models.Filter{UserType: domain.UserTypeCustomer, Language: domain.LanguageThai})
		s.Require().NoError(err)
		s.Require().Len(docs, 1)
		s.Equal(thai.ID, docs[0].ID)
	})

	s.Run("active only", func() {
		docs, err := s.store.List(s.ctx, models.Filter{ActiveOnly: true})
		s.Require().NoError(err)
		s.Require().Len(docs, 1)
		s.Equal(thai.ID, docs[0].ID)
	})
}
