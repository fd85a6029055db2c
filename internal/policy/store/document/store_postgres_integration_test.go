//go:build integration

package document_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"yinyom/internal/policy/models"
	"yinyom/internal/policy/store/document"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
	"yinyom/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *document.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = document.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "consent_records", "targeting_rules", "policy_documents")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newDoc(version string, userType domain.UserType, language domain.Language) *models.Document {
	doc, err := models.NewDocument(domain.NewDocumentID(), version, userType, language, "Privacy Policy", "body", time.Now().UTC())
	s.Require().NoError(err)
	return doc
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	doc := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageThai)
	s.Require().NoError(s.store.Create(ctx, doc))

	found, err := s.store.FindByID(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.Version, found.Version)
	s.Equal(doc.UserType, found.UserType)
	s.False(found.IsActive)
}

func (s *PostgresStoreSuite) TestUniqueVersionPerAudience() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageThai)))

	err := s.store.Create(ctx, s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageThai))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	s.Require().NoError(s.store.Create(ctx, s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageEnglish)))
}

func (s *PostgresStoreSuite) TestActivateDeactivatesSiblings() {
	ctx := context.Background()
	v1 := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageThai)
	v2 := s.newDoc("2.0", domain.UserTypeCustomer, domain.LanguageThai)
	s.Require().NoError(s.store.Create(ctx, v1))
	s.Require().NoError(s.store.Create(ctx, v2))

	s.Require().NoError(s.store.Activate(ctx, v1.ID, time.Now().UTC()))
	s.Require().NoError(s.store.Activate(ctx, v2.ID, time.Now().UTC()))

	active, err := s.store.FindActive(ctx, domain.UserTypeCustomer, domain.LanguageThai)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(v2.ID, active[0].ID)

	old, err := s.store.FindByID(ctx, v1.ID)
	s.Require().NoError(err)
	s.False(old.IsActive)
}

func (s *PostgresStoreSuite) TestList() {
	ctx := context.Background()
	thai := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageThai)
	english := s.newDoc("1.0", domain.UserTypeCustomer, domain.LanguageEnglish)
	s.Require().NoError(s.store.Create(ctx, thai))
	s.Require().NoError(s.store.Create(ctx, english))
	s.Require().NoError(s.store.Activate(ctx, thai.ID, time.Now().UTC()))

	docs, err := s.store.List(ctx, models.Filter{Language: domain.LanguageThai})
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(thai.ID, docs[0].ID)

	docs, err = s.store.List(ctx, models.Filter{ActiveOnly: true})
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(thai.ID, docs[0].ID)
}
