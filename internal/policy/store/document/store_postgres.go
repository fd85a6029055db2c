package document

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"yinyom/internal/policy/models"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// Postgres persists policy documents.
//
// Schema (migrations/001_policy_documents.sql):
//
//	CREATE TABLE policy_documents (
//	    id         UUID PRIMARY KEY,
//	    version    TEXT NOT NULL,
//	    user_type  TEXT NOT NULL,
//	    language   TEXT NOT NULL,
//	    title      TEXT NOT NULL DEFAULT '',
//	    content    TEXT NOT NULL,
//	    is_active  BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL,
//	    UNIQUE (user_type, language, version)
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const docColumns = `id, version, user_type, language, title, content, is_active, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, doc *models.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policy_documents (`+docColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(doc.ID), doc.Version, string(doc.UserType), string(doc.Language),
		doc.Title, doc.Content, doc.IsActive, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return dErrors.New(dErrors.CodeConflict, "version already exists for this audience")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "create document")
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, doc *models.Document) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE policy_documents
		SET version = $2, title = $3, content = $4, updated_at = $5
		WHERE id = $1`,
		uuid.UUID(doc.ID), doc.Version, doc.Title, doc.Content, doc.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update document")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update document")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.DocumentID) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+docColumns+` FROM policy_documents WHERE id = $1`, uuid.UUID(id))
	return scanDocument(row)
}

func (s *Postgres) FindActive(ctx context.Context, userType domain.UserType, language domain.Language) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+docColumns+` FROM policy_documents
		WHERE user_type = $1 AND language = $2 AND is_active
		ORDER BY updated_at DESC`,
		string(userType), string(language),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query active documents")
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Activate flips the target active and deactivates siblings for the same
// audience pair atomically.
func (s *Postgres) Activate(ctx context.Context, id domain.DocumentID, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin activate")
	}
	defer func() { _ = tx.Rollback() }()

	var userType, language string
	err = tx.QueryRowContext(ctx, `
		SELECT user_type, language FROM policy_documents WHERE id = $1 FOR UPDATE`,
		uuid.UUID(id)).Scan(&userType, &language)
	if errors.Is(err, sql.ErrNoRows) {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "lock document")
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE policy_documents SET is_active = FALSE, updated_at = $3
		WHERE user_type = $1 AND language = $2 AND is_active`,
		userType, language, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "deactivate siblings")
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE policy_documents SET is_active = TRUE, updated_at = $2 WHERE id = $1`,
		uuid.UUID(id), now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "activate document")
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit activate")
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, filter models.Filter) ([]models.Document, error) {
	query := `SELECT ` + docColumns + ` FROM policy_documents WHERE TRUE`
	args := []any{}
	if filter.UserType != "" {
		args = append(args, string(filter.UserType))
		query += ` AND user_type = $` + strconv.Itoa(len(args))
	}
	if filter.Language != "" {
		args = append(args, string(filter.Language))
		query += ` AND language = $` + strconv.Itoa(len(args))
	}
	if filter.ActiveOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	defer rows.Close()
	return scanDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc      models.Document
		id       uuid.UUID
		userType string
		language string
	)
	err := row.Scan(&id, &doc.Version, &userType, &language, &doc.Title, &doc.Content,
		&doc.IsActive, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan document")
	}
	doc.ID = domain.DocumentID(id)
	doc.UserType = domain.UserType(userType)
	doc.Language = domain.Language(language)
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]models.Document, error) {
	var out []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate documents")
	}
	return out, nil
}
