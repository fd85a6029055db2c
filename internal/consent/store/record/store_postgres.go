package record

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"yinyom/internal/consent/models"
	"yinyom/internal/identity"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// Postgres persists consent records.
//
// Schema (migrations/003_consent_records.sql):
//
//	CREATE TABLE consent_records (
//	    id               UUID PRIMARY KEY,
//	    identity_kind    TEXT NOT NULL,
//	    masked_identity  TEXT NOT NULL,
//	    identity_hash    TEXT NOT NULL,
//	    user_type        TEXT NOT NULL,
//	    language         TEXT NOT NULL,
//	    document_id      UUID NOT NULL REFERENCES policy_documents (id),
//	    document_version TEXT NOT NULL,
//	    accepted_at      TIMESTAMPTZ NOT NULL,
//	    ip_address       TEXT NOT NULL DEFAULT '',
//	    user_agent       TEXT NOT NULL DEFAULT '',
//	    UNIQUE (identity_hash, document_id)
//	);
//	CREATE INDEX consent_records_hash_idx ON consent_records (identity_hash);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const recordColumns = `id, identity_kind, masked_identity, identity_hash, user_type, language, document_id, document_version, accepted_at, ip_address, user_agent`

func (s *Postgres) Create(ctx context.Context, rec *models.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consent_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		uuid.UUID(rec.ID), string(rec.IdentityKind), rec.MaskedIdentity, rec.IdentityHash,
		string(rec.UserType), string(rec.Language), uuid.UUID(rec.DocumentID),
		rec.DocumentVersion, rec.AcceptedAt, rec.IPAddress, rec.UserAgent,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return dErrors.New(dErrors.CodeConflict, "consent already recorded for this document")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "create consent record")
	}
	return nil
}

func (s *Postgres) FindByHashAndDocument(ctx context.Context, hash string, docID domain.DocumentID) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM consent_records
		WHERE identity_hash = $1 AND document_id = $2`,
		hash, uuid.UUID(docID),
	)
	return scanRecord(row)
}

func (s *Postgres) ListByHash(ctx context.Context, hash string) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM consent_records
		WHERE identity_hash = $1 ORDER BY accepted_at DESC`, hash)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list consents by hash")
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Postgres) List(ctx context.Context, filter models.Filter) ([]models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM consent_records WHERE TRUE`
	args := []any{}
	if filter.UserType != "" {
		args = append(args, string(filter.UserType))
		query += ` AND user_type = $` + strconv.Itoa(len(args))
	}
	if filter.Language != "" {
		args = append(args, string(filter.Language))
		query += ` AND language = $` + strconv.Itoa(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += ` AND accepted_at >= $` + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += ` AND accepted_at <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY accepted_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list consent records")
	}
	defer rows.Close()
	return scanRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec      models.Record
		id       uuid.UUID
		docID    uuid.UUID
		kind     string
		userType string
		language string
	)
	err := row.Scan(&id, &kind, &rec.MaskedIdentity, &rec.IdentityHash, &userType, &language,
		&docID, &rec.DocumentVersion, &rec.AcceptedAt, &rec.IPAddress, &rec.UserAgent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "consent record not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan consent record")
	}
	rec.ID = domain.ConsentID(id)
	rec.DocumentID = domain.DocumentID(docID)
	rec.IdentityKind = identity.Kind(kind)
	rec.UserType = domain.UserType(userType)
	rec.Language = domain.Language(language)
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	var out []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate consent records")
	}
	return out, nil
}
