package rule

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"yinyom/internal/targeting/models"
	"yinyom/pkg/domain"
	dErrors "yinyom/pkg/domain-errors"
)

// Postgres persists targeting rules.
//
// Schema (migrations/002_targeting_rules.sql):
//
//	CREATE TABLE targeting_rules (
//	    id           UUID PRIMARY KEY,
//	    priority     INTEGER NOT NULL,
//	    rule_type    TEXT NOT NULL,
//	    target_value TEXT NOT NULL,
//	    document_id  UUID NOT NULL REFERENCES policy_documents (id),
//	    created_at   TIMESTAMPTZ NOT NULL,
//	    updated_at   TIMESTAMPTZ NOT NULL
//	);
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const ruleColumns = `id, priority, rule_type, target_value, document_id, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, rule *models.Rule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO targeting_rules (`+ruleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(rule.ID), rule.Priority, string(rule.Type), rule.TargetValue,
		uuid.UUID(rule.DocumentID), rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "create rule")
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, rule *models.Rule) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE targeting_rules
		SET priority = $2, rule_type = $3, target_value = $4, document_id = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(rule.ID), rule.Priority, string(rule.Type), rule.TargetValue,
		uuid.UUID(rule.DocumentID), rule.UpdatedAt,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update rule")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update rule")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.RuleID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM targeting_rules WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete rule")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete rule")
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.RuleID) (*models.Rule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+` FROM targeting_rules WHERE id = $1`, uuid.UUID(id))
	return scanRule(row)
}

// List returns all rules ordered by creation time so equal-priority rules
// keep a deterministic, documented tie-break for the stable evaluator sort.
func (s *Postgres) List(ctx context.Context) ([]models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+` FROM targeting_rules ORDER BY created_at, id`)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list rules")
	}
	defer rows.Close()

	var out []models.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate rules")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.Rule, error) {
	var (
		rule     models.Rule
		id       uuid.UUID
		docID    uuid.UUID
		ruleType string
	)
	err := row.Scan(&id, &rule.Priority, &ruleType, &rule.TargetValue, &docID,
		&rule.CreatedAt, &rule.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dErrors.New(dErrors.CodeNotFound, "rule not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan rule")
	}
	rule.ID = domain.RuleID(id)
	rule.DocumentID = domain.DocumentID(docID)
	rule.Type = models.RuleType(ruleType)
	return &rule, nil
}
