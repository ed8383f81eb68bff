package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"campusbourses/internal/eligibility"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
	"campusbourses/pkg/platform/tx"
)

// Postgres persists rules in PostgreSQL with the criteria blob as JSONB.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) conn(ctx context.Context) execer {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return s.db
}

const columns = `id, kind, name, description, criteria, is_active, version, created_by, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, rule *eligibility.Rule) error {
	criteria, err := marshalCriteria(rule.Criteria)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO eligibility_rules
			(id, kind, name, description, criteria, is_active, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.conn(ctx).ExecContext(ctx, query,
		rule.ID.UUID(),
		rule.Kind.String(),
		rule.Name,
		rule.Description,
		criteria,
		rule.Active,
		rule.Version,
		rule.CreatedBy.UUID(),
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create eligibility rule: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.RuleID) (*eligibility.Rule, error) {
	query := `SELECT ` + columns + ` FROM eligibility_rules WHERE id = $1`
	rule, err := scanRule(s.conn(ctx).QueryRowContext(ctx, query, id.UUID()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find eligibility rule: %w", err)
	}
	return rule, nil
}

func (s *Postgres) List(ctx context.Context, activeOnly bool) ([]*eligibility.Rule, error) {
	query := `
		SELECT ` + columns + `
		FROM eligibility_rules
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY created_at DESC
	`
	rows, err := s.conn(ctx).QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list eligibility rules: %w", err)
	}
	defer rows.Close()

	var out []*eligibility.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, id domain.RuleID, in eligibility.RuleInput, at time.Time) (*eligibility.Rule, error) {
	criteria, err := marshalCriteria(in.Criteria)
	if err != nil {
		return nil, err
	}
	// version bumps in the UPDATE itself so concurrent editors cannot mint the
	// same version.
	query := `
		UPDATE eligibility_rules
		SET kind = $2, name = $3, description = $4, criteria = $5, is_active = $6,
			version = version + 1, updated_at = $7
		WHERE id = $1
		RETURNING ` + columns
	rule, err := scanRule(s.conn(ctx).QueryRowContext(ctx, query,
		id.UUID(), in.Kind.String(), in.Name, in.Description, criteria, in.Active, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update eligibility rule: %w", err)
	}
	return rule, nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.RuleID) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM eligibility_rules WHERE id = $1`, id.UUID())
	if err != nil {
		return fmt.Errorf("delete eligibility rule: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*eligibility.Rule, error) {
	var (
		rule      eligibility.Rule
		id        string
		kind      string
		criteria  []byte
		createdBy string
	)
	err := row.Scan(&id, &kind, &rule.Name, &rule.Description, &criteria,
		&rule.Active, &rule.Version, &createdBy, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if rule.ID, err = domain.ParseRuleID(id); err != nil {
		return nil, err
	}
	if rule.CreatedBy, err = domain.ParseUserID(createdBy); err != nil {
		return nil, err
	}
	rule.Kind = domain.RuleKind(kind)
	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &rule.Criteria); err != nil {
			return nil, fmt.Errorf("decode rule criteria: %w", err)
		}
	}
	return &rule, nil
}

func marshalCriteria(criteria map[string]string) ([]byte, error) {
	if criteria == nil {
		criteria = map[string]string{}
	}
	data, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("encode rule criteria: %w", err)
	}
	return data, nil
}
