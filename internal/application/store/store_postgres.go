package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"campusbourses/internal/application"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
	"campusbourses/pkg/platform/tx"
)

// Postgres persists applications in PostgreSQL. Transition guards run inside
// the UPDATE itself (status checked in WHERE, timestamps stamped with
// COALESCE), so concurrent callers cannot double-stamp or race a state past a
// legal edge.
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

const columns = `id, student_id, category, title, description, amount_requested, status,
	decision_notes, final_amount, reviewed_by, submitted_at, reviewed_at, decided_at,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, app *application.Application) error {
	query := `
		INSERT INTO applications
			(id, student_id, category, title, description, amount_requested, status,
			 decision_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		app.ID.UUID(),
		app.StudentID.UUID(),
		app.Category.String(),
		app.Title,
		app.Description,
		app.AmountRequested.String(),
		app.Status.String(),
		app.DecisionNotes,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ApplicationID) (*application.Application, error) {
	query := `SELECT ` + columns + ` FROM applications WHERE id = $1`
	app, err := scanApplication(s.conn(ctx).QueryRowContext(ctx, query, id.UUID()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *Postgres) ListByStudent(ctx context.Context, studentID domain.UserID) ([]*application.Application, error) {
	query := `
		SELECT ` + columns + `
		FROM applications
		WHERE student_id = $1
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, studentID.UUID())
}

func (s *Postgres) ListAll(ctx context.Context) ([]*application.Application, error) {
	query := `SELECT ` + columns + ` FROM applications ORDER BY created_at DESC`
	return s.list(ctx, query)
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*application.Application, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*application.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, id domain.ApplicationID, in application.UpdateInput, at time.Time) (*application.Application, error) {
	// The edit-permitted guard is in the WHERE clause; an edit racing a
	// submission loses cleanly instead of clobbering a submitted record.
	query := `
		UPDATE applications
		SET category = $2, title = $3, description = $4, amount_requested = $5, updated_at = $6
		WHERE id = $1 AND status = ANY($7)
		RETURNING ` + columns
	app, err := scanApplication(s.conn(ctx).QueryRowContext(ctx, query,
		id.UUID(),
		in.Category.String(),
		in.Title,
		in.Description,
		in.Amount.String(),
		at,
		pq.Array(editableStatuses()),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.guardFailure(ctx, id)
		}
		return nil, fmt.Errorf("update application: %w", err)
	}
	return app, nil
}

func (s *Postgres) MarkSubmitted(ctx context.Context, id domain.ApplicationID, studentID domain.UserID, at time.Time) (*application.Application, error) {
	query := `
		UPDATE applications
		SET status = $3, submitted_at = COALESCE(submitted_at, $4), updated_at = $4
		WHERE id = $1 AND student_id = $2 AND status = ANY($5)
		RETURNING ` + columns
	app, err := scanApplication(s.conn(ctx).QueryRowContext(ctx, query,
		id.UUID(),
		studentID.UUID(),
		domain.ApplicationStatusSubmitted.String(),
		at,
		pq.Array(editableStatuses()),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.guardFailure(ctx, id)
		}
		return nil, fmt.Errorf("mark application submitted: %w", err)
	}
	return app, nil
}

func (s *Postgres) ApplyDecision(ctx context.Context, id domain.ApplicationID, reviewer domain.UserID, d application.Decision, at time.Time) (*application.Application, error) {
	current, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == d.NewStatus {
		return current, nil
	}
	if !current.Status.CanTransitionTo(d.NewStatus) {
		return nil, sentinel.ErrInvalidState
	}

	// The re-check of the source status in WHERE makes the read above
	// advisory; a concurrent decision that moved the state first wins.
	query := `
		UPDATE applications
		SET status = $3, decision_notes = $4, final_amount = COALESCE($5, final_amount),
			reviewed_by = $6,
			reviewed_at = COALESCE(reviewed_at, $7),
			decided_at = CASE WHEN $8 THEN COALESCE(decided_at, $7) ELSE decided_at END,
			updated_at = $7
		WHERE id = $1 AND status = $2
		RETURNING ` + columns
	app, err := scanApplication(s.conn(ctx).QueryRowContext(ctx, query,
		id.UUID(),
		current.Status.String(),
		d.NewStatus.String(),
		d.Notes,
		nullableDecimal(d.FinalAmount),
		reviewer.UUID(),
		at,
		d.NewStatus.IsDecision(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrInvalidState
		}
		return nil, fmt.Errorf("apply decision: %w", err)
	}
	return app, nil
}

func (s *Postgres) DeleteDraft(ctx context.Context, id domain.ApplicationID) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM applications WHERE id = $1 AND status = $2`,
		id.UUID(), domain.ApplicationStatusDraft.String())
	if err != nil {
		return fmt.Errorf("delete draft application: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return s.guardFailure(ctx, id)
	}
	return nil
}

func (s *Postgres) DeleteByStudent(ctx context.Context, studentID domain.UserID) (int, error) {
	res, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM applications WHERE student_id = $1`, studentID.UUID())
	if err != nil {
		return 0, fmt.Errorf("delete applications by student: %w", err)
	}
	count, _ := res.RowsAffected()
	return int(count), nil
}

// guardFailure distinguishes a missing row from a row in the wrong state after
// a conditional update matched nothing.
func (s *Postgres) guardFailure(ctx context.Context, id domain.ApplicationID) error {
	var exists bool
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id.UUID()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check application exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func editableStatuses() []string {
	return []string{
		domain.ApplicationStatusDraft.String(),
		domain.ApplicationStatusNeedsInfo.String(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*application.Application, error) {
	var (
		app         application.Application
		id          string
		studentID   string
		category    string
		amount      string
		status      string
		finalAmount sql.NullString
		reviewedBy  sql.NullString
		submittedAt sql.NullTime
		reviewedAt  sql.NullTime
		decidedAt   sql.NullTime
	)
	err := row.Scan(&id, &studentID, &category, &app.Title, &app.Description, &amount, &status,
		&app.DecisionNotes, &finalAmount, &reviewedBy, &submittedAt, &reviewedAt, &decidedAt,
		&app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if app.ID, err = domain.ParseApplicationID(id); err != nil {
		return nil, err
	}
	if app.StudentID, err = domain.ParseUserID(studentID); err != nil {
		return nil, err
	}
	app.Category = domain.ScholarshipCategory(category)
	app.Status = domain.ApplicationStatus(status)
	if app.AmountRequested, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount_requested: %w", err)
	}
	if finalAmount.Valid {
		fa, err := decimal.NewFromString(finalAmount.String)
		if err != nil {
			return nil, fmt.Errorf("parse final_amount: %w", err)
		}
		app.FinalAmount = &fa
	}
	if reviewedBy.Valid {
		userID, err := domain.ParseUserID(reviewedBy.String)
		if err != nil {
			return nil, err
		}
		app.ReviewedBy = &userID
	}
	if submittedAt.Valid {
		t := submittedAt.Time
		app.SubmittedAt = &t
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		app.ReviewedAt = &t
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		app.DecidedAt = &t
	}
	return &app, nil
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
