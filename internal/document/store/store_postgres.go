package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusbourses/internal/document"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
	"campusbourses/pkg/platform/tx"
)

// Postgres persists documents in PostgreSQL. Writes join the surrounding
// transaction when one is carried by the context, which is how the rejection
// notification and the row delete commit as a unit.
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

const columns = `id, student_id, kind, filename, size_bytes, blob_handle,
	is_verified, verified_by, verified_at, uploaded_at`

func (s *Postgres) Create(ctx context.Context, doc *document.Document) error {
	query := `
		INSERT INTO documents
			(id, student_id, kind, filename, size_bytes, blob_handle, is_verified, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		doc.ID.UUID(),
		doc.StudentID.UUID(),
		doc.Kind.String(),
		doc.Filename,
		doc.Size,
		doc.BlobHandle,
		doc.Verified,
		doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.DocumentID) (*document.Document, error) {
	query := `SELECT ` + columns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(s.conn(ctx).QueryRowContext(ctx, query, id.UUID()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

func (s *Postgres) ListByStudent(ctx context.Context, studentID domain.UserID) ([]*document.Document, error) {
	query := `
		SELECT ` + columns + `
		FROM documents
		WHERE student_id = $1
		ORDER BY uploaded_at DESC
	`
	return s.list(ctx, query, studentID.UUID())
}

func (s *Postgres) ListAll(ctx context.Context, unverifiedOnly bool) ([]*document.Document, error) {
	query := `
		SELECT ` + columns + `
		FROM documents
		WHERE ($1 = FALSE OR is_verified = FALSE)
		ORDER BY uploaded_at DESC
	`
	return s.list(ctx, query, unverifiedOnly)
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*document.Document, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkVerified(ctx context.Context, id domain.DocumentID, verifier domain.UserID, at time.Time) (*document.Document, error) {
	// Guarded in the WHERE clause: the first verifier wins, later ones see
	// the invalid-state sentinel.
	query := `
		UPDATE documents
		SET is_verified = TRUE, verified_by = $2, verified_at = $3
		WHERE id = $1 AND is_verified = FALSE
		RETURNING ` + columns
	doc, err := scanDocument(s.conn(ctx).QueryRowContext(ctx, query, id.UUID(), verifier.UUID(), at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.guardFailure(ctx, id)
		}
		return nil, fmt.Errorf("mark document verified: %w", err)
	}
	return doc, nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.DocumentID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id.UUID())
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteByStudent(ctx context.Context, studentID domain.UserID) ([]string, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`DELETE FROM documents WHERE student_id = $1 RETURNING blob_handle`, studentID.UUID())
	if err != nil {
		return nil, fmt.Errorf("delete documents by student: %w", err)
	}
	defer rows.Close()

	var handles []string
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, err
		}
		handles = append(handles, handle)
	}
	return handles, rows.Err()
}

func (s *Postgres) guardFailure(ctx context.Context, id domain.DocumentID) error {
	var exists bool
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, id.UUID()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check document exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*document.Document, error) {
	var (
		doc        document.Document
		id         string
		studentID  string
		kind       string
		verifiedBy sql.NullString
		verifiedAt sql.NullTime
	)
	err := row.Scan(&id, &studentID, &kind, &doc.Filename, &doc.Size, &doc.BlobHandle,
		&doc.Verified, &verifiedBy, &verifiedAt, &doc.UploadedAt)
	if err != nil {
		return nil, err
	}
	if doc.ID, err = domain.ParseDocumentID(id); err != nil {
		return nil, err
	}
	if doc.StudentID, err = domain.ParseUserID(studentID); err != nil {
		return nil, err
	}
	doc.Kind = domain.DocumentKind(kind)
	if verifiedBy.Valid {
		userID, err := domain.ParseUserID(verifiedBy.String)
		if err != nil {
			return nil, err
		}
		doc.VerifiedBy = &userID
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		doc.VerifiedAt = &t
	}
	return &doc, nil
}
