package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campusbourses/internal/notification"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
	"campusbourses/pkg/platform/tx"
)

// Postgres persists notifications in PostgreSQL. Appends participate in the
// surrounding transaction when one is carried by the context, which is how a
// transition and its notification commit as a unit.
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

func (s *Postgres) AppendStudent(ctx context.Context, n *notification.StudentNotification) error {
	query := `
		INSERT INTO student_notifications
			(id, student_id, category, title, message, related_document, related_application,
			 document_kind, document_filename, is_read, is_important, created_at, read_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		n.ID.UUID(),
		n.StudentID.UUID(),
		n.Category.String(),
		n.Title,
		n.Message,
		nullableDocumentID(n.RelatedDocument),
		nullableApplicationID(n.RelatedApplication),
		string(n.DocumentKind),
		n.DocumentFilename,
		n.Read,
		n.Important,
		n.CreatedAt,
		n.ReadAt,
	)
	if err != nil {
		return fmt.Errorf("append student notification: %w", err)
	}
	return nil
}

func (s *Postgres) AppendAdmin(ctx context.Context, n *notification.AdminNotification) error {
	query := `
		INSERT INTO admin_notifications
			(id, category, title, message, related_document, related_user, is_read, created_at, read_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		n.ID.UUID(),
		n.Category.String(),
		n.Title,
		n.Message,
		nullableDocumentID(n.RelatedDocument),
		nullableUserID(n.RelatedUser),
		n.Read,
		n.CreatedAt,
		n.ReadAt,
	)
	if err != nil {
		return fmt.Errorf("append admin notification: %w", err)
	}
	return nil
}

const studentColumns = `id, student_id, category, title, message, related_document, related_application,
	document_kind, document_filename, is_read, is_important, created_at, read_at`

func (s *Postgres) ListStudent(ctx context.Context, studentID domain.UserID, onlyUnread bool, limit int) ([]*notification.StudentNotification, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM student_notifications
		WHERE student_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3
	`
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.conn(ctx).QueryContext(ctx, query, studentID.UUID(), onlyUnread, limit)
	if err != nil {
		return nil, fmt.Errorf("list student notifications: %w", err)
	}
	defer rows.Close()

	var out []*notification.StudentNotification
	for rows.Next() {
		n, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Postgres) CountStudentUnread(ctx context.Context, studentID domain.UserID) (int, int, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_important)
		FROM student_notifications
		WHERE student_id = $1 AND is_read = FALSE
	`
	var total, important int
	if err := s.conn(ctx).QueryRowContext(ctx, query, studentID.UUID()).Scan(&total, &important); err != nil {
		return 0, 0, fmt.Errorf("count student unread: %w", err)
	}
	return total, important, nil
}

func (s *Postgres) MarkStudentRead(ctx context.Context, id domain.NotificationID, studentID domain.UserID, readAt time.Time) (*notification.StudentNotification, error) {
	// Conditional stamp: read_at is written once, re-marking is a no-op.
	query := `
		UPDATE student_notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND student_id = $2
		RETURNING ` + studentColumns
	n, err := scanStudent(s.conn(ctx).QueryRowContext(ctx, query, id.UUID(), studentID.UUID(), readAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark student notification read: %w", err)
	}
	return n, nil
}

func (s *Postgres) MarkAllStudentRead(ctx context.Context, studentID domain.UserID, readAt time.Time) (int, error) {
	query := `
		UPDATE student_notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $2)
		WHERE student_id = $1 AND is_read = FALSE
	`
	res, err := s.conn(ctx).ExecContext(ctx, query, studentID.UUID(), readAt)
	if err != nil {
		return 0, fmt.Errorf("mark all student notifications read: %w", err)
	}
	count, _ := res.RowsAffected()
	return int(count), nil
}

func (s *Postgres) DeleteStudent(ctx context.Context, id domain.NotificationID, studentID domain.UserID) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM student_notifications WHERE id = $1 AND student_id = $2`,
		id.UUID(), studentID.UUID())
	if err != nil {
		return fmt.Errorf("delete student notification: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteAllStudent(ctx context.Context, studentID domain.UserID) (int, error) {
	res, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM student_notifications WHERE student_id = $1`, studentID.UUID())
	if err != nil {
		return 0, fmt.Errorf("delete all student notifications: %w", err)
	}
	count, _ := res.RowsAffected()
	return int(count), nil
}

const adminColumns = `id, category, title, message, related_document, related_user, is_read, created_at, read_at`

func (s *Postgres) ListAdmin(ctx context.Context, onlyUnread bool, limit int) ([]*notification.AdminNotification, error) {
	query := `
		SELECT ` + adminColumns + `
		FROM admin_notifications
		WHERE ($1 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $2
	`
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.conn(ctx).QueryContext(ctx, query, onlyUnread, limit)
	if err != nil {
		return nil, fmt.Errorf("list admin notifications: %w", err)
	}
	defer rows.Close()

	var out []*notification.AdminNotification
	for rows.Next() {
		n, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Postgres) CountAdminUnread(ctx context.Context) (int, error) {
	var count int
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admin_notifications WHERE is_read = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count admin unread: %w", err)
	}
	return count, nil
}

func (s *Postgres) MarkAdminRead(ctx context.Context, id domain.NotificationID, readAt time.Time) (*notification.AdminNotification, error) {
	query := `
		UPDATE admin_notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, $2)
		WHERE id = $1
		RETURNING ` + adminColumns
	n, err := scanAdmin(s.conn(ctx).QueryRowContext(ctx, query, id.UUID(), readAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark admin notification read: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*notification.StudentNotification, error) {
	var (
		n          notification.StudentNotification
		id         string
		studentID  string
		category   string
		relatedDoc sql.NullString
		relatedApp sql.NullString
		kind       string
		readAt     sql.NullTime
	)
	err := row.Scan(&id, &studentID, &category, &n.Title, &n.Message, &relatedDoc, &relatedApp,
		&kind, &n.DocumentFilename, &n.Read, &n.Important, &n.CreatedAt, &readAt)
	if err != nil {
		return nil, err
	}
	if n.ID, err = domain.ParseNotificationID(id); err != nil {
		return nil, err
	}
	if n.StudentID, err = domain.ParseUserID(studentID); err != nil {
		return nil, err
	}
	n.Category = domain.StudentNotificationCategory(category)
	n.DocumentKind = domain.DocumentKind(kind)
	if relatedDoc.Valid {
		docID, err := domain.ParseDocumentID(relatedDoc.String)
		if err != nil {
			return nil, err
		}
		n.RelatedDocument = &docID
	}
	if relatedApp.Valid {
		appID, err := domain.ParseApplicationID(relatedApp.String)
		if err != nil {
			return nil, err
		}
		n.RelatedApplication = &appID
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return &n, nil
}

func scanAdmin(row rowScanner) (*notification.AdminNotification, error) {
	var (
		n           notification.AdminNotification
		id          string
		category    string
		relatedDoc  sql.NullString
		relatedUser sql.NullString
		readAt      sql.NullTime
	)
	err := row.Scan(&id, &category, &n.Title, &n.Message, &relatedDoc, &relatedUser,
		&n.Read, &n.CreatedAt, &readAt)
	if err != nil {
		return nil, err
	}
	if n.ID, err = domain.ParseNotificationID(id); err != nil {
		return nil, err
	}
	n.Category = domain.AdminNotificationCategory(category)
	if relatedDoc.Valid {
		docID, err := domain.ParseDocumentID(relatedDoc.String)
		if err != nil {
			return nil, err
		}
		n.RelatedDocument = &docID
	}
	if relatedUser.Valid {
		userID, err := domain.ParseUserID(relatedUser.String)
		if err != nil {
			return nil, err
		}
		n.RelatedUser = &userID
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return &n, nil
}

func nullableDocumentID(id *domain.DocumentID) any {
	if id == nil {
		return nil
	}
	return id.UUID()
}

func nullableApplicationID(id *domain.ApplicationID) any {
	if id == nil {
		return nil
	}
	return id.UUID()
}

func nullableUserID(id *domain.UserID) any {
	if id == nil {
		return nil
	}
	return id.UUID()
}
