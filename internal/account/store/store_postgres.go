package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"campusbourses/internal/account"
	"campusbourses/pkg/domain"
	"campusbourses/pkg/platform/sentinel"
	"campusbourses/pkg/platform/tx"
)

// Postgres persists accounts in PostgreSQL.
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

const columns = `id, username, email, full_name, password_hash, role, created_at`

const uniqueViolation = "23505"

func (s *Postgres) Create(ctx context.Context, user *account.User) error {
	query := `
		INSERT INTO users (id, username, email, full_name, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		user.ID.UUID(),
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.Role.String(),
		user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.UserID) (*account.User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE id = $1`
	return s.findOne(ctx, query, id.UUID())
}

func (s *Postgres) FindByUsername(ctx context.Context, username string) (*account.User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE LOWER(username) = LOWER($1)`
	return s.findOne(ctx, query, username)
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*account.User, error) {
	user, err := scanUser(s.conn(ctx).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *Postgres) List(ctx context.Context) ([]*account.User, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+columns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*account.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, id domain.UserID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id.UUID())
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if count, _ := res.RowsAffected(); count == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*account.User, error) {
	var (
		user account.User
		id   string
		role string
	)
	err := row.Scan(&id, &user.Username, &user.Email, &user.FullName, &user.PasswordHash,
		&role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if user.ID, err = domain.ParseUserID(id); err != nil {
		return nil, err
	}
	if user.Role, err = domain.ParseRole(role); err != nil {
		return nil, err
	}
	return &user, nil
}
