package store

import (
	"context"

	"campusbourses/internal/account"
	"campusbourses/pkg/domain"
)

// Store is the account persistence contract. Create returns
// sentinel.ErrConflict when the username or email is already taken.
type Store interface {
	Create(ctx context.Context, user *account.User) error
	FindByID(ctx context.Context, id domain.UserID) (*account.User, error)
	FindByUsername(ctx context.Context, username string) (*account.User, error)
	List(ctx context.Context) ([]*account.User, error)
	Delete(ctx context.Context, id domain.UserID) error
}
