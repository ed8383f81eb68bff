package account

import (
	"net/mail"
	"time"

	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

// User is an account in the system. PasswordHash is a bcrypt digest and never
// leaves the account package.
type User struct {
	ID           domain.UserID
	Username     string
	Email        string
	FullName     string
	PasswordHash []byte
	Role         domain.Role
	CreatedAt    time.Time
}

// Principal is the user's identity for authorization decisions.
func (u *User) Principal() domain.Principal {
	return domain.Principal{UserID: u.ID, Role: u.Role}
}

const minPasswordLength = 8

// RegisterInput carries a self-service student registration.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
}

func (in RegisterInput) Validate() error {
	if in.Username == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "username is required")
	}
	if len(in.Username) > 150 {
		return dErrors.New(dErrors.CodeInvalidInput, "username must be at most 150 characters")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeInvalidInput, "password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}
