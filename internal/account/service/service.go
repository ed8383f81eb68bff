package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"campusbourses/internal/account"
	"campusbourses/internal/account/store"
	"campusbourses/internal/audit"
	"campusbourses/internal/authz"
	"campusbourses/internal/jwttoken"
	"campusbourses/internal/notification"
	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
	"campusbourses/pkg/platform/sentinel"
	"campusbourses/pkg/platform/tx"
)

const tokenTTL = 24 * time.Hour

// ApplicationPurger removes every application a student owns.
type ApplicationPurger interface {
	DeleteAllForStudent(ctx context.Context, studentID domain.UserID) (int, error)
}

// DocumentPurger removes every document a student owns, blobs included.
type DocumentPurger interface {
	DeleteAllForStudent(ctx context.Context, studentID domain.UserID) (int, error)
}

// NotificationPurger removes every notification addressed to a student.
type NotificationPurger interface {
	DeleteAll(ctx context.Context, studentID domain.UserID) (int, error)
}

// Service manages accounts: registration, login, admin listing, and deletion
// with cascade of the target's owned records. Reviewer and verifier references
// on other entities are non-owning and survive the owner's deletion.
type Service struct {
	store      store.Store
	tokens     *jwttoken.Service
	notifSink  notification.Writer
	dispatcher *notification.Dispatcher
	runner     tx.Runner
	audit      *audit.Publisher
	logger     *slog.Logger

	applications  ApplicationPurger
	documents     DocumentPurger
	notifications NotificationPurger
}

func NewService(
	st store.Store,
	tokens *jwttoken.Service,
	sink notification.Writer,
	dispatcher *notification.Dispatcher,
	runner tx.Runner,
	auditPub *audit.Publisher,
	logger *slog.Logger,
	applications ApplicationPurger,
	documents DocumentPurger,
	notifications NotificationPurger,
) *Service {
	return &Service{
		store:         st,
		tokens:        tokens,
		notifSink:     sink,
		dispatcher:    dispatcher,
		runner:        runner,
		audit:         auditPub,
		logger:        logger,
		applications:  applications,
		documents:     documents,
		notifications: notifications,
	}
}

// Register creates a student account and notifies the admin pool. Self-service
// registration never creates admins.
func (s *Service) Register(ctx context.Context, in account.RegisterInput) (*account.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &account.User{
		ID:           domain.NewUserID(),
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Role:         domain.RoleStudent,
		CreatedAt:    time.Now(),
	}
	err = s.runner.RunInTx(ctx, user.ID.String(), func(ctx context.Context) error {
		if err := s.store.Create(ctx, user); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeInvalidInput, "username or email already in use")
			}
			return dErrors.Wrap(err, dErrors.CodeStorage, "failed to create user")
		}
		return s.dispatcher.UserRegistered(ctx, s.notifSink, user.ID, user.Username)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionUserRegistered,
		ActorID:  user.ID.String(),
		EntityID: user.ID.String(),
		Detail:   user.Username,
	})
	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(), "username", user.Username)
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*account.Session, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(user.Principal(), tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &account.Session{
		Token:     token,
		ExpiresAt: time.Now().Add(tokenTTL),
		User:      user,
	}, nil
}

// Get returns one account. Users see themselves; admins see anyone.
func (s *Service) Get(ctx context.Context, p domain.Principal, id domain.UserID) (*account.User, error) {
	if err := authz.RequireOwnerOrAdmin(p, id); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// List returns every account.
func (s *Service) List(ctx context.Context, p domain.Principal) ([]*account.User, error) {
	if err := authz.Authorize(p, authz.OpAccountList); err != nil {
		return nil, err
	}
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to list users")
	}
	return users, nil
}

// Delete removes an account and cascades over the records it OWNS:
// applications, documents (with blobs) and notifications addressed to it.
// Records merely referencing the user as reviewer or verifier are untouched.
// Admins cannot delete their own account.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id domain.UserID) error {
	if err := authz.Authorize(p, authz.OpAccountDelete); err != nil {
		return err
	}
	if p.UserID == id {
		return dErrors.New(dErrors.CodePermissionDenied, "you cannot delete your own account")
	}

	target, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	apps, err := s.applications.DeleteAllForStudent(ctx, id)
	if err != nil {
		return err
	}
	docs, err := s.documents.DeleteAllForStudent(ctx, id)
	if err != nil {
		return err
	}
	notifs, err := s.notifications.DeleteAll(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeStorage, "failed to delete user")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionUserDeleted,
		ActorID:  p.UserID.String(),
		EntityID: id.String(),
		Detail:   target.Username,
	})
	s.logger.InfoContext(ctx, "user deleted",
		"user_id", id.String(),
		"deleted_by", p.UserID.String(),
		"applications", apps,
		"documents", docs,
		"notifications", notifs,
	)
	return nil
}

func (s *Service) find(ctx context.Context, id domain.UserID) (*account.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to load user")
	}
	return user, nil
}
