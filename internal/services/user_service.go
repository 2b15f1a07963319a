package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/torunhut/api/internal/domain"
	"github.com/torunhut/api/internal/repositories"
)

var (
	// ErrUserInvalidInput indicates the caller supplied invalid user data.
	ErrUserInvalidInput = errors.New("user service: invalid input")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user service: not found")
	// ErrUserUnavailable indicates the service cannot reach its backend.
	ErrUserUnavailable = errors.New("user service: unavailable")
)

// UserServiceDeps wires the user service dependencies.
type UserServiceDeps struct {
	Users  repositories.UserRepository
	Clock  func() time.Time
	Logger func(context.Context, string, map[string]any)
}

type userService struct {
	users  repositories.UserRepository
	now    func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewUserService constructs a UserService enforcing dependency validation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = func(context.Context, string, map[string]any) {}
	}

	clock := deps.Clock
	return &userService{
		users:  deps.Users,
		now:    func() time.Time { return clock().UTC() },
		logger: deps.Logger,
	}, nil
}

// SyncUser upserts the account from a verified identity token. First sign-in
// creates the record with the shopper role; later sign-ins refresh the
// profile fields and last-login timestamp but never touch the role.
func (s *userService) SyncUser(ctx context.Context, cmd SyncUserCommand) (User, error) {
	if s == nil || s.users == nil {
		return User{}, ErrUserUnavailable
	}
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}

	now := s.now()
	user := domain.User{
		ID:          uid,
		Email:       strings.TrimSpace(cmd.Email),
		DisplayName: strings.TrimSpace(cmd.DisplayName),
		PhotoURL:    strings.TrimSpace(cmd.PhotoURL),
		Role:        domain.RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: now,
	}

	existing, err := s.users.FindByID(ctx, uid)
	switch {
	case err == nil:
		user.Role = existing.Role
		user.CreatedAt = existing.CreatedAt
	case isRepoNotFound(err):
		// First sign-in.
	default:
		return User{}, s.translateRepoError(err)
	}

	saved, err := s.users.Upsert(ctx, user)
	if err != nil {
		return User{}, s.translateRepoError(err)
	}
	return saved, nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, ErrUserUnavailable
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return User{}, ErrUserInvalidInput
	}
	user, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return User{}, s.translateRepoError(err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, pager Pagination) (domain.CursorPage[User], error) {
	if s == nil || s.users == nil {
		return domain.CursorPage[User]{}, ErrUserUnavailable
	}
	page, err := s.users.List(ctx, pager)
	if err != nil {
		return domain.CursorPage[User]{}, s.translateRepoError(err)
	}
	return page, nil
}

// ChangeRole promotes or demotes an account. Admins cannot demote themselves,
// so a store always keeps at least the acting admin.
func (s *userService) ChangeRole(ctx context.Context, cmd ChangeRoleCommand) (User, error) {
	if s == nil || s.users == nil {
		return User{}, ErrUserUnavailable
	}
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	role, ok := domain.ParseUserRole(cmd.Role)
	if !ok {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrUserInvalidInput, cmd.Role)
	}
	if uid == strings.TrimSpace(cmd.ActorID) && role != domain.RoleAdmin {
		return User{}, fmt.Errorf("%w: admins cannot demote themselves", ErrUserInvalidInput)
	}

	updated, err := s.users.UpdateRole(ctx, uid, role, s.now())
	if err != nil {
		return User{}, s.translateRepoError(err)
	}
	s.logger(ctx, "user.role_changed", map[string]any{
		"userID":  uid,
		"role":    string(role),
		"actorID": cmd.ActorID,
	})
	return updated, nil
}

func (s *userService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrUserNotFound
	}
	return ErrUserUnavailable
}
