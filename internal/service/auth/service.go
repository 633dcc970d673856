package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mcastellanos/procadena/internal/model"
	"github.com/mcastellanos/procadena/internal/repository"
	"github.com/mcastellanos/procadena/internal/service/stage"
	"github.com/mcastellanos/procadena/pkg/auth"
	"github.com/mcastellanos/procadena/pkg/errors"
	"github.com/mcastellanos/procadena/pkg/logger"
	"github.com/mcastellanos/procadena/pkg/security"
)

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type Service struct {
	users    repository.UserRepository
	jwt      auth.JWTService
	hasher   security.PasswordHasher
	notifier stage.Notifier
	logger   *logger.Logger
}

func NewService(
	users repository.UserRepository,
	jwt auth.JWTService,
	hasher security.PasswordHasher,
	notifier stage.Notifier,
	logger *logger.Logger,
) *Service {
	return &Service{
		users:    users,
		jwt:      jwt,
		hasher:   hasher,
		notifier: notifier,
		logger:   logger,
	}
}

// Register creates a platform user and sends the welcome notification.
func (s *Service) Register(ctx context.Context, user *model.User, password string) error {
	if user.Email == "" {
		return errors.NewBadRequest("email is required", nil)
	}
	if existing, err := s.users.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		return errors.NewConflict("a user with this email already exists", nil)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return errors.NewBadRequest("invalid password", err)
	}
	user.PasswordHash = hash
	user.IsActive = true
	if user.Role == "" {
		user.Role = model.RoleSupplier
	}

	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, user.ID, model.EventWelcome, map[string]string{
			"first_name": user.FirstName,
		}, model.PriorityQueueNormal)
	}
	return nil
}

// Login verifies the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.Unauthorized("invalid credentials", nil)
	}
	if !user.IsActive {
		return nil, errors.Unauthorized("account is disabled", nil)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, errors.Unauthorized("invalid credentials", nil)
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error(err, "failed to record last login")
	}

	return &LoginResult{Token: token, User: user}, nil
}

// ChangePassword rotates a user's password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, oldPassword); err != nil {
		return errors.Unauthorized("invalid credentials", nil)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errors.NewBadRequest("invalid password", err)
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}
