package auth_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcastellanos/procadena/internal/model"
	authService "github.com/mcastellanos/procadena/internal/service/auth"
	"github.com/mcastellanos/procadena/pkg/auth"
	"github.com/mcastellanos/procadena/pkg/logger"
	"github.com/mcastellanos/procadena/pkg/security"
)

type fakeUsers struct {
	items map[uuid.UUID]*model.User
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.items[u.ID] = u
	return nil
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.items {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user not found")
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.items[u.ID] = u
	return nil
}

func (f *fakeUsers) List(_ context.Context, _ model.UserRole) ([]*model.User, error) {
	return nil, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(_ context.Context, _ uuid.UUID, _ model.EventKind, _ map[string]string, _ model.Priority) {
}

func newService() (*authService.Service, *fakeUsers, auth.JWTService) {
	users := &fakeUsers{items: map[uuid.UUID]*model.User{}}
	jwtSvc := auth.NewJWTService("test-secret", 1)
	quiet := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	svc := authService.NewService(users, jwtSvc, security.NewBcryptHasher(4), noopNotifier{}, quiet)
	return svc, users, jwtSvc
}

func register(t *testing.T, svc *authService.Service, email, password string) *model.User {
	t.Helper()
	user := &model.User{Email: email, FirstName: "Ana", LastName: "Rojas"}
	require.NoError(t, svc.Register(context.Background(), user, password))
	return user
}

func TestRegisterDefaults(t *testing.T) {
	svc, users, _ := newService()

	user := register(t, svc, "ana@example.com", "s3cret-pass")
	assert.Equal(t, model.RoleSupplier, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.Len(t, users.items, 1)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newService()
	register(t, svc, "ana@example.com", "s3cret-pass")

	err := svc.Register(context.Background(), &model.User{Email: "ana@example.com"}, "other-pass")
	assert.Error(t, err)
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, _, jwtSvc := newService()
	user := register(t, svc, "ana@example.com", "s3cret-pass")

	result, err := svc.Login(context.Background(), "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.NotNil(t, result.User.LastLoginAt)

	claims, err := jwtSvc.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _, _ := newService()
	register(t, svc, "ana@example.com", "s3cret-pass")

	_, err := svc.Login(context.Background(), "ana@example.com", "wrong")
	assert.Error(t, err)

	_, err = svc.Login(context.Background(), "nobody@example.com", "s3cret-pass")
	assert.Error(t, err)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	svc, users, _ := newService()
	user := register(t, svc, "ana@example.com", "s3cret-pass")
	users.items[user.ID].IsActive = false

	_, err := svc.Login(context.Background(), "ana@example.com", "s3cret-pass")
	assert.Error(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newService()
	user := register(t, svc, "ana@example.com", "s3cret-pass")
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.ID, "wrong", "new-pass-123")
	assert.Error(t, err)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "s3cret-pass", "new-pass-123"))

	_, err = svc.Login(ctx, "ana@example.com", "s3cret-pass")
	assert.Error(t, err, "old password no longer works")

	_, err = svc.Login(ctx, "ana@example.com", "new-pass-123")
	assert.NoError(t, err)
}
