package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/amly-app/daily-digest-api/internal/models"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
)

type mockAuthRepo struct {
	users   map[string]*models.User
	byEmail map[string]string
	tokens  map[string]*models.RefreshToken
	revoked []string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:   map[string]*models.User{},
		byEmail: map[string]string{},
		tokens:  map[string]*models.RefreshToken{},
	}
}

func (m *mockAuthRepo) addUser(user models.User) {
	cp := user
	m.users[user.ID] = &cp
	m.byEmail[user.Email] = user.ID
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, token := range m.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	cp := *token
	m.tokens[token.Token] = &cp
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *stored
	return &cp, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for _, token := range m.tokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()
	repo := newMockAuthRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.addUser(models.User{
		ID:           "u1",
		Email:        "teacher@school.test",
		PasswordHash: string(hash),
		FullName:     "Ms. Rivera",
		Role:         models.RoleTeacher,
		Active:       true,
	})
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "daily-digest-api",
	})
	return svc, repo
}

func TestAuthLogin(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "teacher@school.test", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Len(t, repo.tokens, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthLoginRejections(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "teacher@school.test", Password: "wrong"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@school.test", Password: "x"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	repo.users["u1"].Active = false
	_, err = svc.Login(ctx, models.LoginRequest{Email: "teacher@school.test", Password: "correct horse"})
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthRefreshRotation(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "teacher@school.test", Password: "correct horse"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token was revoked, so replaying it is rejected.
	assert.True(t, repo.tokens[login.RefreshToken].Revoked)
	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: "unknown"})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthLogout(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	login, err := svc.Login(ctx, models.LoginRequest{Email: "teacher@school.test", Password: "correct horse"})
	require.NoError(t, err)

	err = svc.Logout(ctx, login.RefreshToken, "someone-else")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(ctx, login.RefreshToken, "u1"))
	assert.True(t, repo.tokens[login.RefreshToken].Revoked)
}

func TestValidateTokenRejectsForgery(t *testing.T) {
	svc, _ := newAuthFixture(t)
	other := NewAuthService(newMockAuthRepo(), nil, nil, AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Hour,
	})

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@school.test", Password: "correct horse"})
	require.NoError(t, err)

	_, err = other.ValidateToken(login.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.ValidateToken("not.a.jwt")
	require.Error(t, err)
}
