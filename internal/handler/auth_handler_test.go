package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/amly-app/daily-digest-api/internal/models"
	"github.com/amly-app/daily-digest-api/internal/service"
)

type memoryAuthStore struct {
	users   map[string]*models.User
	byEmail map[string]string
	tokens  map[string]*models.RefreshToken
}

func (m *memoryAuthStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *memoryAuthStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (m *memoryAuthStore) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *memoryAuthStore) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, token := range m.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *memoryAuthStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	cp := *token
	m.tokens[token.Token] = &cp
	return nil
}

func (m *memoryAuthStore) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *stored
	return &cp, nil
}

func (m *memoryAuthStore) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.tokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func newAuthHandlerFixture(t *testing.T) *AuthHandler {
	t.Helper()
	store := &memoryAuthStore{
		users:   map[string]*models.User{},
		byEmail: map[string]string{},
		tokens:  map[string]*models.RefreshToken{},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           "u1",
		Email:        "teacher@school.test",
		PasswordHash: string(hash),
		FullName:     "Ms. Rivera",
		Role:         models.RoleTeacher,
		Active:       true,
	}
	store.users[user.ID] = user
	store.byEmail[user.Email] = user.ID

	svc := service.NewAuthService(store, nil, nil, service.AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "daily-digest-api",
	})
	return NewAuthHandler(svc)
}

func TestAuthHandlerLogin(t *testing.T) {
	handler := newAuthHandlerFixture(t)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/auth/login", `{"email":"teacher@school.test","password":"correct horse"}`, "")
	handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
}

func TestAuthHandlerLoginWrongPassword(t *testing.T) {
	handler := newAuthHandlerFixture(t)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/auth/login", `{"email":"teacher@school.test","password":"wrong"}`, "")
	handler.Login(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
}

func TestAuthHandlerRefresh(t *testing.T) {
	handler := newAuthHandlerFixture(t)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/auth/login", `{"email":"teacher@school.test","password":"correct horse"}`, "")
	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope.Data.(map[string]interface{})
	refresh := data["refresh_token"].(string)

	payload, err := json.Marshal(map[string]string{"refresh_token": refresh})
	require.NoError(t, err)
	w = httptest.NewRecorder()
	c = authedContext(t, w, http.MethodPost, "/auth/refresh", string(payload), "")
	handler.Refresh(c)
	require.Equal(t, http.StatusOK, w.Code)

	// The rotated-out token no longer works.
	w = httptest.NewRecorder()
	c = authedContext(t, w, http.MethodPost, "/auth/refresh", string(payload), "")
	handler.Refresh(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	handler := newAuthHandlerFixture(t)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/auth/me", "", "u1")
	handler.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"u1"`)
}

func TestAuthHandlerMeUnauthenticated(t *testing.T) {
	handler := newAuthHandlerFixture(t)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/auth/me", nil)
	require.NoError(t, err)
	c.Request = req
	handler.Me(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}
