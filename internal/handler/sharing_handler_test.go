package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amly-app/daily-digest-api/internal/models"
	"github.com/amly-app/daily-digest-api/internal/service"
)

type memorySharingStore struct {
	requests map[string]*models.SharingRequest
	seq      int
}

func newMemorySharingStore() *memorySharingStore {
	return &memorySharingStore{requests: map[string]*models.SharingRequest{}}
}

func (m *memorySharingStore) Create(ctx context.Context, request *models.SharingRequest) error {
	if request.ID == "" {
		m.seq++
		request.ID = fmt.Sprintf("req-%d", m.seq)
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	cp := *request
	m.requests[request.ID] = &cp
	return nil
}

func (m *memorySharingStore) GetByID(ctx context.Context, id string) (*models.SharingRequest, error) {
	request, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *request
	return &cp, nil
}

func (m *memorySharingStore) ListPendingForTarget(ctx context.Context, targetTeacherID string, now time.Time) ([]models.SharingRequest, error) {
	var result []models.SharingRequest
	for _, request := range m.requests {
		if request.TargetTeacherID == targetTeacherID && request.Status == models.SharingPending && request.ExpiresAt.After(now) {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (m *memorySharingStore) Resolve(ctx context.Context, id string, status models.SharingStatus, resolvedAt time.Time) (bool, error) {
	request, ok := m.requests[id]
	if !ok || request.Status != models.SharingPending {
		return false, nil
	}
	request.Status = status
	request.ResolvedAt = &resolvedAt
	return true, nil
}

type memoryTeacherDirectory struct {
	teachers map[string]*models.Teacher
}

func (m *memoryTeacherDirectory) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := m.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *teacher
	return &cp, nil
}

func newSharingHandlerFixture(t *testing.T) (*SharingHandler, *memorySharingStore) {
	t.Helper()
	store := newMemorySharingStore()
	teachers := &memoryTeacherDirectory{teachers: map[string]*models.Teacher{
		"alice": {ID: "alice", DisplayName: "Alice Smith", Active: true},
		"bob":   {ID: "bob", DisplayName: "Bob Jones", Active: true},
	}}
	library := service.NewContentLibraryService(newMemoryLibraryStore(), nil, 0, nil)
	svc := service.NewSharingService(store, teachers, library, nil, 0, nil)
	return NewSharingHandler(svc), store
}

func TestSharingHandlerCreate(t *testing.T) {
	handler, store := newSharingHandlerFixture(t)

	w := httptest.NewRecorder()
	body := `{"targetTeacherId":"bob","contentTypes":["greetings"],"strategy":"merge"}`
	c := authedContext(t, w, http.MethodPost, "/sharing-requests", body, "alice")
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.requests, 1)
	assert.Contains(t, w.Body.String(), `"pending"`)
	assert.Contains(t, w.Body.String(), `"Alice Smith"`)
}

func TestSharingHandlerCreateSelfShare(t *testing.T) {
	handler, _ := newSharingHandlerFixture(t)

	w := httptest.NewRecorder()
	body := `{"targetTeacherId":"alice","contentTypes":["greetings"],"strategy":"merge"}`
	c := authedContext(t, w, http.MethodPost, "/sharing-requests", body, "alice")
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SELF_SHARE_REJECTED", errorCode(t, w))
}

func TestSharingHandlerCreateUnknownTarget(t *testing.T) {
	handler, _ := newSharingHandlerFixture(t)

	w := httptest.NewRecorder()
	body := `{"targetTeacherId":"ghost","contentTypes":["greetings"],"strategy":"merge"}`
	c := authedContext(t, w, http.MethodPost, "/sharing-requests", body, "alice")
	handler.Create(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TARGET_NOT_FOUND", errorCode(t, w))
}

func createPendingRequest(t *testing.T, handler *SharingHandler) string {
	t.Helper()
	w := httptest.NewRecorder()
	body := `{"targetTeacherId":"bob","contentTypes":["greetings"],"strategy":"merge"}`
	c := authedContext(t, w, http.MethodPost, "/sharing-requests", body, "alice")
	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	envelope := decodeEnvelope(t, w)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	id, ok := data["id"].(string)
	require.True(t, ok)
	return id
}

func TestSharingHandlerListPending(t *testing.T) {
	handler, _ := newSharingHandlerFixture(t)
	id := createPendingRequest(t, handler)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/sharing-requests/pending", "", "bob")
	handler.ListPending(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)

	// The source teacher has no incoming requests.
	w = httptest.NewRecorder()
	c = authedContext(t, w, http.MethodGet, "/sharing-requests/pending", "", "alice")
	handler.ListPending(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), id)
}

func TestSharingHandlerAccept(t *testing.T) {
	handler, store := newSharingHandlerFixture(t)
	id := createPendingRequest(t, handler)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/sharing-requests/"+id+"/accept", "", "bob")
	c.Params = gin.Params{{Key: "id", Value: id}}
	handler.Accept(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"appliedCounts"`)
	assert.Equal(t, models.SharingAccepted, store.requests[id].Status)

	// A second accept hits the conflict guard.
	w = httptest.NewRecorder()
	c = authedContext(t, w, http.MethodPost, "/sharing-requests/"+id+"/accept", "", "bob")
	c.Params = gin.Params{{Key: "id", Value: id}}
	handler.Accept(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_RESOLVED", errorCode(t, w))
}

func TestSharingHandlerAcceptWrongTeacher(t *testing.T) {
	handler, store := newSharingHandlerFixture(t)
	id := createPendingRequest(t, handler)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/sharing-requests/"+id+"/accept", "", "alice")
	c.Params = gin.Params{{Key: "id", Value: id}}
	handler.Accept(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))
	assert.Equal(t, models.SharingPending, store.requests[id].Status)
}

func TestSharingHandlerReject(t *testing.T) {
	handler, store := newSharingHandlerFixture(t)
	id := createPendingRequest(t, handler)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/sharing-requests/"+id+"/reject", "", "bob")
	c.Params = gin.Params{{Key: "id", Value: id}}
	handler.Reject(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SharingRejected, store.requests[id].Status)
}
