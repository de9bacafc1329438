package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amly-app/daily-digest-api/internal/middleware"
	"github.com/amly-app/daily-digest-api/internal/models"
	"github.com/amly-app/daily-digest-api/internal/service"
	"github.com/amly-app/daily-digest-api/pkg/response"
)

// memoryLibraryStore is an in-memory stand-in for the content library
// repository, shared by the handler tests in this package.
type memoryLibraryStore struct {
	libraries map[string]*models.ContentLibrary
}

func newMemoryLibraryStore() *memoryLibraryStore {
	return &memoryLibraryStore{libraries: map[string]*models.ContentLibrary{}}
}

func copyLibrary(library *models.ContentLibrary) *models.ContentLibrary {
	cp := *library
	cp.Sections = models.SectionMap{}
	for contentType, fragments := range library.Sections {
		cp.Sections[contentType] = append([]models.Fragment(nil), fragments...)
	}
	return &cp
}

func (m *memoryLibraryStore) GetByTeacher(ctx context.Context, teacherID string) (*models.ContentLibrary, error) {
	library, ok := m.libraries[teacherID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return copyLibrary(library), nil
}

func (m *memoryLibraryStore) Create(ctx context.Context, library *models.ContentLibrary) error {
	m.libraries[library.TeacherID] = copyLibrary(library)
	return nil
}

func (m *memoryLibraryStore) ReplaceSection(ctx context.Context, teacherID string, contentType models.ContentType, fragments []models.Fragment) (int, error) {
	library, ok := m.libraries[teacherID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	library.Sections[contentType] = append([]models.Fragment(nil), fragments...)
	library.Version++
	return library.Version, nil
}

func (m *memoryLibraryStore) ReplaceSections(ctx context.Context, teacherID string, sections models.SectionMap) (int, error) {
	library, ok := m.libraries[teacherID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	for contentType, fragments := range sections {
		library.Sections[contentType] = append([]models.Fragment(nil), fragments...)
	}
	library.Version++
	return library.Version, nil
}

func authedContext(t *testing.T, w *httptest.ResponseRecorder, method, target, body, teacherID string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: teacherID, Role: models.RoleTeacher})
	return c
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	return envelope.Error.Code
}

func newContentFixture() (*ContentHandler, *memoryLibraryStore) {
	store := newMemoryLibraryStore()
	svc := service.NewContentLibraryService(store, nil, 0, nil)
	return NewContentHandler(svc), store
}

func TestContentHandlerGetInitializesDefaults(t *testing.T) {
	handler, store := newContentFixture()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/content-library", "", "t1")
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, store.libraries, "t1")
	assert.Contains(t, w.Body.String(), `"greetings"`)
	assert.Contains(t, w.Body.String(), `"visualThemes"`)
}

func TestContentHandlerAddFragment(t *testing.T) {
	handler, store := newContentFixture()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/content-library/greetings", `{"fragment":"Hello {firstName}!"}`, "t1")
	c.Params = gin.Params{{Key: "contentType", Value: "greetings"}}
	handler.AddFragment(c)

	require.Equal(t, http.StatusCreated, w.Code)
	library := store.libraries["t1"]
	require.NotNil(t, library)
	last := library.Sections[models.ContentGreetings][len(library.Sections[models.ContentGreetings])-1]
	assert.True(t, models.FragmentsEqual(last, models.TextFragment("Hello {firstName}!")))
}

func TestContentHandlerAddFragmentUnknownType(t *testing.T) {
	handler, _ := newContentFixture()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/content-library/salutations", `{"fragment":"Hi"}`, "t1")
	c.Params = gin.Params{{Key: "contentType", Value: "salutations"}}
	handler.AddFragment(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CONTENT_TYPE", errorCode(t, w))
}

func TestContentHandlerAddFragmentMalformedBody(t *testing.T) {
	handler, _ := newContentFixture()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/content-library/greetings", `{"fragment":`, "t1")
	c.Params = gin.Params{{Key: "contentType", Value: "greetings"}}
	handler.AddFragment(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestContentHandlerUpdateFragmentBadIndex(t *testing.T) {
	handler, _ := newContentFixture()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPut, "/content-library/greetings/abc", `{"fragment":"Hi"}`, "t1")
	c.Params = gin.Params{{Key: "contentType", Value: "greetings"}, {Key: "index", Value: "abc"}}
	handler.UpdateFragment(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestContentHandlerDeleteFragmentOutOfRange(t *testing.T) {
	handler, _ := newContentFixture()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodDelete, "/content-library/greetings/99", "", "t1")
	c.Params = gin.Params{{Key: "contentType", Value: "greetings"}, {Key: "index", Value: "99"}}
	handler.DeleteFragment(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INDEX_OUT_OF_RANGE", errorCode(t, w))
}

func TestContentHandlerBulkReplaceAndReset(t *testing.T) {
	handler, store := newContentFixture()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPut, "/content-library/motivationalQuotes", `["Only one quote."]`, "t1")
	c.Params = gin.Params{{Key: "contentType", Value: "motivationalQuotes"}}
	handler.BulkReplace(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.libraries["t1"].Sections[models.ContentMotivationalQuotes], 1)

	w = httptest.NewRecorder()
	c = authedContext(t, w, http.MethodPost, "/content-library/reset", "", "t1")
	handler.Reset(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Greater(t, len(store.libraries["t1"].Sections[models.ContentMotivationalQuotes]), 1)
}

func TestContentHandlerSelectRequiresQuery(t *testing.T) {
	handler, _ := newContentFixture()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/content-library/greetings/select", "", "t1")
	c.Params = gin.Params{{Key: "contentType", Value: "greetings"}}
	handler.Select(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestContentHandlerSelectIsDeterministic(t *testing.T) {
	handler, _ := newContentFixture()

	run := func() string {
		w := httptest.NewRecorder()
		c := authedContext(t, w, http.MethodGet, "/content-library/greetings/select?studentId=s1&date=2024-01-10&firstName=Ana", "", "t1")
		c.Params = gin.Params{{Key: "contentType", Value: "greetings"}}
		handler.Select(c)
		require.Equal(t, http.StatusOK, w.Code)
		return w.Body.String()
	}

	first := run()
	assert.Equal(t, first, run())
	assert.Contains(t, first, "Ana")
}
