package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amly-app/daily-digest-api/internal/models"
	"github.com/amly-app/daily-digest-api/internal/service"
)

type listingTeacherDirectory struct {
	memoryTeacherDirectory
	lastFilter models.TeacherFilter
}

func (m *listingTeacherDirectory) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	m.lastFilter = filter
	var result []models.Teacher
	for _, teacher := range m.teachers {
		result = append(result, *teacher)
	}
	return result, len(result), nil
}

func newTeacherHandlerFixture() (*TeacherHandler, *listingTeacherDirectory) {
	directory := &listingTeacherDirectory{
		memoryTeacherDirectory: memoryTeacherDirectory{teachers: map[string]*models.Teacher{
			"t1": {ID: "t1", DisplayName: "Ms. Rivera", Active: true},
		}},
	}
	return NewTeacherHandler(service.NewTeacherService(directory, nil)), directory
}

func TestTeacherHandlerList(t *testing.T) {
	handler, directory := newTeacherHandlerFixture()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/teachers?search=rivera&active=true&page=2&limit=5", "", "t1")
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rivera", directory.lastFilter.Search)
	require.NotNil(t, directory.lastFilter.Active)
	assert.True(t, *directory.lastFilter.Active)
	assert.Equal(t, 2, directory.lastFilter.Page)
	assert.Equal(t, 5, directory.lastFilter.PageSize)
	assert.Contains(t, w.Body.String(), `"pagination"`)
}

func TestTeacherHandlerGet(t *testing.T) {
	handler, _ := newTeacherHandlerFixture()

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodGet, "/teachers/t1", "", "t1")
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ms. Rivera")

	w = httptest.NewRecorder()
	c = authedContext(t, w, http.MethodGet, "/teachers/ghost", "", "t1")
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}
	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}
