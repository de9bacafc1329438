package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amly-app/daily-digest-api/internal/dto"
	"github.com/amly-app/daily-digest-api/internal/models"
	"github.com/amly-app/daily-digest-api/internal/service"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
	"github.com/amly-app/daily-digest-api/pkg/response"
)

// ContentHandler exposes the per-teacher content library endpoints.
type ContentHandler struct {
	service *service.ContentLibraryService
}

// NewContentHandler builds a new handler.
func NewContentHandler(svc *service.ContentLibraryService) *ContentHandler {
	return &ContentHandler{service: svc}
}

// Get godoc
// @Summary Get the content library
// @Description Returns the acting teacher's library, initializing it with defaults on first access
// @Tags Content Library
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /content-library [get]
func (h *ContentHandler) Get(c *gin.Context) {
	library, err := h.service.Get(c.Request.Context(), teacherIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, library, nil)
}

// AddFragment godoc
// @Summary Append a fragment to a content type
// @Tags Content Library
// @Accept json
// @Produce json
// @Param contentType path string true "Content type"
// @Param payload body dto.AddFragmentRequest true "Fragment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /content-library/{contentType} [post]
func (h *ContentHandler) AddFragment(c *gin.Context) {
	var req dto.AddFragmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fragment payload"))
		return
	}
	library, err := h.service.AddFragment(c.Request.Context(), teacherIDFromContext(c), models.ContentType(c.Param("contentType")), models.Fragment(req.Fragment))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, library)
}

// UpdateFragment godoc
// @Summary Replace the fragment at an index
// @Tags Content Library
// @Accept json
// @Produce json
// @Param contentType path string true "Content type"
// @Param index path int true "Fragment index"
// @Param payload body dto.UpdateFragmentRequest true "Fragment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /content-library/{contentType}/{index} [put]
func (h *ContentHandler) UpdateFragment(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "index must be an integer"))
		return
	}
	var req dto.UpdateFragmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fragment payload"))
		return
	}
	library, err := h.service.UpdateFragment(c.Request.Context(), teacherIDFromContext(c), models.ContentType(c.Param("contentType")), index, models.Fragment(req.Fragment))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, library, nil)
}

// DeleteFragment godoc
// @Summary Delete the fragment at an index
// @Tags Content Library
// @Produce json
// @Param contentType path string true "Content type"
// @Param index path int true "Fragment index"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /content-library/{contentType}/{index} [delete]
func (h *ContentHandler) DeleteFragment(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "index must be an integer"))
		return
	}
	library, err := h.service.DeleteFragment(c.Request.Context(), teacherIDFromContext(c), models.ContentType(c.Param("contentType")), index)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, library, nil)
}

// BulkReplace godoc
// @Summary Replace the whole sequence for a content type
// @Tags Content Library
// @Accept json
// @Produce json
// @Param contentType path string true "Content type"
// @Param payload body []json.RawMessage true "Full fragment sequence"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /content-library/{contentType} [put]
func (h *ContentHandler) BulkReplace(c *gin.Context) {
	var fragments []models.Fragment
	if err := c.ShouldBindJSON(&fragments); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fragment sequence"))
		return
	}
	library, err := h.service.BulkReplace(c.Request.Context(), teacherIDFromContext(c), models.ContentType(c.Param("contentType")), fragments)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, library, nil)
}

// Reset godoc
// @Summary Reset the library to the default catalog
// @Tags Content Library
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /content-library/reset [post]
func (h *ContentHandler) Reset(c *gin.Context) {
	library, err := h.service.Reset(c.Request.Context(), teacherIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, library, nil)
}

// Select godoc
// @Summary Preview the deterministic pick for a content type
// @Tags Content Library
// @Produce json
// @Param contentType path string true "Content type"
// @Param studentId query string true "Student ID"
// @Param date query string true "ISO date (YYYY-MM-DD)"
// @Param firstName query string false "Student first name for placeholder rendering"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /content-library/{contentType}/select [get]
func (h *ContentHandler) Select(c *gin.Context) {
	var req dto.SelectContentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "studentId and date are required"))
		return
	}
	contentType := models.ContentType(c.Param("contentType"))
	values := map[string]string{"firstName": req.FirstName}

	index, fragment, rendered, err := h.service.SelectContent(c.Request.Context(), teacherIDFromContext(c), contentType, req.StudentID, req.Date, values)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SelectedContentResponse{
		ContentType: string(contentType),
		Index:       index,
		Fragment:    fragment,
		Rendered:    rendered,
	}, nil)
}
