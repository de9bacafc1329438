package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amly-app/daily-digest-api/internal/dto"
	"github.com/amly-app/daily-digest-api/internal/models"
	"github.com/amly-app/daily-digest-api/internal/service"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
	"github.com/amly-app/daily-digest-api/pkg/response"
)

// SharingHandler exposes the content sharing workflow endpoints.
type SharingHandler struct {
	service *service.SharingService
}

// NewSharingHandler builds a new handler.
func NewSharingHandler(svc *service.SharingService) *SharingHandler {
	return &SharingHandler{service: svc}
}

// Create godoc
// @Summary Offer library content to another teacher
// @Tags Sharing
// @Accept json
// @Produce json
// @Param payload body dto.CreateSharingRequest true "Sharing request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sharing-requests [post]
func (h *SharingHandler) Create(c *gin.Context) {
	var req dto.CreateSharingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sharing payload"))
		return
	}
	request, err := h.service.Create(c.Request.Context(), teacherIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, summarize(*request))
}

// ListPending godoc
// @Summary List unexpired pending requests addressed to the acting teacher
// @Tags Sharing
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sharing-requests/pending [get]
func (h *SharingHandler) ListPending(c *gin.Context) {
	requests, err := h.service.ListPending(c.Request.Context(), teacherIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	summaries := make([]dto.SharingRequestSummary, 0, len(requests))
	for _, request := range requests {
		summaries = append(summaries, summarize(request))
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Accept godoc
// @Summary Accept a sharing request
// @Tags Sharing
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sharing-requests/{id}/accept [post]
func (h *SharingHandler) Accept(c *gin.Context) {
	result, err := h.service.Accept(c.Request.Context(), c.Param("id"), teacherIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reject godoc
// @Summary Reject a sharing request
// @Tags Sharing
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sharing-requests/{id}/reject [post]
func (h *SharingHandler) Reject(c *gin.Context) {
	result, err := h.service.Reject(c.Request.Context(), c.Param("id"), teacherIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func summarize(request models.SharingRequest) dto.SharingRequestSummary {
	return dto.SharingRequestSummary{
		ID:                request.ID,
		SourceTeacherID:   request.SourceTeacherID,
		SourceTeacherName: request.SourceTeacherName,
		ContentTypes:      request.ContentTypes,
		Strategy:          string(request.Strategy),
		Status:            string(request.Status),
		CreatedAt:         request.CreatedAt.Format(time.RFC3339),
		ExpiresAt:         request.ExpiresAt.Format(time.RFC3339),
	}
}
