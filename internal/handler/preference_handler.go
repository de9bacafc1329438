package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amly-app/daily-digest-api/internal/dto"
	"github.com/amly-app/daily-digest-api/internal/service"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
	"github.com/amly-app/daily-digest-api/pkg/response"
)

// PreferenceHandler exposes email preference endpoints.
type PreferenceHandler struct {
	service *service.PreferenceService
}

// NewPreferenceHandler builds a new handler.
func NewPreferenceHandler(svc *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: svc}
}

// Get godoc
// @Summary Get email preferences
// @Description Returns the acting teacher's preferences, or the defaults when none were saved
// @Tags Preferences
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /email-preferences [get]
func (h *PreferenceHandler) Get(c *gin.Context) {
	prefs, err := h.service.Get(c.Request.Context(), teacherIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// Update godoc
// @Summary Update email preferences
// @Description Normalizes the supplied audience documents before persisting
// @Tags Preferences
// @Accept json
// @Produce json
// @Param payload body dto.UpdatePreferencesRequest true "Preference documents per audience"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /email-preferences [put]
func (h *PreferenceHandler) Update(c *gin.Context) {
	var req dto.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preferences payload"))
		return
	}
	prefs, err := h.service.Update(c.Request.Context(), teacherIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}
