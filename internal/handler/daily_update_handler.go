package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amly-app/daily-digest-api/internal/models"
	"github.com/amly-app/daily-digest-api/internal/service"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
	"github.com/amly-app/daily-digest-api/pkg/response"
)

// DailyUpdateHandler exposes daily update composition and export endpoints.
type DailyUpdateHandler struct {
	composer *service.DailyUpdateService
	export   *service.DigestExportService
}

// NewDailyUpdateHandler builds a new handler.
func NewDailyUpdateHandler(composer *service.DailyUpdateService, export *service.DigestExportService) *DailyUpdateHandler {
	return &DailyUpdateHandler{composer: composer, export: export}
}

func audienceFromQuery(c *gin.Context) models.Audience {
	audience := models.Audience(c.DefaultQuery("audience", string(models.AudienceParent)))
	if !audience.Valid() {
		return models.AudienceParent
	}
	return audience
}

// Compose godoc
// @Summary Compose daily updates for the whole roster
// @Tags Daily Updates
// @Produce json
// @Param date query string true "ISO date (YYYY-MM-DD)"
// @Param audience query string false "parent or student" default(parent)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /daily-updates [get]
func (h *DailyUpdateHandler) Compose(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	batch, err := h.composer.Compose(c.Request.Context(), teacherIDFromContext(c), date, audienceFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// ComposeStudent godoc
// @Summary Compose the daily update for one student
// @Tags Daily Updates
// @Produce json
// @Param studentId path string true "Student ID"
// @Param date query string true "ISO date (YYYY-MM-DD)"
// @Param audience query string false "parent or student" default(parent)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /daily-updates/students/{studentId} [get]
func (h *DailyUpdateHandler) ComposeStudent(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	update, err := h.composer.ComposeForStudent(c.Request.Context(), teacherIDFromContext(c), c.Param("studentId"), date, audienceFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, update, nil)
}

// Export godoc
// @Summary Export the composed daily digest
// @Tags Daily Updates
// @Produce text/csv
// @Produce application/pdf
// @Param date query string true "ISO date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /daily-updates/export [get]
func (h *DailyUpdateHandler) Export(c *gin.Context) {
	if !h.export.Enabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export is disabled"))
		return
	}
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}

	teacherID := teacherIDFromContext(c)
	switch c.DefaultQuery("format", "csv") {
	case "pdf":
		payload, filename, err := h.export.ExportPDF(c.Request.Context(), teacherID, date)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "application/pdf", payload)
	case "csv":
		payload, filename, err := h.export.ExportCSV(c.Request.Context(), teacherID, date)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, "text/csv", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
