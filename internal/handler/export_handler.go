package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/internal/service"
	"github.com/campusops/admissions-api/pkg/response"
)

type rosterExporter interface {
	Roster(ctx context.Context, format, department string, actor *models.Admin) (*service.RosterExport, error)
}

// ExportHandler produces tabular roster exports.
type ExportHandler struct {
	exports rosterExporter
	auth    adminLoader
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports rosterExporter, auth adminLoader) *ExportHandler {
	return &ExportHandler{exports: exports, auth: auth}
}

// Roster godoc
// @Summary Export the admission roster
// @Description Downloads the roster as CSV or PDF
// @Tags Admin
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Param department query string false "Filter by department"
// @Success 200 {file} binary
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /students/export [get]
func (h *ExportHandler) Roster(c *gin.Context) {
	actor, err := currentAdmin(c, h.auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	export, err := h.exports.Roster(c.Request.Context(), c.DefaultQuery("format", "csv"), c.Query("department"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, export.ContentType, export.Payload)
}
