package handler

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/response"
)

type slipService interface {
	PrintDocument(ctx context.Context, studentID string, actor *models.Admin, clientIP, userAgent string) (*dto.PrintDocumentResponse, error)
	ResolveDownload(token string) (*os.File, string, error)
}

// SlipHandler exposes admission slip printing and signed document
// downloads.
type SlipHandler struct {
	slips slipService
	auth  adminLoader
}

// NewSlipHandler constructs SlipHandler.
func NewSlipHandler(slips slipService, auth adminLoader) *SlipHandler {
	return &SlipHandler{slips: slips, auth: auth}
}

// Print godoc
// @Summary Get the admission slip link
// @Description Returns a signed link to the slip, rendering it on demand for verified students
// @Tags Slips
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} dto.PrintDocumentResponse
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /students/{id}/print-document [get]
func (h *SlipHandler) Print(c *gin.Context) {
	actor, err := currentAdmin(c, h.auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.slips.PrintDocument(c.Request.Context(), c.Param("id"), actor, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	res.Base = response.OK()
	response.JSON(c, http.StatusOK, *res)
}

// Download godoc
// @Summary Download a document via signed token
// @Description Streams the slip or uploaded scan the token references; the token is the capability
// @Tags Slips
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /documents/{token} [get]
func (h *SlipHandler) Download(c *gin.Context) {
	file, relPath, err := h.slips.ResolveDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unable to read document"))
		return
	}

	name := filepath.Base(relPath)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", name))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
