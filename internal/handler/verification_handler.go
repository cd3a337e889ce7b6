package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/response"
)

type verificationService interface {
	Checklist(ctx context.Context, studentID string, actor *models.Admin) (*dto.DocumentChecklist, map[string]string, error)
	Save(ctx context.Context, studentID string, req dto.SaveDocumentsRequest, actor *models.Admin, clientIP, userAgent string) (*dto.SaveDocumentsResponse, error)
	BulkVerify(ctx context.Context, req dto.BulkVerifyRequest, actor *models.Admin, clientIP, userAgent string) (*dto.BulkVerifyResponse, error)
}

// VerificationHandler exposes the document checklist endpoints used by
// the verification console.
type VerificationHandler struct {
	verification verificationService
	auth         adminLoader
}

// NewVerificationHandler constructs VerificationHandler.
func NewVerificationHandler(verification verificationService, auth adminLoader) *VerificationHandler {
	return &VerificationHandler{verification: verification, auth: auth}
}

// Documents godoc
// @Summary Get a student's document checklist
// @Description Per-key verification map plus signed download links for the uploaded scans
// @Tags Verification
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} dto.DocumentsResponse
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /students/{id}/documents [get]
func (h *VerificationHandler) Documents(c *gin.Context) {
	actor, err := currentAdmin(c, h.auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	checklist, links, err := h.verification.Checklist(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.DocumentsResponse{
		Base:  response.OK(),
		Data:  *checklist,
		Links: links,
	})
}

// SaveDocuments godoc
// @Summary Save a student's document checklist
// @Description Persists console edits; advances the student to verified when the required set completes
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.SaveDocumentsRequest true "Checklist edits"
// @Success 200 {object} dto.SaveDocumentsResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /students/{id}/documents [put]
func (h *VerificationHandler) SaveDocuments(c *gin.Context) {
	actor, err := currentAdmin(c, h.auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.SaveDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid documents payload"))
		return
	}

	res, err := h.verification.Save(c.Request.Context(), c.Param("id"), req, actor, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	res.Base = response.OK("documents saved")
	response.JSON(c, http.StatusOK, *res)
}

// BulkVerify godoc
// @Summary Verify documents for many students
// @Description Marks all required documents verified and advances each student
// @Tags Verification
// @Accept json
// @Produce json
// @Param payload body dto.BulkVerifyRequest true "Student IDs"
// @Success 200 {object} dto.BulkVerifyResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /students/bulk-verify-documents [post]
func (h *VerificationHandler) BulkVerify(c *gin.Context) {
	actor, err := currentAdmin(c, h.auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.BulkVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "studentIds are required"))
		return
	}

	res, err := h.verification.BulkVerify(c.Request.Context(), req, actor, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	res.Base = response.OK()
	response.JSON(c, http.StatusOK, *res)
}
