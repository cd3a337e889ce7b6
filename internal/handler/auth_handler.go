package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/internal/service"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate admin
// @Description Authenticate an admin by username and password
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} dto.AdminLoginResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Router /admin/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.AdminLoginResponse{
		Base:      response.OK("login successful"),
		Token:     res.Token,
		ExpiresIn: res.ExpiresIn,
		Admin:     res.Admin,
	})
}

// VerifyToken godoc
// @Summary Verify the current token
// @Description Re-checks the account behind the bearer token
// @Tags Admin
// @Produce json
// @Success 200 {object} dto.VerifyTokenResponse
// @Failure 401 {object} response.ErrorBody
// @Router /admin/verify-token [get]
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	info, err := h.service.VerifyToken(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.VerifyTokenResponse{Base: response.OK(), Admin: *info})
}

type auditRepository interface {
	ListAuditLogs(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail to super admins.
type AuditHandler struct {
	repo auditRepository
}

// NewAuditHandler creates a new handler.
func NewAuditHandler(repo auditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List godoc
// @Summary List recent audit records
// @Tags Admin
// @Produce json
// @Param limit query int false "Maximum records (default 100)"
// @Success 200 {object} dto.AuditLogsResponse
// @Failure 403 {object} response.ErrorBody
// @Router /admin/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.repo.ListAuditLogs(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit logs"))
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}

	response.JSON(c, http.StatusOK, dto.AuditLogsResponse{Base: response.OK(), Logs: logs})
}
