package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/admissions-api/internal/dto"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, req *dto.RegistrationRequest, clientIP, userAgent string) (*dto.RegistrationResponse, error)
}

type departmentLister interface {
	Departments(ctx context.Context) ([]string, error)
}

// RegistrationHandler accepts new student registrations from the desk.
type RegistrationHandler struct {
	registrations registrationService
	departments   departmentLister
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations registrationService, departments departmentLister) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, departments: departments}
}

// Register godoc
// @Summary Register a student
// @Description Stores the full registration aggregate and its inline document uploads
// @Tags Registration
// @Accept json
// @Produce json
// @Param payload body dto.RegistrationRequest true "Registration payload"
// @Success 201 {object} dto.RegistrationResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /students/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req dto.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	res, err := h.registrations.Register(c.Request.Context(), &req, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	res.Base = response.OK("registration successful")
	response.Created(c, res)
}

// Departments godoc
// @Summary List departments
// @Description Departments offered for admission, available to the registration desk
// @Tags Registration
// @Produce json
// @Success 200 {object} dto.DepartmentsResponse
// @Router /departments [get]
func (h *RegistrationHandler) Departments(c *gin.Context) {
	departments, err := h.departments.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.DepartmentsResponse{Base: response.OK(), Departments: departments})
}
