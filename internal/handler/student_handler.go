package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusops/admissions-api/internal/dto"
	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/response"
)

type studentService interface {
	Roster(ctx context.Context, filter models.StudentFilter) ([]dto.StudentSummary, error)
	PendingVerification(ctx context.Context, department string) ([]dto.StudentSummary, error)
	Detail(ctx context.Context, studentID string) (*dto.StudentView, error)
	ChangeStatus(ctx context.Context, studentID, rawStatus string, actor *models.Admin, clientIP, userAgent string) (models.StudentStatus, error)
	AttachPhoto(ctx context.Context, studentID, fileName string, size int64, r io.Reader, actor *models.Admin, clientIP, userAgent string) (*dto.StudentView, error)
}

// StudentHandler exposes roster and lifecycle endpoints.
type StudentHandler struct {
	students studentService
	auth     adminLoader
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, auth adminLoader) *StudentHandler {
	return &StudentHandler{students: students, auth: auth}
}

// List godoc
// @Summary List students
// @Description Roster summaries for the admin consoles and the queue dashboard
// @Tags Students
// @Produce json
// @Param department query string false "Filter by department"
// @Param search query string false "Search by student ID or name"
// @Success 200 {object} dto.RosterResponse
// @Failure 401 {object} response.ErrorBody
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		DepartmentKey: models.NormalizeDepartment(c.Query("department")),
		Search:        strings.TrimSpace(c.Query("search")),
	}

	students, err := h.students.Roster(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.RosterResponse{Base: response.OK(), Students: students})
}

// PendingVerification godoc
// @Summary List students pending verification
// @Description Non-verified students of a department, for the verification console
// @Tags Students
// @Produce json
// @Param department path string true "Department name"
// @Success 200 {object} dto.RosterResponse
// @Failure 403 {object} response.ErrorBody
// @Router /students/department/{department}/pending-verification [get]
func (h *StudentHandler) PendingVerification(c *gin.Context) {
	actor, err := currentAdmin(c, h.auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	department := c.Param("department")
	if !actor.CanAccessDepartment(department) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "department belongs to another admin"))
		return
	}

	students, err := h.students.PendingVerification(c.Request.Context(), department)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.RosterResponse{Base: response.OK(), Students: students})
}

// StatusLookup godoc
// @Summary Look up a student by ID
// @Description Full student view for the registration receipt status screen
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.StatusCheckRequest true "Student ID"
// @Success 200 {object} dto.StudentDetailResponse
// @Failure 404 {object} response.ErrorBody
// @Router /students/status [post]
func (h *StudentHandler) StatusLookup(c *gin.Context) {
	var req dto.StatusCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "studentId is required"))
		return
	}

	view, err := h.students.Detail(c.Request.Context(), strings.TrimSpace(req.StudentID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.StudentDetailResponse{Base: response.OK(), Data: *view})
}

// UpdateStatus godoc
// @Summary Change a student's lifecycle status
// @Description Guarded transition along registered, photo_uploaded, verified
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.StatusUpdateRequest true "Target status"
// @Success 200 {object} dto.StatusUpdateResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /students/{id}/status [put]
func (h *StudentHandler) UpdateStatus(c *gin.Context) {
	actor, err := currentAdmin(c, h.auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}

	status, err := h.students.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status, actor, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.StatusUpdateResponse{Base: response.OK(), Status: status})
}

// UploadPhoto godoc
// @Summary Attach the admission photograph
// @Description Stores the photo taken at the photo desk and advances the student to photo_uploaded
// @Tags Students
// @Accept mpfd
// @Produce json
// @Param id path string true "Student ID"
// @Param photo formData file true "Photograph"
// @Success 200 {object} dto.StudentDetailResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /students/{id}/photo [post]
func (h *StudentHandler) UploadPhoto(c *gin.Context) {
	actor, err := currentAdmin(c, h.auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	header, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo file is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read photo"))
		return
	}
	defer file.Close()

	view, err := h.students.AttachPhoto(c.Request.Context(), c.Param("id"), header.Filename, header.Size, file, actor, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.StudentDetailResponse{Base: response.OK("photo uploaded"), Data: *view})
}
