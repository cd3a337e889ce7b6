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

type attendanceMarker interface {
	Mark(ctx context.Context, req dto.MarkAttendanceRequest, actor *models.Admin, clientIP, userAgent string) (*dto.MarkAttendanceResponse, error)
}

// AttendanceHandler marks candidates present at the admission desk.
type AttendanceHandler struct {
	attendance attendanceMarker
	auth       adminLoader
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceMarker, auth adminLoader) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, auth: auth}
}

// Mark godoc
// @Summary Mark a student present
// @Description Sets attendance to present; repeated marks are a no-op
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Student ID"
// @Success 200 {object} dto.MarkAttendanceResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	actor, err := currentAdmin(c, h.auth)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "studentId is required"))
		return
	}

	res, err := h.attendance.Mark(c.Request.Context(), req, actor, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if res.AlreadyPresent {
		res.Base = response.OK("attendance already marked")
	} else {
		res.Base = response.OK("attendance marked")
	}
	response.JSON(c, http.StatusOK, *res)
}
