package dto

import (
	"time"

	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/pkg/response"
)

// MarkAttendanceRequest marks a candidate present at the admission desk.
// Department, Status and Timestamp arrive from older desk clients and
// are accepted without being trusted; the server derives all three.
type MarkAttendanceRequest struct {
	StudentID  string `json:"studentId" validate:"required"`
	Department string `json:"department,omitempty"`
	Status     string `json:"status,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// MarkAttendanceResponse reports the resulting attendance state.
// AlreadyPresent distinguishes the idempotent no-op from a fresh mark.
type MarkAttendanceResponse struct {
	response.Base
	StudentID      string                 `json:"studentId"`
	Attendance     models.AttendanceState `json:"attendance"`
	AlreadyPresent bool                   `json:"alreadyPresent"`
	MarkedAt       *time.Time             `json:"markedAt,omitempty"`
}
