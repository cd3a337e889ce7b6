package dto

import (
	"time"

	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/pkg/response"
)

// StudentSummary is the roster row shown in admin consoles and the
// queue dashboard.
type StudentSummary struct {
	StudentID     string                 `json:"studentId"`
	Name          string                 `json:"name"`
	JUApplication string                 `json:"juApplication"`
	Department    string                 `json:"department"`
	ProgramName   string                 `json:"programName"`
	AdmissionType string                 `json:"admissionType"`
	Status        models.StudentStatus   `json:"status"`
	Attendance    models.AttendanceState `json:"attendance"`
	RegisteredAt  time.Time              `json:"registeredAt"`
	SlipGenerated bool                   `json:"slipGenerated"`
}

// NewStudentSummary projects a student row into its roster shape.
func NewStudentSummary(s models.Student) StudentSummary {
	return StudentSummary{
		StudentID:     s.StudentID,
		Name:          s.FullName,
		JUApplication: s.ApplicationNumber,
		Department:    s.Department,
		ProgramName:   s.ProgramName,
		AdmissionType: s.AdmissionType,
		Status:        s.Status,
		Attendance:    s.Attendance,
		RegisteredAt:  s.CreatedAt,
		SlipGenerated: s.SlipPath != nil,
	}
}

// RosterResponse lists students for admin views.
type RosterResponse struct {
	response.Base
	Students []StudentSummary `json:"students"`
}

// StatusCheckRequest looks a student up by public ID.
type StatusCheckRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

// StudentView is the detail payload for the status screen.
type StudentView struct {
	StudentSummary
	Gender             string                `json:"gender"`
	DateOfBirth        string                `json:"dateOfBirth"`
	Email              string                `json:"email"`
	StudentContactNo   string                `json:"studentContactNo"`
	ParentContactNo    string                `json:"parentContactNo"`
	ParentName         string                `json:"parentName"`
	ParentVerified     bool                  `json:"parentVerified"`
	AttendanceMarkedAt *time.Time            `json:"attendanceMarkedAt,omitempty"`
	SlipGeneratedAt    *time.Time            `json:"slipGeneratedAt,omitempty"`
	DocumentUpload     DocumentUploadSummary `json:"documentUpload"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// NewStudentView projects a student row into its detail shape.
func NewStudentView(s models.Student) StudentView {
	return StudentView{
		StudentSummary:     NewStudentSummary(s),
		Gender:             s.Gender,
		DateOfBirth:        s.DateOfBirth,
		Email:              s.Email,
		StudentContactNo:   s.StudentPhone,
		ParentContactNo:    s.ParentPhone,
		ParentName:         s.ParentName,
		ParentVerified:     s.ParentPhoneVerified,
		AttendanceMarkedAt: s.AttendanceMarkedAt,
		SlipGeneratedAt:    s.SlipGeneratedAt,
		DocumentUpload: DocumentUploadSummary{
			UploadedCount: s.UploadedCount,
			FailedCount:   s.FailedCount,
		},
		UpdatedAt: s.UpdatedAt,
	}
}

// StudentDetailResponse wraps a single student view.
type StudentDetailResponse struct {
	response.Base
	Data StudentView `json:"data"`
}

// DepartmentsResponse lists distinct departments seen in registrations.
type DepartmentsResponse struct {
	response.Base
	Departments []string `json:"departments"`
}

// DepartmentStatsResponse reports per-department progress counters.
// System is only populated for super admins.
type DepartmentStatsResponse struct {
	response.Base
	Stats  []models.DepartmentStats `json:"stats"`
	System *models.SystemMetrics    `json:"system,omitempty"`
}
