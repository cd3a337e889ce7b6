package models

import (
	"strings"
	"time"
)

// StudentStatus tracks a candidate through the admission pipeline.
type StudentStatus string

const (
	StatusRegistered    StudentStatus = "registered"
	StatusPhotoUploaded StudentStatus = "photo_uploaded"
	StatusVerified      StudentStatus = "verified"
)

// statusAliases maps legacy spellings onto canonical statuses.
var statusAliases = map[string]StudentStatus{
	"registered":         StatusRegistered,
	"pending":            StatusRegistered,
	"photo_uploaded":     StatusPhotoUploaded,
	"verified":           StatusVerified,
	"documents_verified": StatusVerified,
}

// ParseStatus normalises a raw status string. The second return reports
// whether the input was recognised.
func ParseStatus(raw string) (StudentStatus, bool) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}

// CanTransition reports whether moving from s to target is a legal step
// in the lifecycle. Self-transitions are allowed so repeated saves stay
// idempotent.
func (s StudentStatus) CanTransition(target StudentStatus) bool {
	if s == target {
		return true
	}
	switch s {
	case StatusRegistered:
		return target == StatusPhotoUploaded
	case StatusPhotoUploaded:
		return target == StatusVerified
	default:
		return false
	}
}

// AttendanceState is the candidate's physical-presence axis, independent
// of the verification status.
type AttendanceState string

const (
	AttendanceAbsent  AttendanceState = "absent"
	AttendancePresent AttendanceState = "present"
)

// Student is the persisted admission record. The frequently queried
// fields live in columns; the complete registration form is kept in the
// profile JSON blob.
type Student struct {
	ID                  string          `db:"id" json:"id"`
	StudentID           string          `db:"student_id" json:"student_id"`
	ApplicationNumber   string          `db:"application_number" json:"application_number"`
	FullName            string          `db:"full_name" json:"full_name"`
	Gender              string          `db:"gender" json:"gender"`
	DateOfBirth         string          `db:"date_of_birth" json:"date_of_birth"`
	Email               string          `db:"email" json:"email"`
	StudentPhone        string          `db:"student_phone" json:"student_phone"`
	ParentPhone         string          `db:"parent_phone" json:"parent_phone"`
	ParentName          string          `db:"parent_name" json:"parent_name"`
	ParentPhoneVerified bool            `db:"parent_phone_verified" json:"parent_phone_verified"`
	Department          string          `db:"department" json:"department"`
	DepartmentKey       string          `db:"department_key" json:"-"`
	ProgramName         string          `db:"program_name" json:"program_name"`
	AdmissionType       string          `db:"admission_type" json:"admission_type"`
	Status              StudentStatus   `db:"status" json:"status"`
	Attendance          AttendanceState `db:"attendance" json:"attendance"`
	AttendanceMarkedAt  *time.Time      `db:"attendance_marked_at" json:"attendance_marked_at,omitempty"`
	PhotoPath           *string         `db:"photo_path" json:"-"`
	SlipPath            *string         `db:"slip_path" json:"-"`
	SlipGeneratedAt     *time.Time      `db:"slip_generated_at" json:"slip_generated_at,omitempty"`
	UploadedCount       int             `db:"uploaded_count" json:"uploaded_count"`
	FailedCount         int             `db:"failed_count" json:"failed_count"`
	Profile             []byte          `db:"profile" json:"-"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing
// students. PendingOnly narrows to the verification console's
// actionable queue: photo taken and physically present.
type StudentFilter struct {
	DepartmentKey   string
	Search          string
	ExcludeVerified bool
	PendingOnly     bool
}

// NormalizeDepartment collapses a department name to its lookup key:
// lower-cased with spaces and underscores removed, so "Computer Science",
// "computer_science" and "COMPUTERSCIENCE" address the same department.
func NormalizeDepartment(department string) string {
	key := strings.ToLower(strings.TrimSpace(department))
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, " ", "")
	return key
}

// DepartmentStats aggregates per-department progress for the admin view.
type DepartmentStats struct {
	Department     string `db:"department" json:"department"`
	Total          int    `db:"total" json:"total"`
	Registered     int    `db:"registered" json:"registered"`
	PhotoUploaded  int    `db:"photo_uploaded" json:"photoUploaded"`
	Verified       int    `db:"verified" json:"verified"`
	Present        int    `db:"present" json:"present"`
	SlipsGenerated int    `db:"slips_generated" json:"slipsGenerated"`
}
