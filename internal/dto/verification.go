package dto

import (
	"time"

	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/pkg/response"
)

// DocumentChecklist is the per-key verification map for one student.
type DocumentChecklist struct {
	StudentID string                                 `json:"studentId"`
	Documents map[string]models.DocumentVerification `json:"documents"`
	UpdatedAt *time.Time                             `json:"updatedAt,omitempty"`
}

// DocumentsResponse returns the checklist plus download links for the
// scans uploaded at registration, keyed by upload field name.
type DocumentsResponse struct {
	response.Base
	Data  DocumentChecklist `json:"data"`
	Links map[string]string `json:"links"`
}

// DocumentEntryInput is one checklist entry as edited in the console.
type DocumentEntryInput struct {
	Verified bool   `json:"verified"`
	Notes    string `json:"notes"`
}

// SaveDocumentsRequest persists console edits. DepartmentAdmin is the
// display name recorded as verifiedBy on newly verified entries.
type SaveDocumentsRequest struct {
	Documents       map[string]DocumentEntryInput `json:"documents" validate:"required"`
	DepartmentAdmin string                        `json:"departmentAdmin" validate:"required"`
}

// SaveDocumentsResponse reports the save outcome and whether the student
// advanced to verified as a result.
type SaveDocumentsResponse struct {
	response.Base
	AllRequiredDocumentsVerified bool                 `json:"allRequiredDocumentsVerified"`
	Status                       models.StudentStatus `json:"status"`
}

// StatusUpdateRequest asks for a lifecycle transition.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// StatusUpdateResponse returns the resulting status.
type StatusUpdateResponse struct {
	response.Base
	Status models.StudentStatus `json:"status"`
}

// BulkVerifyRequest verifies all required documents for many students.
type BulkVerifyRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1"`
	VerifiedBy string   `json:"verifiedBy" validate:"required"`
}

// BulkVerifyResponse reports aggregate counts only.
type BulkVerifyResponse struct {
	response.Base
	Verified int `json:"verified"`
	Failed   int `json:"failed"`
}
