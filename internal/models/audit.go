package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin           = "LOGIN"
	AuditActionRegister        = "STUDENT_REGISTER"
	AuditActionPhotoUpload     = "PHOTO_UPLOAD"
	AuditActionDocumentsVerify = "DOCUMENTS_VERIFY"
	AuditActionBulkVerify      = "DOCUMENTS_BULK_VERIFY"
	AuditActionStatusChange    = "STATUS_CHANGE"
	AuditActionAttendanceMark  = "ATTENDANCE_MARK"
	AuditActionSlipGenerate    = "SLIP_GENERATE"
	AuditActionOTPSend         = "OTP_SEND"
	AuditActionRosterExport    = "ROSTER_EXPORT"
)

// AuditLog represents an audit trail record. ActorID is nil for
// unauthenticated flows (registration desk, OTP).
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
