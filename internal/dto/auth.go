package dto

import (
	"github.com/campusops/admissions-api/internal/models"
	"github.com/campusops/admissions-api/pkg/response"
)

// AdminLoginResponse returns the issued token and admin identity.
type AdminLoginResponse struct {
	response.Base
	Token     string           `json:"token"`
	ExpiresIn int64            `json:"expiresIn"`
	Admin     models.AdminInfo `json:"admin"`
}

// VerifyTokenResponse echoes the admin identity bound to a valid token.
type VerifyTokenResponse struct {
	response.Base
	Admin models.AdminInfo `json:"admin"`
}

// AuditLogsResponse lists recent audit trail records.
type AuditLogsResponse struct {
	response.Base
	Logs []models.AuditLog `json:"logs"`
}
