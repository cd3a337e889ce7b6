package dto

import "github.com/campusops/admissions-api/pkg/response"

// SendOTPRequest issues a verification code to a parent phone number.
// Type labels the flow on the client ("parent" today) and is carried
// through for audit only.
type SendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Type        string `json:"type,omitempty"`
}

// SendOTPResponse confirms dispatch. The code itself never appears in
// the response.
type SendOTPResponse struct {
	response.Base
	ExpiresInSeconds int64 `json:"expiresInSeconds"`
}

// VerifyOTPRequest checks a code against the issued challenge.
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	OTP         string `json:"otp" validate:"required"`
	Type        string `json:"type,omitempty"`
}

// VerifyOTPResponse reports the verification outcome.
type VerifyOTPResponse struct {
	response.Base
	Verified bool `json:"verified"`
}
