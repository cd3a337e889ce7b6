package models

import (
	"regexp"
	"time"
)

// OTPChallenge is the one-time code issued for parent phone
// verification. Stored in Redis with a TTL; the row disappears on
// expiry or successful verification.
type OTPChallenge struct {
	Phone    string    `json:"phone"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
	Attempts int       `json:"attempts"`
}

// MaxOTPAttempts bounds wrong guesses before the code is invalidated.
const MaxOTPAttempts = 5

var mobilePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// ValidPhone reports whether the value is a 10-digit Indian mobile
// number.
func ValidPhone(phone string) bool {
	return mobilePattern.MatchString(phone)
}
