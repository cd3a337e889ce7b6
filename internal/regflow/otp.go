package regflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/campusops/admissions-api/internal/dto"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

// OTPState tracks the parent phone verification sub-flow.
type OTPState int

const (
	OTPNotSent OTPState = iota
	OTPSending
	OTPSent
	OTPVerifying
	OTPVerified
	OTPFailed
	OTPProviderUnavailable
)

func (s OTPState) String() string {
	switch s {
	case OTPNotSent:
		return "not_sent"
	case OTPSending:
		return "sending"
	case OTPSent:
		return "sent"
	case OTPVerifying:
		return "verifying"
	case OTPVerified:
		return "verified"
	case OTPFailed:
		return "failed"
	case OTPProviderUnavailable:
		return "provider_unavailable"
	default:
		return "unknown"
	}
}

type otpAPI interface {
	SendOTP(ctx context.Context, phone string) (*dto.SendOTPResponse, error)
	VerifyOTP(ctx context.Context, phone, code string) (*dto.VerifyOTPResponse, error)
}

// OTPFlowConfig tunes the verification sub-flow.
type OTPFlowConfig struct {
	// ResendCooldown is the wait between send attempts. Defaults to 60s.
	ResendCooldown time.Duration
	// AllowUnverifiedFallback turns a provider outage into a soft pass
	// with a recorded notice instead of blocking the wizard.
	AllowUnverifiedFallback bool
}

// OTPFlow is the client half of the OTP gate: it drives the send and
// verify calls and holds the resulting state. Not safe for concurrent
// use; one flow belongs to one wizard session.
type OTPFlow struct {
	api otpAPI
	cfg OTPFlowConfig
	now func() time.Time

	state       OTPState
	phone       string
	cooldownEnd time.Time
	softPassed  bool
	notice      string
}

// NewOTPFlow constructs the sub-flow.
func NewOTPFlow(api otpAPI, cfg OTPFlowConfig) *OTPFlow {
	if cfg.ResendCooldown <= 0 {
		cfg.ResendCooldown = 60 * time.Second
	}
	return &OTPFlow{
		api:   api,
		cfg:   cfg,
		now:   time.Now,
		state: OTPNotSent,
	}
}

// State returns the current sub-flow state.
func (o *OTPFlow) State() OTPState {
	return o.state
}

// Verified reports whether the gate is open, either through a confirmed
// code or through the provider-outage soft pass.
func (o *OTPFlow) Verified() bool {
	return o.state == OTPVerified || o.softPassed
}

// Notice returns the recorded message when the gate was soft-passed.
func (o *OTPFlow) Notice() string {
	return o.notice
}

// ResendIn reports how long until another code may be requested.
func (o *OTPFlow) ResendIn() time.Duration {
	if remaining := o.cooldownEnd.Sub(o.now()); remaining > 0 {
		return remaining
	}
	return 0
}

// Send requests a verification code for the phone number. During the
// cooldown window a resend is refused locally without a server call.
// A provider outage surfaces as the ProviderUnavailable state; with the
// fallback enabled the gate opens anyway and Notice records that.
func (o *OTPFlow) Send(ctx context.Context, phone string) error {
	if phone == "" {
		return errors.New("parent contact number is required")
	}
	if remaining := o.ResendIn(); remaining > 0 {
		return fmt.Errorf("wait %d seconds before requesting another code", int(math.Ceil(remaining.Seconds())))
	}

	o.state = OTPSending
	_, err := o.api.SendOTP(ctx, phone)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrSMSUnavailable.Code {
			o.state = OTPProviderUnavailable
			if o.cfg.AllowUnverifiedFallback {
				o.softPassed = true
				o.notice = "phone verification is unavailable right now, continuing without it"
			}
			return err
		}
		o.state = OTPFailed
		return err
	}

	o.state = OTPSent
	o.phone = phone
	o.cooldownEnd = o.now().Add(o.cfg.ResendCooldown)
	return nil
}

// Verify checks the received code. A wrong code keeps the flow in Sent
// with the cooldown untouched, so the parent can retype without waiting.
func (o *OTPFlow) Verify(ctx context.Context, code string) error {
	if code == "" {
		return errors.New("verification code is required")
	}
	if o.state != OTPSent {
		return errors.New("request a verification code first")
	}

	o.state = OTPVerifying
	res, err := o.api.VerifyOTP(ctx, o.phone, code)
	if err != nil {
		o.state = OTPSent
		return err
	}
	if !res.Verified {
		o.state = OTPSent
		return errors.New("verification failed")
	}

	o.state = OTPVerified
	return nil
}

// Reset returns the flow to its initial state. Called when the parent
// contact number is edited after a send.
func (o *OTPFlow) Reset() {
	o.state = OTPNotSent
	o.phone = ""
	o.cooldownEnd = time.Time{}
	o.softPassed = false
	o.notice = ""
}
