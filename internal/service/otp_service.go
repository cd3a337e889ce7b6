package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/sms"
)

type otpChallengeRepository interface {
	Store(ctx context.Context, challenge *models.OTPChallenge, ttl time.Duration) error
	Find(ctx context.Context, phone string) (*models.OTPChallenge, error)
	Update(ctx context.Context, challenge *models.OTPChallenge) error
	Delete(ctx context.Context, phone string) error
	ClaimSendSlot(ctx context.Context, phone string, cooldown time.Duration) (bool, error)
	ReleaseSendSlot(ctx context.Context, phone string) error
	MarkVerified(ctx context.Context, phone string, ttl time.Duration) error
	IsVerified(ctx context.Context, phone string) (bool, error)
}

// OTPConfig tunes the parent phone verification flow.
type OTPConfig struct {
	TTL            time.Duration
	ResendCooldown time.Duration
	CountryPrefix  string
}

// verifiedMarkTTL is how long a successful verification stays valid, so
// a registration submitted later the same day still passes the check.
const verifiedMarkTTL = 24 * time.Hour

// OTPService issues and checks one-time codes for parent phone numbers.
type OTPService struct {
	repo     otpChallengeRepository
	provider sms.Provider
	metrics  *MetricsService
	logger   *zap.Logger
	config   OTPConfig
}

// NewOTPService constructs an OTPService.
func NewOTPService(repo otpChallengeRepository, provider sms.Provider, metrics *MetricsService, logger *zap.Logger, config OTPConfig) *OTPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.ResendCooldown <= 0 {
		config.ResendCooldown = 60 * time.Second
	}
	if config.CountryPrefix == "" {
		config.CountryPrefix = "+91"
	}
	return &OTPService{repo: repo, provider: provider, metrics: metrics, logger: logger, config: config}
}

// Send issues a fresh code for the phone number and dispatches it via
// SMS. It returns the code lifetime in seconds.
func (s *OTPService) Send(ctx context.Context, phone string) (int, error) {
	phone = strings.TrimSpace(phone)
	if !models.ValidPhone(phone) {
		return 0, appErrors.Clone(appErrors.ErrValidation, "phone number must be a valid 10-digit mobile number")
	}
	if s.provider == nil {
		return 0, appErrors.ErrSMSUnavailable
	}

	ok, err := s.repo.ClaimSendSlot(ctx, phone, s.config.ResendCooldown)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, appErrors.ErrOTPCooldown
	}

	code, err := generateOTPCode()
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate OTP")
	}

	challenge := &models.OTPChallenge{Phone: phone, Code: code, IssuedAt: time.Now().UTC()}
	if err := s.repo.Store(ctx, challenge, s.config.TTL); err != nil {
		s.releaseSlot(ctx, phone)
		return 0, err
	}

	body := fmt.Sprintf("Your admission verification code is %s. It is valid for %d minutes.", code, int(s.config.TTL.Minutes()))
	if err := s.provider.Send(ctx, s.config.CountryPrefix+phone, body); err != nil {
		s.metrics.RecordOTPSend(false)
		s.logger.Warn("sms send failed", zap.String("phone", maskPhone(phone)), zap.Error(err))
		s.releaseSlot(ctx, phone)
		if err := s.repo.Delete(ctx, phone); err != nil {
			s.logger.Warn("failed to discard undelivered OTP", zap.Error(err))
		}
		return 0, appErrors.Wrap(err, appErrors.ErrSMSUnavailable.Code, appErrors.ErrSMSUnavailable.Status, "failed to send OTP")
	}

	s.metrics.RecordOTPSend(true)
	s.logger.Info("otp sent", zap.String("phone", maskPhone(phone)))
	return int(s.config.TTL.Seconds()), nil
}

// Verify checks the submitted code. A correct code consumes the
// challenge and marks the phone verified; wrong guesses are counted and
// the challenge is withdrawn after too many of them.
func (s *OTPService) Verify(ctx context.Context, phone, code string) error {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if !models.ValidPhone(phone) {
		return appErrors.Clone(appErrors.ErrValidation, "phone number must be a valid 10-digit mobile number")
	}
	if code == "" {
		return appErrors.Clone(appErrors.ErrValidation, "OTP is required")
	}

	challenge, err := s.repo.Find(ctx, phone)
	if err != nil {
		return err
	}

	if challenge.Attempts >= models.MaxOTPAttempts {
		if err := s.repo.Delete(ctx, phone); err != nil {
			s.logger.Warn("failed to discard exhausted OTP", zap.Error(err))
		}
		return appErrors.Clone(appErrors.ErrOTPInvalid, "too many incorrect attempts, request a new code")
	}

	if challenge.Code != code {
		challenge.Attempts++
		if err := s.repo.Update(ctx, challenge); err != nil {
			s.logger.Warn("failed to record OTP attempt", zap.Error(err))
		}
		return appErrors.ErrOTPInvalid
	}

	if err := s.repo.Delete(ctx, phone); err != nil {
		s.logger.Warn("failed to consume OTP", zap.Error(err))
	}
	if err := s.repo.MarkVerified(ctx, phone, verifiedMarkTTL); err != nil {
		s.logger.Warn("failed to mark phone verified", zap.Error(err))
	}
	s.logger.Info("otp verified", zap.String("phone", maskPhone(phone)))
	return nil
}

// IsVerified reports whether the phone passed verification recently.
func (s *OTPService) IsVerified(ctx context.Context, phone string) (bool, error) {
	return s.repo.IsVerified(ctx, strings.TrimSpace(phone))
}

func (s *OTPService) releaseSlot(ctx context.Context, phone string) {
	if err := s.repo.ReleaseSendSlot(ctx, phone); err != nil {
		s.logger.Warn("failed to release OTP cooldown", zap.Error(err))
	}
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
