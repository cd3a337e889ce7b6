package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

const (
	otpKeyPrefix      = "otp:challenge:"
	otpCooldownPrefix = "otp:cooldown:"
	otpVerifiedPrefix = "otp:verified:"
)

// OTPRepository keeps OTP challenges in Redis. Expiry is delegated to
// key TTLs, so an absent key means the code expired or was never sent.
type OTPRepository struct {
	client *redis.Client
}

// NewOTPRepository constructs an OTP repository.
func NewOTPRepository(client *redis.Client) *OTPRepository {
	return &OTPRepository{client: client}
}

// Store saves a fresh challenge under the phone number with the given TTL.
func (r *OTPRepository) Store(ctx context.Context, challenge *models.OTPChallenge, ttl time.Duration) error {
	if r.client == nil {
		return appErrors.ErrSMSUnavailable
	}

	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal otp challenge: %w", err)
	}
	if err := r.client.Set(ctx, otpKeyPrefix+challenge.Phone, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set otp challenge: %w", err)
	}
	return nil
}

// Find loads the active challenge for the phone number.
func (r *OTPRepository) Find(ctx context.Context, phone string) (*models.OTPChallenge, error) {
	if r.client == nil {
		return nil, appErrors.ErrOTPExpired
	}

	raw, err := r.client.Get(ctx, otpKeyPrefix+phone).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrOTPExpired
		}
		return nil, fmt.Errorf("redis get otp challenge: %w", err)
	}

	var challenge models.OTPChallenge
	if err := json.Unmarshal(raw, &challenge); err != nil {
		return nil, fmt.Errorf("unmarshal otp challenge: %w", err)
	}
	return &challenge, nil
}

// Update rewrites the challenge while keeping the remaining TTL, used
// to persist the attempt counter between wrong guesses.
func (r *OTPRepository) Update(ctx context.Context, challenge *models.OTPChallenge) error {
	if r.client == nil {
		return appErrors.ErrOTPExpired
	}

	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal otp challenge: %w", err)
	}
	if err := r.client.Set(ctx, otpKeyPrefix+challenge.Phone, payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("redis update otp challenge: %w", err)
	}
	return nil
}

// Delete removes the challenge, ending its lifecycle early.
func (r *OTPRepository) Delete(ctx context.Context, phone string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, otpKeyPrefix+phone).Err(); err != nil {
		return fmt.Errorf("redis delete otp challenge: %w", err)
	}
	return nil
}

// ClaimSendSlot reserves the resend slot for the phone number. It
// returns false while a previous send is still inside the cooldown
// window.
func (r *OTPRepository) ClaimSendSlot(ctx context.Context, phone string, cooldown time.Duration) (bool, error) {
	if r.client == nil {
		return false, appErrors.ErrSMSUnavailable
	}

	ok, err := r.client.SetNX(ctx, otpCooldownPrefix+phone, 1, cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim otp slot: %w", err)
	}
	return ok, nil
}

// ReleaseSendSlot frees the cooldown slot, used when the SMS provider
// rejected the send so the caller may retry immediately.
func (r *OTPRepository) ReleaseSendSlot(ctx context.Context, phone string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, otpCooldownPrefix+phone).Err(); err != nil {
		return fmt.Errorf("redis release otp slot: %w", err)
	}
	return nil
}

// MarkVerified records a successful verification of the phone number.
func (r *OTPRepository) MarkVerified(ctx context.Context, phone string, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Set(ctx, otpVerifiedPrefix+phone, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis mark otp verified: %w", err)
	}
	return nil
}

// IsVerified reports whether the phone number passed verification
// recently enough for the mark to still be present.
func (r *OTPRepository) IsVerified(ctx context.Context, phone string) (bool, error) {
	if r.client == nil {
		return false, nil
	}

	exists, err := r.client.Exists(ctx, otpVerifiedPrefix+phone).Result()
	if err != nil {
		return false, fmt.Errorf("redis check otp verified: %w", err)
	}
	return exists > 0, nil
}
