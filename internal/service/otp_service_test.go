package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusops/admissions-api/internal/models"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

type mockOTPRepo struct {
	challenges map[string]*models.OTPChallenge
	cooldown   map[string]bool
	verified   map[string]bool
	storeErr   error
	claimBusy  bool
}

func newMockOTPRepo() *mockOTPRepo {
	return &mockOTPRepo{
		challenges: map[string]*models.OTPChallenge{},
		cooldown:   map[string]bool{},
		verified:   map[string]bool{},
	}
}

func (m *mockOTPRepo) Store(ctx context.Context, challenge *models.OTPChallenge, ttl time.Duration) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	copied := *challenge
	m.challenges[challenge.Phone] = &copied
	return nil
}

func (m *mockOTPRepo) Find(ctx context.Context, phone string) (*models.OTPChallenge, error) {
	challenge, ok := m.challenges[phone]
	if !ok {
		return nil, appErrors.ErrOTPExpired
	}
	copied := *challenge
	return &copied, nil
}

func (m *mockOTPRepo) Update(ctx context.Context, challenge *models.OTPChallenge) error {
	copied := *challenge
	m.challenges[challenge.Phone] = &copied
	return nil
}

func (m *mockOTPRepo) Delete(ctx context.Context, phone string) error {
	delete(m.challenges, phone)
	return nil
}

func (m *mockOTPRepo) ClaimSendSlot(ctx context.Context, phone string, cooldown time.Duration) (bool, error) {
	if m.claimBusy || m.cooldown[phone] {
		return false, nil
	}
	m.cooldown[phone] = true
	return true, nil
}

func (m *mockOTPRepo) ReleaseSendSlot(ctx context.Context, phone string) error {
	delete(m.cooldown, phone)
	return nil
}

func (m *mockOTPRepo) MarkVerified(ctx context.Context, phone string, ttl time.Duration) error {
	m.verified[phone] = true
	return nil
}

func (m *mockOTPRepo) IsVerified(ctx context.Context, phone string) (bool, error) {
	return m.verified[phone], nil
}

type mockSMSProvider struct {
	to      []string
	bodies  []string
	sendErr error
}

func (m *mockSMSProvider) Send(ctx context.Context, to, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.to = append(m.to, to)
	m.bodies = append(m.bodies, body)
	return nil
}

func TestOTPServiceSend(t *testing.T) {
	repo := newMockOTPRepo()
	provider := &mockSMSProvider{}
	svc := NewOTPService(repo, provider, nil, zap.NewNop(), OTPConfig{TTL: 5 * time.Minute})

	seconds, err := svc.Send(context.Background(), "9876500001")
	require.NoError(t, err)
	assert.Equal(t, 300, seconds)

	require.Len(t, provider.to, 1)
	assert.Equal(t, "+919876500001", provider.to[0])

	challenge := repo.challenges["9876500001"]
	require.NotNil(t, challenge)
	assert.Len(t, challenge.Code, 6)
	assert.Contains(t, provider.bodies[0], challenge.Code)
}

func TestOTPServiceSendInvalidPhone(t *testing.T) {
	svc := NewOTPService(newMockOTPRepo(), &mockSMSProvider{}, nil, zap.NewNop(), OTPConfig{})

	_, err := svc.Send(context.Background(), "12345")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOTPServiceSendCooldown(t *testing.T) {
	repo := newMockOTPRepo()
	repo.claimBusy = true
	svc := NewOTPService(repo, &mockSMSProvider{}, nil, zap.NewNop(), OTPConfig{})

	_, err := svc.Send(context.Background(), "9876500001")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOTPCooldown.Code, appErrors.FromError(err).Code)
}

func TestOTPServiceSendNoProvider(t *testing.T) {
	svc := NewOTPService(newMockOTPRepo(), nil, nil, zap.NewNop(), OTPConfig{})

	_, err := svc.Send(context.Background(), "9876500001")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSMSUnavailable.Code, appErrors.FromError(err).Code)
}

func TestOTPServiceSendProviderFailure(t *testing.T) {
	repo := newMockOTPRepo()
	provider := &mockSMSProvider{sendErr: errors.New("upstream rejected")}
	svc := NewOTPService(repo, provider, nil, zap.NewNop(), OTPConfig{})

	_, err := svc.Send(context.Background(), "9876500001")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSMSUnavailable.Code, appErrors.FromError(err).Code)

	// Failed delivery must leave no live code and no cooldown, so the
	// parent can retry immediately.
	assert.Empty(t, repo.challenges)
	assert.Empty(t, repo.cooldown)
}

func TestOTPServiceVerify(t *testing.T) {
	repo := newMockOTPRepo()
	provider := &mockSMSProvider{}
	svc := NewOTPService(repo, provider, nil, zap.NewNop(), OTPConfig{})

	_, err := svc.Send(context.Background(), "9876500001")
	require.NoError(t, err)
	code := repo.challenges["9876500001"].Code

	require.NoError(t, svc.Verify(context.Background(), "9876500001", code))

	assert.Empty(t, repo.challenges)
	verified, err := svc.IsVerified(context.Background(), "9876500001")
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestOTPServiceVerifyWrongCode(t *testing.T) {
	repo := newMockOTPRepo()
	repo.challenges["9876500001"] = &models.OTPChallenge{Phone: "9876500001", Code: "123456"}
	svc := NewOTPService(repo, &mockSMSProvider{}, nil, zap.NewNop(), OTPConfig{})

	err := svc.Verify(context.Background(), "9876500001", "000000")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOTPInvalid.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, repo.challenges["9876500001"].Attempts)

	verified, _ := svc.IsVerified(context.Background(), "9876500001")
	assert.False(t, verified)
}

func TestOTPServiceVerifyExhaustsAttempts(t *testing.T) {
	repo := newMockOTPRepo()
	repo.challenges["9876500001"] = &models.OTPChallenge{Phone: "9876500001", Code: "123456"}
	svc := NewOTPService(repo, &mockSMSProvider{}, nil, zap.NewNop(), OTPConfig{})

	for i := 0; i < models.MaxOTPAttempts; i++ {
		err := svc.Verify(context.Background(), "9876500001", "000000")
		require.Error(t, err)
	}

	// The correct code no longer works once attempts are exhausted.
	err := svc.Verify(context.Background(), "9876500001", "123456")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOTPInvalid.Code, appErrors.FromError(err).Code)
	assert.True(t, strings.Contains(appErrors.FromError(err).Message, "request a new code"))
	assert.Empty(t, repo.challenges)
}

func TestOTPServiceVerifyExpired(t *testing.T) {
	svc := NewOTPService(newMockOTPRepo(), &mockSMSProvider{}, nil, zap.NewNop(), OTPConfig{})

	err := svc.Verify(context.Background(), "9876500001", "123456")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOTPExpired.Code, appErrors.FromError(err).Code)
}
