package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/admissions-api/internal/dto"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
)

type otpServiceMock struct {
	expiresIn int
	sendErr   error
	verifyErr error
	lastPhone string
	lastCode  string
}

func (m *otpServiceMock) Send(ctx context.Context, phone string) (int, error) {
	m.lastPhone = phone
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	return m.expiresIn, nil
}

func (m *otpServiceMock) Verify(ctx context.Context, phone, code string) error {
	m.lastPhone = phone
	m.lastCode = code
	return m.verifyErr
}

func TestOTPHandlerSend(t *testing.T) {
	svc := &otpServiceMock{expiresIn: 300}
	handler := NewOTPHandler(svc)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/send-otp", dto.SendOTPRequest{PhoneNumber: "9876500001", Type: "parent"})

	handler.Send(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.SendOTPResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(300), body.ExpiresInSeconds)
	assert.Equal(t, "9876500001", svc.lastPhone)
}

func TestOTPHandlerSendProviderDown(t *testing.T) {
	svc := &otpServiceMock{sendErr: appErrors.ErrSMSUnavailable}
	handler := NewOTPHandler(svc)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/send-otp", dto.SendOTPRequest{PhoneNumber: "9876500001"})

	handler.Send(c)
	require.Equal(t, appErrors.ErrSMSUnavailable.Status, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrSMSUnavailable.Code)
}

func TestOTPHandlerVerify(t *testing.T) {
	svc := &otpServiceMock{}
	handler := NewOTPHandler(svc)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/verify-otp", dto.VerifyOTPRequest{PhoneNumber: "9876500001", OTP: "482913"})

	handler.Verify(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.VerifyOTPResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Verified)
	assert.Equal(t, "482913", svc.lastCode)
}

func TestOTPHandlerVerifyWrongCode(t *testing.T) {
	svc := &otpServiceMock{verifyErr: appErrors.Clone(appErrors.ErrOTPInvalid, "incorrect code, 4 attempts left")}
	handler := NewOTPHandler(svc)

	w := httptest.NewRecorder()
	c := authedContext(t, w, http.MethodPost, "/verify-otp", dto.VerifyOTPRequest{PhoneNumber: "9876500001", OTP: "000000"})

	handler.Verify(c)
	require.Equal(t, appErrors.ErrOTPInvalid.Status, w.Code)
	assert.Contains(t, w.Body.String(), "attempts left")
}
