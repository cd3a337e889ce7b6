package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/admissions-api/internal/dto"
	appErrors "github.com/campusops/admissions-api/pkg/errors"
	"github.com/campusops/admissions-api/pkg/response"
)

type otpService interface {
	Send(ctx context.Context, phone string) (int, error)
	Verify(ctx context.Context, phone, code string) error
}

// OTPHandler drives parent phone verification during registration.
type OTPHandler struct {
	otp otpService
}

// NewOTPHandler constructs OTPHandler.
func NewOTPHandler(otp otpService) *OTPHandler {
	return &OTPHandler{otp: otp}
}

// Send godoc
// @Summary Send a verification code
// @Description Sends a one-time code to the given phone number via SMS
// @Tags OTP
// @Accept json
// @Produce json
// @Param payload body dto.SendOTPRequest true "Phone number"
// @Success 200 {object} dto.SendOTPResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 429 {object} response.ErrorBody
// @Failure 503 {object} response.ErrorBody
// @Router /send-otp [post]
func (h *OTPHandler) Send(c *gin.Context) {
	var req dto.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	expiresIn, err := h.otp.Send(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.SendOTPResponse{
		Base:             response.OK("verification code sent"),
		ExpiresInSeconds: int64(expiresIn),
	})
}

// Verify godoc
// @Summary Verify a code
// @Description Checks a one-time code against the issued challenge
// @Tags OTP
// @Accept json
// @Produce json
// @Param payload body dto.VerifyOTPRequest true "Phone number and code"
// @Success 200 {object} dto.VerifyOTPResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 410 {object} response.ErrorBody
// @Router /verify-otp [post]
func (h *OTPHandler) Verify(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.otp.Verify(c.Request.Context(), req.PhoneNumber, req.OTP); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.VerifyOTPResponse{
		Base:     response.OK("phone number verified"),
		Verified: true,
	})
}
