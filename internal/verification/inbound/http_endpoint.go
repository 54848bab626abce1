package inbound

import (
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/verification/usecase"
)

// HTTPEndpoint exposes HTTP handlers for code delivery and verification.
type HTTPEndpoint struct {
	uc uc
}

// SendCode delivers a verification code to a phone.
// @Summary Send verification code
// @Description Issues a one-time code to the phone, preferring the chat channel with SMS fallback.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body SendCodeRequest true "Send payload"
// @Success 200 {object} router.successResponse{data=SendCodeResponse} "Delivery result"
// @Failure 422 {object} router.errorResponse "Invalid phone number"
// @Failure 429 {object} router.errorResponse "Send limit reached"
// @Failure 503 {object} router.errorResponse "No channel could deliver"
// @Router /api/v1/verification/send [post]
func (h *HTTPEndpoint) SendCode(r *router.Request) (any, error) {
	var req SendCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	preferChat := true
	if req.PreferChat != nil {
		preferChat = *req.PreferChat
	}

	resp, err := h.uc.SendCode(r.Context(), usecase.SendCodeInput{
		Phone:      req.Phone,
		PreferChat: preferChat,
	})
	if err != nil {
		return nil, err
	}

	return SendCodeResponse{
		Method:     resp.Method.String(),
		TrackingID: resp.TrackingID,
		Fallback:   resp.Fallback,
		ExpiresAt:  resp.ExpiresAt,
	}, nil
}

// SendSMS delivers a verification code over SMS only.
// @Summary Send verification code via SMS
// @Description Issues a one-time code over SMS, skipping the chat channel.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body SendSMSRequest true "Send payload"
// @Success 200 {object} router.successResponse{data=SendSMSResponse} "Delivery result"
// @Failure 422 {object} router.errorResponse "Invalid phone number"
// @Failure 429 {object} router.errorResponse "Send limit reached"
// @Failure 503 {object} router.errorResponse "Provider could not deliver"
// @Router /api/v1/verification/send/sms [post]
func (h *HTTPEndpoint) SendSMS(r *router.Request) (any, error) {
	var req SendSMSRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SendSMS(r.Context(), usecase.SendSMSInput{Phone: req.Phone})
	if err != nil {
		return nil, err
	}

	return SendSMSResponse{
		Method:     resp.Method.String(),
		TrackingID: resp.TrackingID,
		ExpiresAt:  resp.ExpiresAt,
	}, nil
}

// VerifyCode checks a submitted code.
// @Summary Verify code
// @Description Checks the submitted code against the active one for the phone.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body VerifyCodeRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyCodeResponse} "Verification result"
// @Failure 422 {object} router.errorResponse "Invalid input"
// @Router /api/v1/verification/verify [post]
func (h *HTTPEndpoint) VerifyCode(r *router.Request) (any, error) {
	var req VerifyCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{
		Phone: req.Phone,
		Code:  req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyCodeResponse{
		Verified: resp.Verified,
		Method:   resp.Method.String(),
	}, nil
}

// Availability reports the channel a send would use.
// @Summary Check channel availability
// @Description Reports the preferred delivery channel for the phone and the remaining sends in the window.
// @Tags Verification
// @Produce json
// @Param phone query string true "Phone number"
// @Success 200 {object} router.successResponse{data=AvailabilityResponse} "Availability result"
// @Failure 422 {object} router.errorResponse "Invalid phone number"
// @Router /api/v1/verification/availability [get]
func (h *HTTPEndpoint) Availability(r *router.Request) (any, error) {
	resp, err := h.uc.Availability(r.Context(), usecase.AvailabilityInput{
		Phone: r.GetQuery("phone"),
	})
	if err != nil {
		return nil, err
	}

	return AvailabilityResponse{
		ChatAvailable:  resp.ChatAvailable,
		Method:         resp.Method.String(),
		RemainingSends: resp.RemainingSends,
	}, nil
}

// DeliveryStatus resolves the provider delivery state for a tracking id.
// @Summary Delivery status
// @Description Resolves the provider-side delivery status for a tracking id.
// @Tags Verification
// @Produce json
// @Param tracking_id path string true "Tracking id"
// @Success 200 {object} router.successResponse{data=DeliveryStatusResponse} "Status result"
// @Router /api/v1/verification/delivery/{tracking_id} [get]
func (h *HTTPEndpoint) DeliveryStatus(r *router.Request) (any, error) {
	resp, err := h.uc.DeliveryStatus(r.Context(), usecase.DeliveryStatusInput{
		TrackingID: r.GetParam("tracking_id"),
	})
	if err != nil {
		return nil, err
	}

	return DeliveryStatusResponse{
		Method: resp.Method.String(),
		Status: resp.Status.String(),
	}, nil
}

// Balance returns the SMS provider account balance.
// @Summary SMS account balance
// @Description Returns the remaining SMS provider balance. Requires authentication.
// @Tags Verification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=BalanceResponse} "Balance result"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/verification/balance [get]
func (h *HTTPEndpoint) Balance(r *router.Request) (any, error) {
	resp, err := h.uc.Balance(r.Context())
	if err != nil {
		return nil, err
	}

	return BalanceResponse{
		ChatEnabled: resp.ChatEnabled,
		Balance:     resp.Balance,
	}, nil
}
