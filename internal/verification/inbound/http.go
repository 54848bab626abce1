package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/verification/usecase"
)

type uc interface {
	SendCode(ctx context.Context, in usecase.SendCodeInput) (*usecase.SendCodeOutput, error)
	SendSMS(ctx context.Context, in usecase.SendSMSInput) (*usecase.SendSMSOutput, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) (*usecase.VerifyCodeOutput, error)
	Availability(ctx context.Context, in usecase.AvailabilityInput) (*usecase.AvailabilityOutput, error)
	DeliveryStatus(ctx context.Context, in usecase.DeliveryStatusInput) (*usecase.DeliveryStatusOutput, error)
	Balance(ctx context.Context) (*usecase.BalanceOutput, error)
	ConsumeCodeSent(ctx context.Context, in usecase.ConsumeCodeSentInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Code delivery & verification
	r.POST("/api/v1/verification/send", end.SendCode)
	r.POST("/api/v1/verification/send/sms", end.SendSMS)
	r.POST("/api/v1/verification/verify", end.VerifyCode)

	// Channel introspection
	r.GET("/api/v1/verification/availability", end.Availability)
	r.GET("/api/v1/verification/delivery/:tracking_id", end.DeliveryStatus)
	r.GET("/api/v1/verification/balance", end.Balance) // need authenticated
}
