package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/shandysiswandi/otpgate/internal/verification/entity"
	"github.com/shandysiswandi/otpgate/internal/verification/gateway"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type CodeSentEvent struct {
	Phone      string
	Method     string
	TrackingID string
}

type CodeVerifiedEvent struct {
	Phone  string
	Method string
}

type repoMessaging interface {
	PublishCodeSent(ctx context.Context, msg CodeSentEvent) error
	PublishCodeVerified(ctx context.Context, msg CodeVerifiedEvent) error
}

type repoDB interface {
	GetActiveRecord(ctx context.Context, phone, code string) (*entity.VerificationRecord, error)
	GetRecordByTrackingID(ctx context.Context, trackingID string) (*entity.VerificationRecord, error)
	MarkRecordUsed(ctx context.Context, id int64) (bool, error)
}

type repoCache interface {
	AllowSend(ctx context.Context, phone string, limit int64, window time.Duration) (bool, error)
	RemainingSends(ctx context.Context, phone string, limit int64) (int64, error)
	AllowAttempt(ctx context.Context, phone string, limit int64, window time.Duration) (bool, error)
	ResetAttempts(ctx context.Context, phone string) error
	DeleteCode(ctx context.Context, phone string) error
}

// smsGateway is the text-message channel. It also exposes the provider
// account balance, which the chat channel has no equivalent for.
type smsGateway interface {
	gateway.Gateway
	Balance(ctx context.Context) (float64, error)
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	chat          gateway.Gateway
	sms           smsGateway
	validator     validator.Validator
	cfg           config.Config
	clock         clock.Clocker
	ins           instrument.Instrumentation
	sentCounter   metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Chat          gateway.Gateway
	SMS           smsGateway
	Validator     validator.Validator
	Config        config.Config
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	sentCounter, err := dep.Instrument.Meter("verification.usecase").
		Int64Counter("verification.codes_sent", metric.WithDescription("Number of verification codes delivered"))
	if err != nil {
		slog.Error("failed to create codes sent counter", "error", err)
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		chat:          dep.Chat,
		sms:           dep.SMS,
		validator:     dep.Validator,
		cfg:           dep.Config,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		sentCounter:   sentCounter,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("verification.usecase").Start(ctx, name)
}

func (s *Usecase) sendLimit() int64 {
	return lo.CoalesceOrEmpty(s.cfg.GetInt64("modules.verification.send_limit"), 5)
}

func (s *Usecase) sendWindow() time.Duration {
	return lo.CoalesceOrEmpty(s.cfg.GetSecond("modules.verification.send_window_seconds"), time.Hour)
}

func (s *Usecase) attemptLimit() int64 {
	return lo.CoalesceOrEmpty(s.cfg.GetInt64("modules.verification.attempt_limit"), 5)
}

func (s *Usecase) attemptWindow() time.Duration {
	return lo.CoalesceOrEmpty(s.cfg.GetSecond("modules.verification.attempt_window_seconds"), time.Hour)
}
