package verification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/greensms"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/otpcode"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/telegramgw"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/shandysiswandi/otpgate/internal/verification/gateway"
	"github.com/shandysiswandi/otpgate/internal/verification/inbound"
	"github.com/shandysiswandi/otpgate/internal/verification/outbound/cache"
	"github.com/shandysiswandi/otpgate/internal/verification/outbound/db"
	"github.com/shandysiswandi/otpgate/internal/verification/outbound/mq"
	"github.com/shandysiswandi/otpgate/internal/verification/usecase"
)

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Telegram   telegramgw.Client          `validate:"required"`
	SMS        greensms.Client            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Codes      otpcode.Generator          `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoCache := cache.NewCache(dep.CacheConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	chat := gateway.NewChat(dep.Telegram, repoDB, repoCache, dep.Codes, dep.UID, dep.Clock, dep.Goroutine)
	sms := gateway.NewSMS(dep.SMS, repoDB, repoCache, dep.Codes, dep.UID, dep.Clock)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoCache:     repoCache,
		RepoMessaging: repoMsg,
		Chat:          chat,
		SMS:           sms,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
