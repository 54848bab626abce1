package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpgate/internal/verification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.verification.enabled") {
		if err := verification.New(verification.Dependency{
			Ctx:        a.ctx,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Codes:      a.codes,
			Clock:      a.clock,
			Validator:  a.validator,
			Goroutine:  a.goroutine,
			Router:     a.router,
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Messaging:  a.messaging,
			Telegram:   a.telegram,
			SMS:        a.sms,
		}); err != nil {
			slog.Error("failed to init module verification", "error", err)
			os.Exit(1)
		}
	}
}
