package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type BalanceOutput struct {
	ChatEnabled bool
	Balance     float64
}

// Balance reports whether the chat channel is enabled and the remaining
// SMS provider account balance.
func (s *Usecase) Balance(ctx context.Context) (*BalanceOutput, error) {
	ctx, span := s.startSpan(ctx, "Balance")
	defer span.End()

	balance, err := s.sms.Balance(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch sms balance", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &BalanceOutput{
		ChatEnabled: s.cfg.GetBool("providers.telegram.enabled"),
		Balance:     balance,
	}, nil
}
