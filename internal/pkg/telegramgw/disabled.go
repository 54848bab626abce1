package telegramgw

import "context"

// Disabled is a Client for deployments with the chat channel turned off.
// Every method fails with ErrDisabled so callers see the channel as
// permanently unreachable and route deliveries elsewhere.
type Disabled struct{}

// NewDisabled returns a client that rejects every call with ErrDisabled.
func NewDisabled() *Disabled {
	return &Disabled{}
}

func (*Disabled) CheckSendAbility(_ context.Context, _ string) (*SendAbility, error) {
	return nil, ErrDisabled
}

func (*Disabled) SendVerificationMessage(_ context.Context, _ SendRequest) (*SendResult, error) {
	return nil, ErrDisabled
}

func (*Disabled) CheckVerificationStatus(_ context.Context, _, _ string) (*VerificationStatus, error) {
	return nil, ErrDisabled
}

func (*Disabled) RevokeVerificationMessage(_ context.Context, _ string) error {
	return ErrDisabled
}
