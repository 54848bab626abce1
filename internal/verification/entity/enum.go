package entity

// DeliveryMethod identifies the channel that carried a verification code.
type DeliveryMethod string

const (
	// MethodTelegram delivers through the Telegram Gateway API.
	MethodTelegram DeliveryMethod = "telegram"

	// MethodSMS delivers through the SMS provider.
	MethodSMS DeliveryMethod = "sms"

	// MethodNone means no channel accepted the code.
	MethodNone DeliveryMethod = "none"
)

func (m DeliveryMethod) String() string {
	return string(m)
}

// DeliveryStatus is the provider-reported state of one delivery attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusRead      DeliveryStatus = "read"
	DeliveryStatusExpired   DeliveryStatus = "expired"
	DeliveryStatusRevoked   DeliveryStatus = "revoked"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusUnknown   DeliveryStatus = "unknown"
)

func (s DeliveryStatus) String() string {
	return string(s)
}

// ParseDeliveryStatus maps a raw provider status string onto the known set,
// falling back to DeliveryStatusUnknown.
func ParseDeliveryStatus(raw string) DeliveryStatus {
	switch DeliveryStatus(raw) {
	case DeliveryStatusSent, DeliveryStatusDelivered, DeliveryStatusRead,
		DeliveryStatusExpired, DeliveryStatusRevoked, DeliveryStatusFailed:
		return DeliveryStatus(raw)
	default:
		return DeliveryStatusUnknown
	}
}

// RecordState is the lifecycle state of a verification record, derived from
// its flags and expiry on read rather than stored.
type RecordState int16

const (
	// RecordStateUnknown means the state could not be derived.
	RecordStateUnknown RecordState = 0

	// RecordStatePending means the code was issued and may still be verified.
	RecordStatePending RecordState = 1

	// RecordStateUsed means the code was consumed or superseded.
	RecordStateUsed RecordState = 2

	// RecordStateExpired means the validity window has passed.
	RecordStateExpired RecordState = 3
)

func (s RecordState) String() string {
	switch s {
	case RecordStatePending:
		return "Pending"
	case RecordStateUsed:
		return "Used"
	case RecordStateExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}
