package event

const CodeSentDestination string = "verification_code_sent"
const CodeSentDestinationConsumerAudit string = "verification_code_sent_audit"

// CodeSentMessage announces a delivered verification code. It carries the
// channel and tracking id but never the code itself.
type CodeSentMessage struct {
	Phone      string `json:"phone"`
	Method     string `json:"method"`
	TrackingID string `json:"tracking_id,omitempty"`
}

const CodeVerifiedDestination string = "verification_code_verified"

type CodeVerifiedMessage struct {
	Phone  string `json:"phone"`
	Method string `json:"method"`
}
