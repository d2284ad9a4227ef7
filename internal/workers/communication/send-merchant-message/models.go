// internal/workers/communication/send-merchant-message/models.go
package sendmerchantmessage

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

type Input struct {
	MerchantID string `json:"merchantId"`
	Channel    string `json:"channel"`
	To         string `json:"to,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Text       string `json:"text"`
}

type Output struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Channel   string `json:"channel"`
	SentAt    string `json:"sentAt"`
}
