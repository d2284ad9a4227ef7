// internal/workers/communication/send-merchant-message/config.go
package sendmerchantmessage

import "time"

type Config struct {
	Timeout      time.Duration
	AWSRegion    string
	FromEmail    string
	SMSSenderID  string
	EmailEnabled bool
	SMSEnabled   bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      20 * time.Second,
		AWSRegion:    "us-east-1",
		FromEmail:    "no-reply@uwizard.io",
		EmailEnabled: true,
		SMSEnabled:   true,
	}
}
