// internal/workers/underwriting/check-deal-compliance/config.go
package checkdealcompliance

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultState string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DefaultState: "CA",
	}
}
