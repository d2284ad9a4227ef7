// internal/workers/decisioning/check-field-freshness/config.go
package checkfieldfreshness

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
