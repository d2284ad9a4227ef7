// internal/workers/intake/sync-crm-fields/config.go
package synccrmfields

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 20 * time.Second,
	}
}
