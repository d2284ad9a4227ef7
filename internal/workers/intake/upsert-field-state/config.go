// internal/workers/intake/upsert-field-state/config.go
package upsertfieldstate

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
