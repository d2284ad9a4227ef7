// internal/workers/infrastructure/index-decision-event/config.go
package indexdecisionevent

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Index:   "decision-events",
	}
}
