// internal/workers/scheduling/schedule-follow-up/config.go
package schedulefollowup

import "time"

type Config struct {
	Timeout     time.Duration
	DefaultDays int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		DefaultDays: 30,
	}
}
