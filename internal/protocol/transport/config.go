package transport

import "time"

// BackoffConfig defines dial retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// DialConfig defines stream connection setup. Retries apply to dialing
// only; requests are never retried.
type DialConfig struct {
	Address        string
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	MaxAttempts    int
	Backoff        BackoffConfig
}

func DefaultDialConfig() DialConfig {
	return DialConfig{
		ConnectTimeout: 5 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxAttempts:    5,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero-valued timeouts and backoff from DefaultDialConfig.
func (c DialConfig) WithDefaults() DialConfig {
	def := DefaultDialConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.Backoff.InitialDelay <= 0 && c.Backoff.MaxDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}
