package vl53l0x

import "time"

// Defaults applied to zero Config fields
const (
	DefaultBootDelay   = 3 * time.Millisecond
	DefaultStatusPolls = 10000
)

// Config controls bring-up and ranging. Zero fields take the defaults above.
type Config struct {
	Sensors Registry

	// BootDelay is waited after XSHUT release before the first bus access.
	// The datasheet boot time is 1.2ms.
	BootDelay time.Duration

	// FirstCycleTimeout bounds the wait for the first multi cycle in
	// ReadMulti. Zero waits forever.
	FirstCycleTimeout time.Duration

	// StatusPolls bounds every device-side status poll (NVM strobe,
	// sysrange start, interrupt status).
	StatusPolls uint32
}

// DefaultConfig returns a Config for the given registry
func DefaultConfig(sensors Registry) Config {
	cfg := Config{Sensors: sensors}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.BootDelay == 0 {
		c.BootDelay = DefaultBootDelay
	}
	if c.StatusPolls == 0 {
		c.StatusPolls = DefaultStatusPolls
	}
}

func (c *Config) bootDelayMS() uint32 {
	ms := uint32(c.BootDelay / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	return ms
}
