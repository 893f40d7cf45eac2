package module

import (
	"time"

	"batchcognito/internal/platform/config"
	"batchcognito/internal/platform/validate"
)

// Options controls sync behavior. Values may also be read from env or the profile file
type Options struct {
	MaxAttempts int           `flag:"max-attempts" validate:"min=1,max=50"`
	RetryBase   time.Duration `flag:"retry-base" validate:"gt=0"`
	RetryMax    time.Duration `flag:"retry-max" validate:"gtefield=RetryBase"`
	Timeout     time.Duration `flag:"timeout" validate:"gte=0"`
}

// FromConfig reads options using the SYNC_ prefix
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("SYNC_")
	return Options{
		MaxAttempts: sc.MayInt("MAX_ATTEMPTS", 5),
		RetryBase:   sc.MayDuration("RETRY_BASE", 500*time.Millisecond),
		RetryMax:    sc.MayDuration("RETRY_MAX", 30*time.Second),
		Timeout:     sc.MayDuration("TIMEOUT", 0),
	}
}

// merge applies non-zero overrides (CLI flags) on top of o
func (o Options) merge(over Options) Options {
	if over.MaxAttempts != 0 {
		o.MaxAttempts = over.MaxAttempts
	}
	if over.RetryBase != 0 {
		o.RetryBase = over.RetryBase
	}
	if over.RetryMax != 0 {
		o.RetryMax = over.RetryMax
	}
	if over.Timeout != 0 {
		o.Timeout = over.Timeout
	}
	return o
}

// Validate reports the first invalid option as a validation error
func (o Options) Validate() error { return validate.Struct(o) }
