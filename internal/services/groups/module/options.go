package module

import (
	"time"

	"batchcognito/internal/platform/config"
	"batchcognito/internal/platform/validate"
)

// Options controls bulk group runs. Values may also be read from env or the profile file
type Options struct {
	Concurrency   int           `flag:"concurrency" validate:"min=1,max=256"`
	MaxAttempts   int           `flag:"max-attempts" validate:"min=1,max=50"`
	RetryBase     time.Duration `flag:"retry-base" validate:"gt=0"`
	RetryMax      time.Duration `flag:"retry-max" validate:"gtefield=RetryBase"`
	CallTimeout   time.Duration `flag:"call-timeout" validate:"gte=0"`
	Timeout       time.Duration `flag:"timeout" validate:"gte=0"`
	ProgressEvery time.Duration `flag:"progress-every" validate:"gte=0"`
}

// FromConfig reads options using the GROUPS_ prefix
func FromConfig(cfg config.Conf) Options {
	gc := cfg.Prefix("GROUPS_")
	return Options{
		Concurrency:   gc.MayInt("CONCURRENCY", 1),
		MaxAttempts:   gc.MayInt("MAX_ATTEMPTS", 5),
		RetryBase:     gc.MayDuration("RETRY_BASE", 500*time.Millisecond),
		RetryMax:      gc.MayDuration("RETRY_MAX", 30*time.Second),
		CallTimeout:   gc.MayDuration("CALL_TIMEOUT", 30*time.Second),
		Timeout:       gc.MayDuration("TIMEOUT", 0),
		ProgressEvery: gc.MayDuration("PROGRESS_EVERY", 5*time.Second),
	}
}

// merge applies non-zero overrides (CLI flags) on top of o
func (o Options) merge(over Options) Options {
	if over.Concurrency != 0 {
		o.Concurrency = over.Concurrency
	}
	if over.MaxAttempts != 0 {
		o.MaxAttempts = over.MaxAttempts
	}
	if over.RetryBase != 0 {
		o.RetryBase = over.RetryBase
	}
	if over.RetryMax != 0 {
		o.RetryMax = over.RetryMax
	}
	if over.CallTimeout != 0 {
		o.CallTimeout = over.CallTimeout
	}
	if over.Timeout != 0 {
		o.Timeout = over.Timeout
	}
	if over.ProgressEvery != 0 {
		o.ProgressEvery = over.ProgressEvery
	}
	return o
}

// Validate reports the first invalid option as a validation error
func (o Options) Validate() error { return validate.Struct(o) }
