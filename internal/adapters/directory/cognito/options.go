package cognito

import (
	"strings"

	"batchcognito/internal/platform/config"
	"batchcognito/internal/platform/validate"
)

// Options configures the Cognito client
type Options struct {
	PoolID   string `flag:"pool-id" validate:"required"`
	Region   string `flag:"region"`
	Endpoint string `flag:"endpoint" validate:"omitempty,url"`
	PageSize int    `flag:"page-size" validate:"min=1,max=60"`

	// client-side pacing; 0 leaves requests unpaced
	RatePerSec float64 `flag:"rps" validate:"gte=0"`
	Burst      int     `flag:"burst" validate:"gte=0"`

	// SDKMaxAttempts stays at 1 by default so retry policy lives in one place
	SDKMaxAttempts int `flag:"sdk-max-attempts" validate:"min=1,max=10"`
}

// FromConfig reads options using the COGNITO_ prefix
// The pool id falls back to the unprefixed COGNITO_USER_POOL_ID variable
func FromConfig(cfg config.Conf) Options {
	cc := cfg.Prefix("COGNITO_")
	pool := cc.MayString("USER_POOL_ID", "")
	if pool == "" {
		pool = config.New().MayString("COGNITO_USER_POOL_ID", "")
	}
	return Options{
		PoolID:         pool,
		Region:         cc.MayString("REGION", ""),
		Endpoint:       cc.MayString("ENDPOINT", ""),
		PageSize:       cc.MayInt("PAGE_SIZE", maxPageSize),
		RatePerSec:     cc.MayFloat64("RPS", 0),
		Burst:          cc.MayInt("BURST", 1),
		SDKMaxAttempts: cc.MayInt("SDK_MAX_ATTEMPTS", 1),
	}
}

// Merge applies non-zero overrides (CLI flags) on top of o
func (o Options) Merge(over Options) Options {
	if over.PoolID != "" {
		o.PoolID = over.PoolID
	}
	if over.Region != "" {
		o.Region = over.Region
	}
	if over.Endpoint != "" {
		o.Endpoint = over.Endpoint
	}
	if over.PageSize != 0 {
		o.PageSize = over.PageSize
	}
	if over.RatePerSec != 0 {
		o.RatePerSec = over.RatePerSec
	}
	if over.Burst != 0 {
		o.Burst = over.Burst
	}
	if over.SDKMaxAttempts != 0 {
		o.SDKMaxAttempts = over.SDKMaxAttempts
	}
	return o
}

// Validate reports the first invalid option as a validation error
func (o Options) Validate() error { return validate.Struct(o) }

func (o Options) withDefaults() Options {
	o.PoolID = strings.TrimSpace(o.PoolID)
	if o.PageSize == 0 {
		o.PageSize = maxPageSize
	}
	if o.SDKMaxAttempts == 0 {
		o.SDKMaxAttempts = 1
	}
	return o
}

// region prefers the explicit setting, then the pool id prefix ("eu-west-1_AbC")
func (o Options) region() string {
	if o.Region != "" {
		return o.Region
	}
	if i := strings.IndexByte(o.PoolID, '_'); i > 0 {
		return o.PoolID[:i]
	}
	return ""
}
