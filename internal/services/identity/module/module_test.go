package module

import (
	"testing"
	"time"

	"batchcognito/internal/modkit"
	modreg "batchcognito/internal/modkit/module"
	"batchcognito/internal/platform/config"
	perr "batchcognito/internal/platform/errors"
	"batchcognito/internal/services/identity/domain"
)

func TestFromConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("BCTEST_SYNC_MAX_ATTEMPTS", "")
	opts := FromConfig(config.New().Prefix("BCTEST_"))
	want := Options{MaxAttempts: 5, RetryBase: 500 * time.Millisecond, RetryMax: 30 * time.Second}
	if opts != want {
		t.Fatalf("defaults = %+v, want %+v", opts, want)
	}

	t.Setenv("BCTEST_SYNC_MAX_ATTEMPTS", "9")
	t.Setenv("BCTEST_SYNC_TIMEOUT", "90")
	opts = FromConfig(config.New().Prefix("BCTEST_"))
	if opts.MaxAttempts != 9 || opts.Timeout != 90*time.Second {
		t.Fatalf("env not applied: %+v", opts)
	}
}

func TestNew_OverridesAndPorts(t *testing.T) {
	m, err := New(modkit.Deps{Cfg: config.New().Prefix("BCTEST_")}, Options{Timeout: time.Minute, MaxAttempts: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Options().Timeout != time.Minute || m.Options().MaxAttempts != 2 {
		t.Fatalf("overrides not applied: %+v", m.Options())
	}
	if m.Name() != "identity" {
		t.Fatalf("Name = %q", m.Name())
	}
	if _, ok := modreg.PortsOf[domain.SyncPort](m); !ok {
		t.Fatalf("SyncPort not exposed")
	}
	if _, ok := modreg.PortsOf[domain.LoaderPort](m); !ok {
		t.Fatalf("LoaderPort not exposed")
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	cases := []struct {
		name  string
		over  Options
		field string
	}{
		{"too many attempts", Options{MaxAttempts: 500}, "max-attempts"},
		{"retry max below base", Options{RetryBase: time.Second, RetryMax: time.Millisecond}, "retry-max"},
		{"negative timeout", Options{Timeout: -time.Second}, "timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(modkit.Deps{Cfg: config.New().Prefix("BCTEST_")}, tc.over)
			e, ok := perr.As(err)
			if !ok || e.Code() != perr.ErrorCodeValidation || e.Field() != tc.field {
				t.Fatalf("want validation error on %q, got %v", tc.field, err)
			}
		})
	}
}
