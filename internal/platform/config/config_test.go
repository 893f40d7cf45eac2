package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	perr "batchcognito/internal/platform/errors"
	kit "batchcognito/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	root := New()
	app := root.Prefix("BATCHCOGNITO_")
	if got := app.key("GROUPS_CONCURRENCY"); got != "BATCHCOGNITO_GROUPS_CONCURRENCY" {
		t.Fatalf("key() = %q", got)
	}
	nested := app.Prefix("GROUPS_")
	if got := nested.key("CONCURRENCY"); got != "BATCHCOGNITO_GROUPS_CONCURRENCY" {
		t.Fatalf("nested key() = %q", got)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("APP_")
	t.Setenv("APP_POOL", "  eu-west-1_x ")
	if got := c.MustString("POOL"); got != "eu-west-1_x" {
		t.Fatalf("MustString = %q", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMayReaders(t *testing.T) {
	c := New().Prefix("M_")
	t.Setenv("M_S", " v ")
	t.Setenv("M_I", "12")
	t.Setenv("M_IBAD", "x")
	t.Setenv("M_F", "2.5")
	t.Setenv("M_B", "true")
	t.Setenv("M_BBAD", "maybe")
	t.Setenv("M_D", "250ms")
	t.Setenv("M_DSEC", "30")
	t.Setenv("M_DBAD", "soon")
	t.Setenv("M_CSV", " a, ,b ")
	t.Setenv("M_CSVEMPTY", " , ")

	if got := c.MayString("S", "d"); got != "v" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayString("NOPE", "d"); got != "d" {
		t.Fatalf("MayString default = %q", got)
	}
	if got := c.MayInt("I", 1); got != 12 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayInt("IBAD", 1); got != 1 {
		t.Fatalf("MayInt invalid = %d", got)
	}
	if got := c.MayFloat64("F", 1); got != 2.5 {
		t.Fatalf("MayFloat64 = %v", got)
	}
	if !c.MayBool("B", false) || c.MayBool("BBAD", false) {
		t.Fatalf("MayBool mismatch")
	}
	if got := c.MayDuration("D", time.Second); got != 250*time.Millisecond {
		t.Fatalf("MayDuration = %v", got)
	}
	if got := c.MayDuration("DSEC", time.Second); got != 30*time.Second {
		t.Fatalf("MayDuration seconds = %v", got)
	}
	if got := c.MayDuration("DBAD", time.Second); got != time.Second {
		t.Fatalf("MayDuration invalid = %v", got)
	}
	if got := c.MayCSV("CSV", nil); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("MayCSV = %v", got)
	}
	if got := c.MayCSV("CSVEMPTY", []string{"x"}); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("MayCSV empty = %v", got)
	}
}

func TestLoad_FileUnderEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.toml")
	body := `
[cognito]
user-pool-id = "eu-west-1_file"
rps = 12.5

[groups]
concurrency = 8
retry_base = "1s"
names = ["admins", "staff"]
dry = true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path, "BC_")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	t.Setenv("BC_GROUPS_CONCURRENCY", "3")

	if got := c.Prefix("COGNITO_").MayString("USER_POOL_ID", ""); got != "eu-west-1_file" {
		t.Fatalf("file string = %q", got)
	}
	if got := c.Prefix("COGNITO_").MayFloat64("RPS", 0); got != 12.5 {
		t.Fatalf("file float = %v", got)
	}
	g := c.Prefix("GROUPS_")
	if got := g.MayInt("CONCURRENCY", 1); got != 3 {
		t.Fatalf("env should win over file, got %d", got)
	}
	if got := g.MayDuration("RETRY_BASE", 0); got != time.Second {
		t.Fatalf("file duration = %v", got)
	}
	if got := g.MayCSV("NAMES", nil); !reflect.DeepEqual(got, []string{"admins", "staff"}) {
		t.Fatalf("file array = %v", got)
	}
	if !g.MayBool("DRY", false) {
		t.Fatalf("file bool not read")
	}
	if keys := c.Keys(); len(keys) != 6 || keys[0] != "BC_COGNITO_RPS" {
		t.Fatalf("Keys = %v", keys)
	}
}

func TestLoad_EmptyPathAndErrors(t *testing.T) {
	c, err := Load("  ", "BC_")
	if err != nil || len(c.Keys()) != 0 {
		t.Fatalf("empty path: %v %v", c.Keys(), err)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"), "BC_")
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing file err = %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("[groups\nx ="), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad, "BC_"); err == nil {
		t.Fatalf("expected parse error")
	}
}
