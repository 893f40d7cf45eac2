package testkit

import "testing"

func TestMustPanic(t *testing.T) {
	t.Parallel()

	MustPanic(t, func() {
		panic("boom")
	})
}

func TestMustContain(t *testing.T) {
	t.Parallel()

	MustContain(t, "username,email\nu1,a@x.com\n", "a@x.com")
}

func TestWriteReadFile(t *testing.T) {
	t.Parallel()

	p := WriteFile(t, "emails.txt", "a@x.com\n")
	if got := ReadFile(t, p); got != "a@x.com\n" {
		t.Fatalf("ReadFile = %q", got)
	}
}
