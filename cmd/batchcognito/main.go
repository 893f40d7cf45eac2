// Command batchcognito snapshots a Cognito user pool into a local index and
// bulk adds or removes users to or from groups by email
package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	perr "batchcognito/internal/platform/errors"
)

const (
	exitOK = iota
	// exitProblems means the run finished but at least one task did not succeed
	exitProblems
	exitUsage
	exitFatal
)

// envPrefix scopes every environment variable and profile key
const envPrefix = "BATCHCOGNITO_"

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode maps a command error onto the process exit status
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch perr.CodeOf(err) {
	case perr.ErrorCodeInvalidArgument, perr.ErrorCodeValidation:
		return exitUsage
	}
	return exitFatal
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.code != exitProblems {
			_, _ = io.WriteString(stderr, "error: "+err.Error()+"\n")
		}
	}
	return exitCode(err)
}
