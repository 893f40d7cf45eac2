package repo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"batchcognito/internal/core/directory"
	perr "batchcognito/internal/platform/errors"

	"github.com/google/renameio/v2"
)

// PersistError names the record that could not be written
// UserID is empty when the failure is not tied to one record (I/O, rename)
type PersistError struct {
	Path   string
	UserID string
	Field  string
	Cause  error
}

func (e *PersistError) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("persist %s: user %q: %s: %v", e.dest(), e.UserID, e.Field, e.Cause)
	}
	return fmt.Sprintf("persist %s: %v", e.dest(), e.Cause)
}

// Unwrap exposes the cause
func (e *PersistError) Unwrap() error { return e.Cause }

func (e *PersistError) dest() string {
	if e.Path == "" {
		return "<stream>"
	}
	return e.Path
}

// forbidden runes cannot be represented without escaping
const forbidden = ",\"\r\n"

// checkRecord rejects fields the unescaped format cannot carry
func checkRecord(path string, r directory.Record) error {
	if r.UserID == "" {
		return &PersistError{Path: path, Field: "username",
			Cause: perr.InvalidArgf("empty username")}
	}
	if strings.ContainsAny(r.UserID, forbidden) {
		return &PersistError{Path: path, UserID: r.UserID, Field: "username",
			Cause: perr.InvalidArgf("contains a delimiter, quote or line break")}
	}
	if strings.ContainsAny(r.Email, forbidden) {
		return &PersistError{Path: path, UserID: r.UserID, Field: "email",
			Cause: perr.InvalidArgf("contains a delimiter, quote or line break")}
	}
	return nil
}

// Validate checks every record up front so nothing is written for a bad snapshot
func Validate(records []directory.Record) error {
	for _, r := range records {
		if err := checkRecord("", r); err != nil {
			return err
		}
	}
	return nil
}

func writeAll(ctx context.Context, w io.Writer, path string, records []directory.Record) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	if _, err := bw.WriteString(Header + "\n"); err != nil {
		return &PersistError{Path: path, Cause: perr.Wrap(err, perr.ErrorCodeIO, "write header")}
	}
	for i, r := range records {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return &PersistError{Path: path, Cause: err}
			}
		}
		bw.WriteString(r.UserID)
		bw.WriteByte(',')
		bw.WriteString(r.Email)
		if err := bw.WriteByte('\n'); err != nil {
			return &PersistError{Path: path, UserID: r.UserID, Cause: perr.Wrap(err, perr.ErrorCodeIO, "write record")}
		}
	}
	if err := bw.Flush(); err != nil {
		return &PersistError{Path: path, Cause: perr.Wrap(err, perr.ErrorCodeIO, "flush")}
	}
	return nil
}

// Write streams the snapshot to w; records are checked before the first byte
func (fsRepo) Write(ctx context.Context, w io.Writer, records []directory.Record) error {
	if err := Validate(records); err != nil {
		return err
	}
	return writeAll(ctx, w, "", records)
}

// Persist writes to a pending file in the target directory and renames it
// over path only after every record was written and synced
func (fsRepo) Persist(ctx context.Context, path string, records []directory.Record) error {
	if path == "" {
		return &PersistError{Cause: perr.InvalidArgf("empty destination path")}
	}
	if err := Validate(records); err != nil {
		var pe *PersistError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return err
	}

	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600), renameio.WithExistingPermissions())
	if err != nil {
		return &PersistError{Path: path, Cause: perr.Wrap(err, perr.ErrorCodeIO, "create temp file")}
	}
	defer pf.Cleanup()

	if err := writeAll(ctx, pf, path, records); err != nil {
		return err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return &PersistError{Path: path, Cause: perr.Wrap(err, perr.ErrorCodeIO, "atomic replace")}
	}
	return nil
}
