// Package repo reads the target email lists for bulk group changes
package repo

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	perr "batchcognito/internal/platform/errors"
)

// Repo reads target lists
type Repo interface {
	ReadTargets(ctx context.Context, path string) ([]string, error)
}

// NewFS returns a filesystem-backed Repo; "-" reads from stdin
func NewFS() Repo { return fsRepo{stdin: os.Stdin} }

type fsRepo struct{ stdin io.Reader }

// ReadTargets opens path and parses one email per line
func (r fsRepo) ReadTargets(ctx context.Context, path string) ([]string, error) {
	if path == "" {
		return nil, perr.InvalidArgf("no emails file given")
	}
	if path == "-" {
		return ParseTargets(ctx, r.stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "emails file %s not found", path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open emails file %s", path)
	}
	defer f.Close()
	return ParseTargets(ctx, f)
}

// ParseTargets returns raw emails in file order
// Blank lines and # comments are skipped, as is a leading "email" header
// Values are trimmed but not normalized or deduplicated
func ParseTargets(ctx context.Context, rd io.Reader) ([]string, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		out      []string
		lineNo   int
		sawFirst bool
	)
	for sc.Scan() {
		lineNo++
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line := sc.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(line, "email") {
				continue
			}
		}
		if strings.ContainsAny(line, ", \t") {
			return nil, perr.InvalidArgf("line %d: expected a single email, got %q", lineNo, line)
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeIO, "read emails")
	}
	return out, nil
}
