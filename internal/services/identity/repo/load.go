package repo

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"batchcognito/internal/core/directory"
	perr "batchcognito/internal/platform/errors"
)

// Load reads a snapshot written by Persist or Write
func (fsRepo) Load(ctx context.Context, path string) ([]directory.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "index file %s not found (run sync first)", path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open index %s", path)
	}
	defer f.Close()

	recs, err := Parse(ctx, f)
	if err != nil {
		return nil, perr.WithOp(err, path)
	}
	return recs, nil
}

// Parse decodes snapshot CSV from r
// The header is required; a leading UTF-8 BOM is tolerated
func Parse(ctx context.Context, r io.Reader) ([]directory.Record, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = 2
	cr.ReuseRecord = true

	head, err := cr.Read()
	if err == io.EOF {
		return nil, perr.InvalidArgf("index is empty (missing %q header)", Header)
	}
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "read index header")
	}
	if !strings.EqualFold(strings.TrimSpace(head[0]), "username") || !strings.EqualFold(strings.TrimSpace(head[1]), "email") {
		return nil, perr.InvalidArgf("unexpected index header %q, want %q", strings.Join(head, ","), Header)
	}

	var out []directory.Record
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "read index")
		}
		id := strings.TrimSpace(row[0])
		if id == "" {
			line, _ := cr.FieldPos(0)
			return nil, perr.InvalidArgf("empty username on line %d", line)
		}
		out = append(out, directory.Record{UserID: id, Email: strings.TrimSpace(row[1])})
	}
	return out, nil
}
