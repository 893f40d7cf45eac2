package service

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"batchcognito/internal/core/directory"
	"batchcognito/internal/modkit"
	perr "batchcognito/internal/platform/errors"
	kit "batchcognito/internal/platform/testkit"
	"batchcognito/internal/services/identity/domain"
)

// fakeDir serves pages keyed by cursor; errs[cursor] is consumed one per call
type fakeDir struct {
	mu    sync.Mutex
	pages map[string]directory.Page
	errs  map[string][]error
	calls map[string]int
	block bool
}

func (f *fakeDir) ListPage(ctx context.Context, cursor string) (directory.Page, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[cursor]++
	var err error
	if q := f.errs[cursor]; len(q) > 0 {
		err = q[0]
		f.errs[cursor] = q[1:]
	}
	block := f.block
	p := f.pages[cursor]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return directory.Page{}, perr.Wrap(ctx.Err(), perr.ErrorCodeUnavailable, "list users")
	}
	if err != nil {
		return directory.Page{}, err
	}
	return p, nil
}

func (f *fakeDir) MutateGroup(context.Context, string, string, directory.Operation) error {
	return errors.New("not used")
}

func (f *fakeDir) callsFor(cursor string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[cursor]
}

func threePages() map[string]directory.Page {
	return map[string]directory.Page{
		"":   {Records: []directory.Record{{UserID: "u1", Email: "alice@x.com"}, {UserID: "u2", Email: "bob@x.com"}}, Next: "c1"},
		"c1": {Records: []directory.Record{{UserID: "u3", Email: "Dana@X.com"}}, Next: "c2"},
		"c2": {Records: []directory.Record{{UserID: "u4", Email: "dana@x.com"}, {UserID: "u5"}}},
	}
}

var fast = domain.BuildOptions{MaxAttempts: 3, RetryBase: time.Millisecond, RetryMax: 2 * time.Millisecond}

func TestBuild_WalksEveryPageInOrder(t *testing.T) {
	f := &fakeDir{pages: threePages()}
	got, err := Build(context.Background(), f, fast)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.UserID)
	}
	if !reflect.DeepEqual(ids, []string{"u1", "u2", "u3", "u4", "u5"}) {
		t.Fatalf("ids = %v", ids)
	}
	for _, c := range []string{"", "c1", "c2"} {
		if n := f.callsFor(c); n != 1 {
			t.Fatalf("cursor %q called %d times", c, n)
		}
	}
}

func TestBuild_RetriesRetryableThenSucceeds(t *testing.T) {
	f := &fakeDir{
		pages: threePages(),
		errs: map[string][]error{
			"c1": {perr.TooManyRequestsf("throttled"), perr.Unavailablef("503")},
		},
	}
	got, err := Build(context.Background(), f, fast)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(got) != 5 || f.callsFor("c1") != 3 {
		t.Fatalf("records=%d calls(c1)=%d", len(got), f.callsFor("c1"))
	}
}

func TestBuild_Failures(t *testing.T) {
	cases := []struct {
		name      string
		dir       *fakeDir
		wantPages int
		wantCode  perr.ErrorCode
		wantCalls map[string]int
		wantMsg   string
	}{
		{
			name: "retry exhaustion",
			dir: &fakeDir{pages: threePages(), errs: map[string][]error{
				"c1": {perr.Unavailablef("503"), perr.Unavailablef("503"), perr.Unavailablef("503"), perr.Unavailablef("503")},
			}},
			wantPages: 1,
			wantCode:  perr.ErrorCodeUnavailable,
			wantCalls: map[string]int{"": 1, "c1": 3, "c2": 0},
			wantMsg:   "gave up after 3 attempts",
		},
		{
			name: "permanent error fails immediately",
			dir: &fakeDir{pages: threePages(), errs: map[string][]error{
				"": {perr.Unauthorizedf("bad creds")},
			}},
			wantPages: 0,
			wantCode:  perr.ErrorCodeUnauthorized,
			wantCalls: map[string]int{"": 1, "c1": 0},
			wantMsg:   "bad creds",
		},
		{
			name: "duplicate user id across pages",
			dir: &fakeDir{pages: map[string]directory.Page{
				"":   {Records: []directory.Record{{UserID: "u1", Email: "a@x.com"}}, Next: "c1"},
				"c1": {Records: []directory.Record{{UserID: "u1", Email: "b@x.com"}}},
			}},
			wantPages: 1,
			wantCode:  perr.ErrorCodeConflict,
			wantMsg:   `user id "u1" listed on page 1 and again on page 2`,
		},
		{
			name: "cursor does not advance",
			dir: &fakeDir{pages: map[string]directory.Page{
				"":   {Records: []directory.Record{{UserID: "u1"}}, Next: "c1"},
				"c1": {Records: []directory.Record{{UserID: "u2"}}, Next: "c1"},
			}},
			wantPages: 2,
			wantCode:  perr.ErrorCodeConflict,
			wantMsg:   "did not advance",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Build(context.Background(), tc.dir, fast)
			if got != nil {
				t.Fatalf("partial result returned: %v", got)
			}
			var ibe *domain.IndexBuildError
			if !errors.As(err, &ibe) {
				t.Fatalf("want *IndexBuildError, got %v", err)
			}
			if ibe.PagesCompleted != tc.wantPages {
				t.Fatalf("PagesCompleted = %d, want %d", ibe.PagesCompleted, tc.wantPages)
			}
			if perr.CodeOf(err) != tc.wantCode {
				t.Fatalf("code = %s, want %s", perr.CodeOf(err), tc.wantCode)
			}
			kit.MustContain(t, err.Error(), tc.wantMsg)
			for c, n := range tc.wantCalls {
				if got := tc.dir.callsFor(c); got != n {
					t.Fatalf("cursor %q called %d times, want %d", c, got, n)
				}
			}
		})
	}
}

func TestBuild_NilLister(t *testing.T) {
	_, err := Build(context.Background(), nil, fast)
	var ibe *domain.IndexBuildError
	if !errors.As(err, &ibe) || !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid-argument build error, got %v", err)
	}
}

func newSvc(dir directory.Client, cfg Config) *Svc {
	cfg.RetryBase, cfg.RetryMax = time.Millisecond, 2*time.Millisecond
	return New(modkit.Deps{Dir: dir}, cfg)
}

func TestSyncToFile_ThenLoadIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.csv")
	s := newSvc(&fakeDir{pages: threePages()}, Config{MaxAttempts: 2})

	res, err := s.SyncToFile(ctx, path)
	if err != nil {
		t.Fatalf("SyncToFile: %v", err)
	}
	want := domain.Stats{Records: 5, Keys: 3, Ambiguous: 1, NoEmail: 1}
	if res.Pages != 3 || res.Stats != want || res.Dest != path {
		t.Fatalf("SyncResult = %+v", res)
	}

	ix, err := s.LoadIndex(ctx, path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if id, r := ix.Resolve("ALICE@x.com"); r != domain.Resolved || id != "u1" {
		t.Fatalf("alice resolved to %q %s", id, r)
	}
	if _, r := ix.Resolve("dana@x.com"); r != domain.Ambiguous {
		t.Fatalf("dana should be ambiguous, got %s", r)
	}
}

func TestSyncToFile_FailedBuildKeepsExistingSnapshot(t *testing.T) {
	path := kit.WriteFile(t, "users.csv", "username,email\nold,old@x.com\n")
	s := newSvc(&fakeDir{pages: threePages(), errs: map[string][]error{
		"c2": {perr.Unauthorizedf("revoked")},
	}}, Config{MaxAttempts: 2})

	if _, err := s.SyncToFile(context.Background(), path); err == nil {
		t.Fatalf("expected failure")
	}
	if got := kit.ReadFile(t, path); got != "username,email\nold,old@x.com\n" {
		t.Fatalf("snapshot replaced on failure: %q", got)
	}
}

func TestSyncToWriter(t *testing.T) {
	var buf bytes.Buffer
	s := newSvc(&fakeDir{pages: threePages()}, Config{})
	if _, err := s.SyncToWriter(context.Background(), &buf); err != nil {
		t.Fatalf("SyncToWriter: %v", err)
	}
	want := "username,email\nu1,alice@x.com\nu2,bob@x.com\nu3,Dana@X.com\nu4,dana@x.com\nu5,\n"
	if buf.String() != want {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestSync_Timeout(t *testing.T) {
	s := newSvc(&fakeDir{block: true}, Config{Timeout: 20 * time.Millisecond})

	_, err := s.SyncToWriter(context.Background(), &bytes.Buffer{})
	if !perr.IsCode(err, perr.ErrorCodeDeadline) {
		t.Fatalf("want deadline code, got %v (%s)", err, perr.CodeOf(err))
	}
	kit.MustContain(t, err.Error(), "sync operation timed out after 20ms")
}

func TestLoadIndex_Missing(t *testing.T) {
	s := newSvc(nil, Config{})
	_, err := s.LoadIndex(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
