package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"batchcognito/internal/platform/logger"
	"batchcognito/internal/platform/net/middleware"
)

func TestAccessLogZerolog_PassThrough(t *testing.T) {
	for _, slow := range []time.Duration{0, time.Nanosecond} {
		mw := middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: slow})
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, "ok")
		})

		rr := httptest.NewRecorder()
		mw(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

		if rr.Code != http.StatusCreated || rr.Body.String() != "ok" {
			t.Fatalf("slow=%v: got %d %q", slow, rr.Code, rr.Body.String())
		}
	}
}

func TestWithRun_StampsContextAndHeader(t *testing.T) {
	var seen string
	h := middleware.WithRun("run-7", "pool-1")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RunID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen != "run-7" || rr.Header().Get("X-Run-ID") != "run-7" {
		t.Fatalf("run id not propagated: ctx=%q header=%q", seen, rr.Header().Get("X-Run-ID"))
	}
}

func TestRecoverJSON(t *testing.T) {
	h := middleware.RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "internal error" {
		t.Fatalf("body = %v", body)
	}
}
