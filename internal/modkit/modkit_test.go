package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"batchcognito/internal/modkit/module"
	phttp "batchcognito/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type stub struct {
	name  string
	ports any
}

func (s *stub) MountRoutes(r phttp.Router) {
	r.Get("/"+s.name, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
}
func (s *stub) Ports() any   { return s.ports }
func (s *stub) Name() string { return s.name }

var _ Module = (*stub)(nil)

func TestDeps_HasDirectory(t *testing.T) {
	if (Deps{}).HasDirectory() {
		t.Fatal("zero Deps should report no directory")
	}
}

func TestMountAll_RoutesAndRegistry(t *testing.T) {
	module.Reset()
	t.Cleanup(module.Reset)

	r := phttp.AdaptChi(chi.NewRouter())
	MountAll(r, &stub{name: "alpha", ports: 1}, nil, &stub{name: "beta", ports: "b"})

	for _, p := range []string{"/alpha", "/beta"} {
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s: status %d", p, rec.Code)
		}
	}

	if v, ok := module.PortsAs[string]("beta"); !ok || v != "b" {
		t.Fatalf("registry lookup = %q %v", v, ok)
	}
}

func TestMountAll_NilRouterRegistersOnly(t *testing.T) {
	module.Reset()
	t.Cleanup(module.Reset)

	MountAll(nil, &stub{name: "gamma", ports: 3})
	if v, ok := module.PortsAs[int]("gamma"); !ok || v != 3 {
		t.Fatalf("registry lookup = %v %v", v, ok)
	}
}
