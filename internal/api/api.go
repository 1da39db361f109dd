// Package api implements the HTTP Facade (spec §6): request parsing,
// per-endpoint authorization (§4.5), response envelope timing, and status
// code mapping (§7), all delegating the actual work to internal/registry
// and internal/dataset. Grounded on sapcc-limes' internal/api/core.go
// (httpapi.API's AddTo(*mux.Router) shape, respondwith.JSON/ErrorText) and
// cmd/limes/main.go (logg.Middleware + rs/cors wiring, built in
// cmd/sashimidb rather than here).
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sapcc/go-bits/httpapi"

	"github.com/yaroslaff/sashimidb/internal/registry"
)

// Provider is an httpapi.API that serves the dataset service's endpoint
// table, mirroring the teacher's v1Provider.
type Provider struct {
	Registry *registry.Registry
}

// NewProvider constructs a Provider wrapping reg.
func NewProvider(reg *registry.Registry) httpapi.API {
	return &Provider{Registry: reg}
}

// AddTo implements the httpapi.API interface. Routes whose last path
// segment would otherwise collide with a wildcard (`_config` alongside
// `{ds}`) are registered first, since gorilla/mux matches routes in
// registration order.
func (p *Provider) AddTo(r *mux.Router) {
	r.Methods("HEAD", "GET").Path("/").HandlerFunc(p.withCron(p.Banner))
	r.Methods("POST").Path("/").HandlerFunc(p.withCron(p.CreateProject))

	r.Methods("GET").Path("/{project}/_config").HandlerFunc(p.withCron(p.GetProjectConfig))
	r.Methods("POST").Path("/{project}/_config").HandlerFunc(p.withCron(p.SetProjectConfig))

	r.Methods("POST").Path("/{project}").HandlerFunc(p.withCron(p.ProjectOp))
	r.Methods("PUT").Path("/{project}").HandlerFunc(p.withCron(p.UploadDataset))
	r.Methods("DELETE").Path("/{project}").HandlerFunc(p.withCron(p.DeleteDataset))
	r.Methods("GET").Path("/{project}").HandlerFunc(p.withCron(p.ProjectInfo))

	r.Methods("GET").Path("/{project}/{ds}/_config").HandlerFunc(p.withCron(p.GetDatasetConfig))
	r.Methods("POST").Path("/{project}/{ds}/_config").HandlerFunc(p.withCron(p.SetDatasetConfig))

	r.Methods("POST").Path("/{project}/{ds}").HandlerFunc(p.withCron(p.Search))
	r.Methods("PUT").Path("/{project}/{ds}").HandlerFunc(p.withCron(p.Insert))
	r.Methods("PATCH").Path("/{project}/{ds}").HandlerFunc(p.withCron(p.Mutate))
	r.Methods("GET").Path("/{project}/{ds}").HandlerFunc(p.withCron(p.DatasetStatus))

	r.Methods("GET").Path("/{project}/{ds}/{name}").HandlerFunc(p.withCron(p.NamedSearch))
}

// withCron wraps h so that every inbound request gives the sandbox
// eviction sweep a chance to run (spec §9 "lazy coalesced tick").
func (p *Provider) withCron(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.Registry.MaybeRunCron()
		h(w, r)
	}
}

func pathProject(r *http.Request) string { return mux.Vars(r)["project"] }
func pathDataset(r *http.Request) string { return mux.Vars(r)["ds"] }
func pathName(r *http.Request) string    { return mux.Vars(r)["name"] }
