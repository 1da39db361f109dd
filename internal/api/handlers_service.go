package api

import (
	"net/http"
	"time"

	"github.com/sapcc/go-bits/httpapi"

	"github.com/yaroslaff/sashimidb/internal/config"
)

// bannerResponse is the `GET /` service banner body.
type bannerResponse struct {
	Version   string   `json:"version"`
	StartTime int64    `json:"start_time"`
	Uptime    float64  `json:"uptime"`
	Client    string   `json:"client"`
	Projects  []string `json:"projects"`
}

// Banner serves `GET /`: version, start time, requesting client's host,
// and the list of known projects. Unauthenticated (spec §6).
func (p *Provider) Banner(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/")
	httpapi.SkipRequestLog(r)

	names := p.Registry.ProjectNames()
	resp := bannerResponse{
		Version:   p.Registry.Version,
		StartTime: p.Registry.StartTime.Unix(),
		Uptime:    time.Since(p.Registry.StartTime).Seconds(),
		Client:    r.RemoteAddr,
		Projects:  names,
	}
	respondJSON(w, resp)
}

type createProjectRequest struct {
	Name string `json:"name"`
}

type createProjectResponse struct {
	APIKey string `json:"apikey"`
}

// CreateProject serves `POST /`: creates a fresh project directory and
// returns its freshly generated token. Gated on the master token list
// when one is configured (an empty master token list means the
// deployment has not opted into locking down project creation).
func (p *Provider) CreateProject(w http.ResponseWriter, r *http.Request) {
	if err := requireMasterAuthIfConfigured(r, p.Registry.Master); err != nil {
		respondError(w, err)
		return
	}

	var req createProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, errBadRequest("missing `name`"))
		return
	}

	_, token, err := p.Registry.CreateProject(req.Name)
	if err != nil {
		respondError(w, errConflict(err.Error()))
		return
	}
	respondJSON(w, createProjectResponse{APIKey: token})
}

// requireMasterAuthIfConfigured only runs the auth check when master
// itself declares tokens; an un-provisioned deployment (no tokens set
// anywhere) allows project creation so the service is usable out of the
// box.
func requireMasterAuthIfConfigured(r *http.Request, master *config.Node) error {
	if len(master.StringListInherited("tokens")) == 0 {
		return nil
	}
	return checkAuth(r, master)
}
