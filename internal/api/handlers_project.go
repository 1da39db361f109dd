package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sapcc/go-bits/httpapi"

	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/dataset"
	"github.com/yaroslaff/sashimidb/internal/registry"
)

func (p *Provider) lookupProject(w http.ResponseWriter, r *http.Request) *registry.Project {
	proj, ok := p.Registry.Project(pathProject(r))
	if !ok {
		respondError(w, errNotFound("no such project"))
		return nil
	}
	return proj
}

type projectOpRequest struct {
	Op string `json:"op"`
}

type newKeyResponse struct {
	APIKey string `json:"apikey"`
}

// ProjectOp serves `POST /{project}`: currently only `{"op":"new-key"}`,
// which rotates and returns the project's token.
func (p *Provider) ProjectOp(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}")
	proj := p.lookupProject(w, r)
	if proj == nil {
		return
	}
	if err := requireProjectAuth(r, proj); err != nil {
		respondError(w, err)
		return
	}

	var req projectOpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Op != "new-key" {
		respondError(w, errBadRequest(fmt.Sprintf("unknown op %q", req.Op)))
		return
	}

	token, err := proj.RotateToken()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, newKeyResponse{APIKey: token})
}

type datasetInfo struct {
	Size      int    `json:"size"`
	Status    string `json:"status"`
	Local     bool   `json:"local"`
	UpdateIP  string `json:"update_ip"`
	Loaded    string `json:"loaded"`
	HasSecret bool   `json:"has_secret,omitempty"`
}

type projectInfoResponse struct {
	Name     string                 `json:"name"`
	Sandbox  bool                   `json:"sandbox"`
	Datasets map[string]datasetInfo `json:"datasets"`
}

// ProjectInfo serves `GET /{project}`: per-dataset size, status, local
// flag, update_ip, loaded, and (sandbox only) whether a secret is set.
// Unauthenticated (a read, per spec §6 philosophy).
func (p *Provider) ProjectInfo(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}")
	proj := p.lookupProject(w, r)
	if proj == nil {
		return
	}

	infos := make(map[string]datasetInfo)
	for _, name := range proj.DatasetNames() {
		ds, ok := proj.Dataset(name)
		if !ok {
			continue
		}
		ds.Mu.RLock()
		info := datasetInfo{
			Size:     ds.Size,
			Status:   "OK",
			Local:    ds.LocalFile,
			UpdateIP: ds.UpdateIP,
			Loaded:   ds.Loaded.Format(time.RFC3339),
		}
		if proj.IsSandbox() {
			info.HasSecret = ds.Secret != ""
		}
		ds.Mu.RUnlock()
		infos[name] = info
	}

	respondJSON(w, projectInfoResponse{
		Name:     proj.Name,
		Sandbox:  proj.IsSandbox(),
		Datasets: infos,
	})
}

type uploadDatasetRequest struct {
	Name   string            `json:"name"`
	Data   []json.RawMessage `json:"ds"`
	Secret string            `json:"secret,omitempty"`
}

// UploadDataset serves `PUT /{project}`: replace/create a dataset
// wholesale from an inline record list (spec §6, §4.4).
func (p *Provider) UploadDataset(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}")
	proj := p.lookupProject(w, r)
	if proj == nil {
		return
	}
	if err := requireProjectAuth(r, proj); err != nil {
		respondError(w, err)
		return
	}

	var req uploadDatasetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !config.ValidDatasetName(req.Name) {
		respondError(w, errBadRequest("invalid dataset name"))
		return
	}

	records := make([]*dataset.Record, len(req.Data))
	for i, raw := range req.Data {
		rec := dataset.NewRecord()
		if err := json.Unmarshal(raw, rec); err != nil {
			respondError(w, errBadRequest("record "+err.Error()))
			return
		}
		records[i] = rec
	}

	ds, err := proj.Upload(req.Name, records, req.Secret)
	if err != nil {
		respondError(w, errUnauthorized(err.Error()))
		return
	}
	respondJSON(w, map[string]any{"status": "OK", "size": ds.Len()})
}

type deleteDatasetRequest struct {
	Name string `json:"name"`
}

// DeleteDataset serves `DELETE /{project}`.
func (p *Provider) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}")
	proj := p.lookupProject(w, r)
	if proj == nil {
		return
	}
	if err := requireProjectAuth(r, proj); err != nil {
		respondError(w, err)
		return
	}

	var req deleteDatasetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := proj.DeleteDataset(req.Name); err != nil {
		respondError(w, errNotFound(err.Error()))
		return
	}
	respondJSON(w, map[string]any{"status": "OK"})
}

// GetProjectConfig serves `GET /{project}/_config`: the project's own
// (non-inherited) config values. Gated since a config dump can include
// the project's tokens.
func (p *Provider) GetProjectConfig(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}/_config")
	proj := p.lookupProject(w, r)
	if proj == nil {
		return
	}
	if err := requireProjectAuth(r, proj); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, proj.Config.Values)
}

// SetProjectConfig serves `POST /{project}/_config`: replaces the
// project's own config values with a validated YAML document.
func (p *Provider) SetProjectConfig(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}/_config")
	proj := p.lookupProject(w, r)
	if proj == nil {
		return
	}
	if err := requireProjectAuth(r, proj); err != nil {
		respondError(w, err)
		return
	}

	values, ok := parseConfigBody(w, r)
	if !ok {
		return
	}
	proj.Config.ReplaceValues(values)
	if err := proj.Config.Save(); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]any{"status": "OK"})
}
