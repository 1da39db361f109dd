package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sapcc/go-bits/httpapi"

	"github.com/yaroslaff/sashimidb/internal/auth"
	"github.com/yaroslaff/sashimidb/internal/dataset"
	"github.com/yaroslaff/sashimidb/internal/registry"
)

// lookupDataset resolves {project}/{ds}, writing a 404 response and
// returning (nil, nil) if either is missing.
func (p *Provider) lookupDataset(w http.ResponseWriter, r *http.Request) (*registry.Project, *dataset.Dataset) {
	proj := p.lookupProject(w, r)
	if proj == nil {
		return nil, nil
	}
	ds, ok := proj.Dataset(pathDataset(r))
	if !ok {
		respondError(w, errNotFound("no such dataset"))
		return nil, nil
	}
	return proj, ds
}

// GetDatasetConfig serves `GET /{project}/{ds}/_config`.
func (p *Provider) GetDatasetConfig(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}/{ds}/_config")
	_, ds := p.lookupDataset(w, r)
	if ds == nil {
		return
	}
	if err := requireDatasetAuth(r, ds.Config); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, ds.Config.Values)
}

// SetDatasetConfig serves `POST /{project}/{ds}/_config`.
func (p *Provider) SetDatasetConfig(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}/{ds}/_config")
	_, ds := p.lookupDataset(w, r)
	if ds == nil {
		return
	}
	if err := requireDatasetAuth(r, ds.Config); err != nil {
		respondError(w, err)
		return
	}

	values, ok := parseConfigBody(w, r)
	if !ok {
		return
	}
	ds.Mu.Lock()
	ds.Config.ReplaceValues(values)
	err := ds.Config.Save()
	ds.Mu.Unlock()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]any{"status": "OK"})
}

// Search serves `POST /{project}/{ds}`: runs a SearchQuery. No auth
// required on read (spec §6).
func (p *Provider) Search(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}/{ds}")
	_, ds := p.lookupDataset(w, r)
	if ds == nil {
		return
	}

	var q dataset.SearchQuery
	if !decodeJSON(w, r, &q) {
		return
	}

	started := time.Now()
	ds.Mu.RLock()
	resp, err := ds.Search(q, p.Registry.Model)
	ds.Mu.RUnlock()
	if err != nil {
		respondError(w, errBadRequest(err.Error()))
		return
	}
	resp.Time = time.Since(started).Seconds()
	respondJSON(w, resp)
}

// DatasetStatus serves `GET /{project}/{ds}`: a one-line status string.
func (p *Provider) DatasetStatus(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}/{ds}")
	_, ds := p.lookupDataset(w, r)
	if ds == nil {
		return
	}
	ds.Mu.RLock()
	status := fmt.Sprintf("dataset %q: %d records, %d bytes, loaded %s", ds.Name, ds.Len(), ds.Size, ds.Loaded.Format(time.RFC3339))
	ds.Mu.RUnlock()
	respondJSON(w, map[string]any{"status": status})
}

// NamedSearch serves `GET /{project}/{ds}/{name}`: runs (or returns the
// cached result of) a saved search.
func (p *Provider) NamedSearch(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}/{ds}/{name}")
	_, ds := p.lookupDataset(w, r)
	if ds == nil {
		return
	}

	started := time.Now()
	ds.Mu.RLock()
	resp, err := ds.RunNamedSearch(pathName(r), p.Registry.Model)
	ds.Mu.RUnlock()
	if err != nil {
		respondError(w, errNotFound(err.Error()))
		return
	}
	resp.Time = time.Since(started).Seconds()
	respondJSON(w, resp)
}

// Insert serves `PUT /{project}/{ds}`: appends a single record, supplied
// JSON-encoded in SearchQuery.Data.
func (p *Provider) Insert(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}/{ds}")
	_, ds := p.lookupDataset(w, r)
	if ds == nil {
		return
	}
	if err := requireDatasetAuth(r, ds.Config); err != nil {
		respondError(w, err)
		return
	}

	var q dataset.SearchQuery
	if !decodeJSON(w, r, &q) {
		return
	}
	if q.Data == "" {
		respondError(w, errBadRequest("missing `data`"))
		return
	}

	ds.Mu.Lock()
	err := ds.Insert(q.Data)
	ds.Mu.Unlock()
	if err != nil {
		respondError(w, errBadRequest(err.Error()))
		return
	}
	respondJSON(w, map[string]any{"status": "OK", "size": ds.Len()})
}

// Mutate serves `PATCH /{project}/{ds}`: dispatches on SearchQuery.Op to
// delete, update, or reload (see DESIGN.md Open Question #3).
func (p *Provider) Mutate(w http.ResponseWriter, r *http.Request) {
	httpapi.IdentifyEndpoint(r, "/{project}/{ds}")
	_, ds := p.lookupDataset(w, r)
	if ds == nil {
		return
	}
	if err := requireDatasetAuth(r, ds.Config); err != nil {
		respondError(w, err)
		return
	}

	var q dataset.SearchQuery
	if !decodeJSON(w, r, &q) {
		return
	}

	var opName string
	switch q.Op {
	case dataset.OpDelete, dataset.OpUpdate, dataset.OpReload:
		opName = q.Op
	default:
		respondError(w, errBadRequest(fmt.Sprintf("unknown op %q", q.Op)))
		return
	}
	if err := ds.CheckAllowedOperation(opName); err != nil {
		respondError(w, errUnauthorized(err.Error()))
		return
	}

	clientIP := clientIPForMutation(r, ds)

	switch opName {
	case dataset.OpDelete:
		ds.Mu.Lock()
		resp, err := ds.Delete(q, p.Registry.Model)
		ds.Mu.Unlock()
		if err != nil {
			respondError(w, errBadRequest(err.Error()))
			return
		}
		respondJSON(w, resp)
	case dataset.OpUpdate:
		ds.Mu.Lock()
		resp, err := ds.Update(q, clientIP, p.Registry.Model)
		ds.Mu.Unlock()
		if err != nil {
			respondError(w, errBadRequest(err.Error()))
			return
		}
		respondJSON(w, resp)
	case dataset.OpReload:
		ds.Mu.Lock()
		msg, err := ds.Reload()
		ds.Mu.Unlock()
		if err != nil {
			respondError(w, errBadRequest(err.Error()))
			return
		}
		respondJSON(w, map[string]any{"status": "OK", "message": msg})
	}
}

// clientIPForMutation resolves the client IP to stamp into update_ip,
// falling back to the raw remote address if ip_header resolution fails —
// a mutation that has already cleared auth should not be rejected just
// because update_ip bookkeeping can't resolve a header.
func clientIPForMutation(r *http.Request, ds *dataset.Dataset) string {
	ipHeader, _ := ds.Config.String("ip_header")
	ip, err := auth.ClientIP(r, ipHeader)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
