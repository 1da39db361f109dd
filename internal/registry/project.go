package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/dataset"
)

// Project is a named group of Datasets plus a project-level Configuration
// node (spec §3 "Project"). Dataset names are unique within a project.
type Project struct {
	mu sync.RWMutex

	Name   string
	Config *config.Node
	// Path is the on-disk project directory (empty for a project that
	// exists only in memory, which should not normally happen outside
	// of tests).
	Path string

	Datasets map[string]*dataset.Dataset
	// Sources records where each dataset's content came from, so Reload
	// can re-fetch it (§4.3 EXPANSION note: Dataset itself stays
	// oblivious to its own loader).
	Sources map[string]DatasetSource
}

// newProject constructs an empty Project.
func newProject(name string, cfg *config.Node, path string) *Project {
	return &Project{
		Name:     name,
		Config:   cfg,
		Path:     path,
		Datasets: make(map[string]*dataset.Dataset),
		Sources:  make(map[string]DatasetSource),
	}
}

// IsSandbox reports whether this project's config enables ephemeral
// dataset uploads (spec §3 "is_sandbox() is derived from config").
func (p *Project) IsSandbox() bool {
	v, _ := p.Config.Bool("sandbox")
	return v
}

// Dataset returns the named dataset, if present.
func (p *Project) Dataset(name string) (*dataset.Dataset, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ds, ok := p.Datasets[name]
	return ds, ok
}

// DatasetNames returns every dataset name in this project.
func (p *Project) DatasetNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.Datasets))
	for name := range p.Datasets {
		names = append(names, name)
	}
	return names
}

// PutDataset registers (or replaces) ds under name, recording src so a
// later Reload knows how to re-fetch it.
func (p *Project) PutDataset(name string, ds *dataset.Dataset, src DatasetSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Datasets[name] = ds
	p.Sources[name] = src
}

// RemoveDataset drops name from the project, returning false if it was
// not present.
func (p *Project) RemoveDataset(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.Datasets[name]; !ok {
		return false
	}
	delete(p.Datasets, name)
	delete(p.Sources, name)
	return true
}

// evictExpiredSandboxDatasets drops every non-local-file dataset whose
// Loaded timestamp is older than `now - sandbox_expire`, per spec §4.4
// "Sandbox lifecycle". It is a no-op for non-sandbox projects or a
// project whose config doesn't set sandbox_expire. Returns the names of
// evicted datasets for logging.
func (p *Project) evictExpiredSandboxDatasets() []string {
	if !p.IsSandbox() {
		return nil
	}
	expireSeconds, ok := p.Config.Int("sandbox_expire")
	if !ok {
		return nil
	}
	ttl := time.Duration(expireSeconds) * time.Second

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	var evicted []string
	for name, ds := range p.Datasets {
		if ds.LocalFile {
			continue
		}
		ds.Mu.RLock()
		loaded := ds.Loaded
		ds.Mu.RUnlock()
		if now.After(loaded.Add(ttl)) {
			delete(p.Datasets, name)
			delete(p.Sources, name)
			evicted = append(evicted, name)
		}
	}
	return evicted
}

// checkSandboxSecret validates a re-upload's secret against the existing
// dataset's stored one, per spec §4.4: "subsequent overwrites must present
// the same secret or receive 401". A dataset with no stored secret accepts
// any (including empty) secret on first upload.
func checkSandboxSecret(existing *dataset.Dataset, suppliedSecret string) error {
	if existing == nil || existing.Secret == "" {
		return nil
	}
	if existing.Secret != suppliedSecret {
		return fmt.Errorf("secret mismatch for dataset %q", existing.Name)
	}
	return nil
}
