// Package registry implements the Project & Registry component (spec
// §4.4): a process-wide map from project name to Project, the master
// Configuration node, and the shared expr.EvalModel every project and
// dataset validates expressions against. It also drives the sandbox
// eviction cron and dataset discovery, mirroring the "resolve by name,
// lock at the collection level" idiom of the teacher's
// internal/core/cluster.go Cluster type.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/sapcc/go-bits/logg"

	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/expr"
)

// defaultCronPeriod matches the spec's 10-second sandbox-eviction cadence.
const defaultCronPeriod = 10 * time.Second

// Registry is the process-wide root: it owns the master config, the
// shared EvalModel, and every Project. Dataset never references Project
// or Registry directly (spec §9 design note) — callers thread the
// resolved EvalModel into Dataset.Search/Delete/Update/RunNamedSearch.
type Registry struct {
	mu sync.RWMutex

	Master *config.Node
	Model  expr.EvalModel
	Root   string // filesystem path scanned for project subdirectories

	Projects map[string]*Project

	StartTime time.Time
	Version   string

	cronPeriod time.Duration
	lastCron   time.Time
}

// New constructs a Registry rooted at master, with model derived from
// master's `model`/`nodes`/`attributes`/`functions` keys, ready to have
// projects added via Discover or CreateProject.
func New(master *config.Node, projectsRoot string, version string) *Registry {
	return &Registry{
		Master:     master,
		Model:      modelFromMaster(master),
		Root:       projectsRoot,
		Projects:   make(map[string]*Project),
		StartTime:  time.Now(),
		Version:    version,
		cronPeriod: defaultCronPeriod,
	}
}

// modelFromMaster resolves the master config's `model` preset plus any
// `nodes`/`attributes`/`functions` extension lists into a concrete
// expr.EvalModel (spec §4.1 model presets, §3 Configuration node table).
func modelFromMaster(master *config.Node) expr.EvalModel {
	preset, _ := master.String("model")

	var extraNodes []expr.NodeKind
	for _, n := range master.StringList("nodes") {
		extraNodes = append(extraNodes, expr.NodeKind(n))
	}
	extraAttrs := master.StringList("attributes")
	extraFuncs := master.StringList("functions")

	return expr.ModelFromPreset(preset, extraNodes, extraAttrs, extraFuncs)
}

// Project returns the named project, if any.
func (r *Registry) Project(name string) (*Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.Projects[name]
	return p, ok
}

// ProjectNames returns every registered project name.
func (r *Registry) ProjectNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.Projects))
	for name := range r.Projects {
		names = append(names, name)
	}
	return names
}

// addProject registers p under name, returning an error if the name is
// already taken (project names are unique within the registry, spec §3).
func (r *Registry) addProject(name string, p *Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.Projects[name]; exists {
		return fmt.Errorf("project %q already exists", name)
	}
	r.Projects[name] = p
	return nil
}

// removeProject drops name from the registry.
func (r *Registry) removeProject(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Projects, name)
}

// MaybeRunCron runs the coalesced sandbox-eviction sweep if more than
// cronPeriod has elapsed since the last run, else is a no-op. Safe to call
// on every inbound request, per spec §4.4/§9 "lazy coalesced tick".
func (r *Registry) MaybeRunCron() {
	r.mu.Lock()
	now := time.Now()
	if now.Sub(r.lastCron) < r.cronPeriod {
		r.mu.Unlock()
		return
	}
	r.lastCron = now
	projects := make([]*Project, 0, len(r.Projects))
	for _, p := range r.Projects {
		projects = append(projects, p)
	}
	r.mu.Unlock()

	for _, p := range projects {
		evicted := p.evictExpiredSandboxDatasets()
		for _, name := range evicted {
			logg.Info("sandbox eviction: dropped dataset %q from project %q", name, p.Name)
		}
	}
}
