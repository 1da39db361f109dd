package dataset

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/expr"
	"github.com/yaroslaff/sashimidb/internal/util"
)

// Operation names gating `allowed_operations`.
const (
	OpUpdate = "update"
	OpDelete = "delete"
	OpReload = "reload"
)

var defaultAllowedOperations = []string{OpUpdate, OpDelete, OpReload}

// NamedSearchEntry is one entry of a dataset's `search` config: a stored
// SearchQuery. Its memoized Response lives in the Dataset's cache, keyed
// by the entry's name, and is invalidated on any mutation.
type NamedSearchEntry struct {
	Query SearchQuery
}

// Dataset holds one project's named collection of records, its
// configuration, load metadata, named-search cache and sandbox secret. All
// reads and writes to a single Dataset are serialized by Mu: readers take
// the shared lock, delete/update/insert/replace take the exclusive lock,
// as required by the spec's concurrency model (§5).
type Dataset struct {
	Mu sync.RWMutex

	Name   string
	Config *config.Node

	Loaded   time.Time
	UpdateIP string
	Size     int

	AllowedOperations map[string]bool
	Secret            string // sandbox only: required to overwrite via re-upload
	LocalFile         bool   // backed by a file on disk; exempt from sandbox eviction

	NamedSearch map[string]*NamedSearchEntry
	cache       *lru.Cache[string, *Response]

	records []*Record
}

// New constructs an empty Dataset named name, owned by cfg, with the
// default allowed operations (update, delete, reload).
func New(name string, cfg *config.Node) *Dataset {
	cache, _ := lru.New[string, *Response](64)
	ds := &Dataset{
		Name:              name,
		Config:            cfg,
		AllowedOperations: allowedOpsFromConfig(cfg),
		NamedSearch:       make(map[string]*NamedSearchEntry),
		cache:             cache,
	}
	ds.loadNamedSearches()
	return ds
}

func allowedOpsFromConfig(cfg *config.Node) map[string]bool {
	ops := cfg.StringList("allowed_operations")
	if len(ops) == 0 {
		ops = defaultAllowedOperations
	}
	out := make(map[string]bool, len(ops))
	for _, op := range ops {
		out[op] = true
	}
	return out
}

func (ds *Dataset) loadNamedSearches() util.ErrorSet {
	var errs util.ErrorSet
	raw, ok := ds.Config.Get("search")
	if !ok {
		return errs
	}
	searches, ok := raw.(map[string]any)
	if !ok {
		errs.Addf("dataset %q: `search` config must be a mapping", ds.Name)
		return errs
	}
	for name, desc := range searches {
		sq, err := decodeSearchQuery(desc)
		if err != nil {
			errs.Addf("named search %q error: %w", name, err)
			continue
		}
		ds.NamedSearch[name] = &NamedSearchEntry{Query: sq}
	}
	return errs
}

// Len returns the current record count.
func (ds *Dataset) Len() int { return len(ds.records) }

// CheckAllowedOperation returns an error if opname is not in the
// dataset's allowed_operations.
func (ds *Dataset) CheckAllowedOperation(opname string) error {
	if ds.AllowedOperations[opname] {
		return nil
	}
	return fmt.Errorf("operation %q not allowed for dataset %q", opname, ds.Name)
}

// SetRecords replaces the dataset's contents wholesale (full replacement /
// reload), refreshing Loaded, Size and UpdateIP, and dropping all
// named-search caches. Callers must hold Mu for writing.
func (ds *Dataset) SetRecords(records []*Record, updateIP string) {
	ds.records = records
	ds.Loaded = time.Now()
	ds.UpdateIP = updateIP
	ds.updateSize()
	ds.DropCache()
}

func (ds *Dataset) updateSize() {
	total := 0
	for _, r := range ds.records {
		total += util.DeepSize(r.ToMap())
	}
	ds.Size = total
}

// DropCache invalidates every named-search cache entry. Called after any
// mutating operation (insert, update, delete, reload).
func (ds *Dataset) DropCache() {
	ds.cache.Purge()
}

// EffectiveLimit resolves min_nonnull(dataset.config.limit, query.limit).
func (ds *Dataset) EffectiveLimit(queryLimit *int) *int {
	cfgLimit, ok := ds.Config.Int("limit")
	switch {
	case ok && queryLimit != nil:
		if cfgLimit < *queryLimit {
			return &cfgLimit
		}
		return queryLimit
	case ok:
		return &cfgLimit
	default:
		return queryLimit
	}
}

// Model resolves this dataset's active EvalModel by consulting its
// project/master config chain. It is computed by the caller (registry
// owns the model presets) and passed in to Search/Delete/Update, since a
// Dataset itself has no reference back to the Registry (the spec's §9
// design note: store a name, resolve via the Registry, never keep a
// back-pointer).
type ModelProvider interface {
	Model() expr.EvalModel
}
