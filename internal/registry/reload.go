package registry

import (
	"context"
	"fmt"
)

// ReloadDataset re-runs the named dataset's original loader (file, URL or
// SQL) and replaces its records wholesale, after checking
// allowed_operations and dropping the named-search cache via
// dataset.Dataset.Reload (spec §9 Open Question #3: `reload` is
// dispatched from PATCH). Datasets with no recorded source (e.g. a
// plain in-memory upload with nothing to re-fetch) simply drop their
// cache and report success, matching the original's reload() which has
// no effect beyond that for such datasets.
func (p *Project) ReloadDataset(ctx context.Context, name string) (string, error) {
	ds, ok := p.Dataset(name)
	if !ok {
		return "", fmt.Errorf("no such dataset %q", name)
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	msg, err := ds.Reload()
	if err != nil {
		return "", err
	}

	p.mu.RLock()
	src, hasSource := p.Sources[name]
	p.mu.RUnlock()
	if !hasSource || src.Location == "" {
		return msg, nil
	}

	records, err := LoadSource(ctx, src)
	if err != nil {
		return "", fmt.Errorf("reload of dataset %q failed: %w", name, err)
	}
	ds.SetRecords(records, ds.UpdateIP)
	return msg, nil
}
