package registry

import (
	"context"
	"strings"

	"github.com/sapcc/go-bits/logg"

	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/dataset"
)

// bootstrapProjectName is where datasets named by the master config's
// `datasets` key or the SASHIMI_DATASET environment variable land, since
// neither names a project explicitly (spec §4.3). These are unowned
// datasets, so they get one implicit, auto-created, non-sandbox project.
const bootstrapProjectName = "default"

// Bootstrap applies environment overrides to the master config and loads
// every bootstrap dataset definition — from the master config's
// `datasets` key and from SASHIMI_DATASET — into the implicit "default"
// project. A dataset that fails to load is logged and skipped; it does
// not abort process startup.
func (r *Registry) Bootstrap(ctx context.Context, env config.EnvOverrides) error {
	env.Apply(r.Master)

	defs := bootstrapDefsFromConfig(r.Master)
	defs = append(defs, env.Datasets...)
	if len(defs) == 0 {
		return nil
	}

	proj, err := r.ensureProject(bootstrapProjectName)
	if err != nil {
		return err
	}

	for _, def := range defs {
		format := FormatFromExt(def.Location)
		kind := SourceFile
		if def.IsURL {
			kind = SourceURL
		}
		src := DatasetSource{Kind: kind, Location: def.Location, Format: format}

		records, err := LoadSource(ctx, src)
		if err != nil {
			logg.Error("bootstrap dataset %q from %s: %s", def.Name, def.Location, err.Error())
			continue
		}

		dsCfg := config.New(config.RoleDataset, proj.Config)
		ds := dataset.New(def.Name, dsCfg)
		ds.SetRecords(records, "")
		ds.LocalFile = src.Kind == SourceFile
		proj.PutDataset(def.Name, ds, src)
		logg.Info("bootstrapped dataset %q (%d records) from %s", def.Name, ds.Len(), def.Location)
	}
	return nil
}

// ensureProject returns the named project, creating it (on disk, under
// r.Root, if set; purely in-memory otherwise) if it doesn't exist yet.
func (r *Registry) ensureProject(name string) (*Project, error) {
	if p, ok := r.Project(name); ok {
		return p, nil
	}
	if r.Root != "" {
		p, _, err := r.CreateProject(name)
		return p, err
	}
	p := newProject(name, config.New(config.RoleProject, r.Master), "")
	if err := r.addProject(name, p); err != nil {
		return nil, err
	}
	return p, nil
}

// bootstrapDefsFromConfig decodes the master config's `datasets` key,
// which accepts either `"name:location"` strings (mirroring
// SASHIMI_DATASET) or `{name, location}` mappings.
func bootstrapDefsFromConfig(master *config.Node) []config.DatasetBootstrap {
	raw, ok := master.Get("datasets")
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	var defs []config.DatasetBootstrap
	for _, item := range list {
		switch v := item.(type) {
		case string:
			name, loc, ok := strings.Cut(v, ":")
			if !ok {
				continue
			}
			defs = append(defs, config.DatasetBootstrap{
				Name:     name,
				Location: loc,
				IsURL:    strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://"),
			})
		case map[string]any:
			name, _ := v["name"].(string)
			loc, _ := v["location"].(string)
			if name == "" || loc == "" {
				continue
			}
			defs = append(defs, config.DatasetBootstrap{
				Name:     name,
				Location: loc,
				IsURL:    strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://"),
			})
		}
	}
	return defs
}
