package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/dataset"
)

// Upload creates or wholesale-replaces the named dataset with records,
// per spec §6 `PUT /{project}`. If a dataset of this name already exists
// with a stored secret, suppliedSecret must match (spec §4.4). If the
// project is not a sandbox, the dataset is additionally persisted to
// `<name>.json` next to its config (spec §4.4 EXPANSION).
func (p *Project) Upload(name string, records []*dataset.Record, suppliedSecret string) (*dataset.Dataset, error) {
	if !config.ValidDatasetName(name) {
		return nil, fmt.Errorf("invalid dataset name %q", name)
	}

	existing, _ := p.Dataset(name)
	if err := checkSandboxSecret(existing, suppliedSecret); err != nil {
		return nil, err
	}

	dsCfg := existingConfig(existing)
	if dsCfg == nil {
		var err error
		dsCfgPath := ""
		if p.Path != "" {
			dsCfgPath = filepath.Join(p.Path, "_"+name+".yaml")
		}
		dsCfg, err = config.Load(dsCfgPath, config.RoleDataset, p.Config)
		if err != nil {
			return nil, err
		}
	}

	ds := dataset.New(name, dsCfg)
	ds.SetRecords(records, "")
	ds.Secret = suppliedSecret

	local := !p.IsSandbox() && p.Path != ""
	ds.LocalFile = local

	src := DatasetSource{Kind: SourceFile, Format: "json"}
	if local {
		src.Location = filepath.Join(p.Path, name+".json")
		data, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("cannot encode dataset: %w", err)
		}
		if err := os.WriteFile(src.Location, data, 0o644); err != nil {
			return nil, fmt.Errorf("cannot persist dataset: %w", err)
		}
	}

	p.PutDataset(name, ds, src)
	return ds, nil
}

// existingConfig returns ds.Config, or nil if ds itself is nil — a small
// helper so Upload can ask "does a dataset config already exist for this
// name" without a repeated nil check at the call site.
func existingConfig(ds *dataset.Dataset) *config.Node {
	if ds == nil {
		return nil
	}
	return ds.Config
}

// DeleteDataset removes name from the project (spec §6 `DELETE
// /{project}`), best-effort removing its backing files too.
func (p *Project) DeleteDataset(name string) error {
	if !p.RemoveDataset(name) {
		return fmt.Errorf("no such dataset %q", name)
	}
	if p.Path != "" {
		_ = os.Remove(filepath.Join(p.Path, name+".json"))
		_ = os.Remove(filepath.Join(p.Path, "_"+name+".yaml"))
	}
	return nil
}
