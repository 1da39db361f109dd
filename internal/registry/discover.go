package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sapcc/go-bits/logg"

	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/dataset"
	"github.com/yaroslaff/sashimidb/internal/util"
)

const projectConfigFile = "__project.yml"

// Discover scans r.Root for project subdirectories and loads each one,
// per spec §4.4: "each subdirectory = one project; each *.json file
// inside = one dataset; files prefixed with _ are configs, not datasets."
// Errors loading one project are logged and skipped rather than aborting
// the whole scan, so one broken project directory doesn't take the
// service down at startup.
func (r *Registry) Discover() error {
	if r.Root == "" {
		return nil
	}
	entries, err := os.ReadDir(r.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot scan projects root %s: %w", r.Root, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !config.ValidProjectName(name) {
			continue
		}
		p, errs := r.loadProjectDir(name, filepath.Join(r.Root, name))
		if !errs.IsEmpty() {
			logg.Error("project %q: %s", name, errs.Join("; "))
		}
		if p == nil {
			continue
		}
		if err := r.addProject(name, p); err != nil {
			logg.Error("project %q: %s", name, err.Error())
		}
	}
	return nil
}

// loadProjectDir loads one project directory: its __project.yml config,
// then every *.json file as a dataset (paired with its _<name>.yaml
// config, if any). Per-dataset errors are accumulated, not fatal to the
// rest of the project.
func (r *Registry) loadProjectDir(name, dirPath string) (*Project, util.ErrorSet) {
	var errs util.ErrorSet

	projectCfg, err := config.Load(filepath.Join(dirPath, projectConfigFile), config.RoleProject, r.Master)
	if err != nil {
		errs.Add(err)
		return nil, errs
	}

	p := newProject(name, projectCfg, dirPath)

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		errs.Add(fmt.Errorf("cannot list %s: %w", dirPath, err))
		return p, errs
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := entry.Name()
		if strings.HasPrefix(fileName, "_") {
			continue // config file, not a dataset
		}
		if strings.ToLower(filepath.Ext(fileName)) != ".json" {
			continue
		}
		dsName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		if !config.ValidDatasetName(dsName) {
			errs.Addf("dataset file %q has an invalid dataset name", fileName)
			continue
		}

		if err := r.loadProjectDataset(p, dsName, filepath.Join(dirPath, fileName)); err != nil {
			errs.Add(fmt.Errorf("dataset %q: %w", dsName, err))
		}
	}

	return p, errs
}

func (r *Registry) loadProjectDataset(p *Project, dsName, filePath string) error {
	dsCfgPath := filepath.Join(p.Path, "_"+dsName+".yaml")
	dsCfg, err := config.Load(dsCfgPath, config.RoleDataset, p.Config)
	if err != nil {
		return err
	}

	format, _ := dsCfg.String("format")
	if format == "" {
		format = FormatFromExt(filePath)
	}

	records, err := loadFile(filePath, format)
	if err != nil {
		return err
	}

	ds := dataset.New(dsName, dsCfg)
	ds.SetRecords(records, "")
	ds.LocalFile = true

	p.PutDataset(dsName, ds, DatasetSource{Kind: SourceFile, Location: filePath, Format: format})
	return nil
}
