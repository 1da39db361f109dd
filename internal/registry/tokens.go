package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/util"
)

// tokenLength is the spec's "random 50-character alphanumeric token"
// (§4.4 "Project creation").
const tokenLength = 50

// CreateProject creates a fresh project directory under r.Root, writes an
// empty __project.yml seeded with one freshly generated token, and
// registers the project. The token is returned once — callers must relay
// it to the client immediately, since it is not retrievable afterwards
// except by rotating it (spec §4.4/§6 "Create project").
func (r *Registry) CreateProject(name string) (*Project, string, error) {
	if !config.ValidProjectName(name) {
		return nil, "", fmt.Errorf("invalid project name %q", name)
	}
	if _, exists := r.Project(name); exists {
		return nil, "", fmt.Errorf("project %q already exists", name)
	}

	dirPath := filepath.Join(r.Root, name)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return nil, "", fmt.Errorf("cannot create project directory: %w", err)
	}

	token, err := util.RandomToken(tokenLength)
	if err != nil {
		return nil, "", err
	}

	projectCfg := config.New(config.RoleProject, r.Master)
	projectCfg.Path = filepath.Join(dirPath, projectConfigFile)
	projectCfg.Set("tokens", []any{token})
	if err := projectCfg.Save(); err != nil {
		return nil, "", fmt.Errorf("cannot write project config: %w", err)
	}

	p := newProject(name, projectCfg, dirPath)
	if err := r.addProject(name, p); err != nil {
		return nil, "", err
	}
	return p, token, nil
}

// RotateToken replaces this project's own tokens (not any inherited from
// master) with a single freshly generated one, persists the config, and
// returns the new token. This is the `{"op":"new-key"}` endpoint (spec §6).
func (p *Project) RotateToken() (string, error) {
	token, err := util.RandomToken(tokenLength)
	if err != nil {
		return "", err
	}
	p.Config.Set("tokens", []any{token})
	if err := p.Config.Save(); err != nil {
		return "", fmt.Errorf("cannot persist rotated token: %w", err)
	}
	return token, nil
}
