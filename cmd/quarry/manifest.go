package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const noQuarryTomlMessage = "no quarry.toml found\nplease run inside a project, or point at one explicitly, e.g.:\n  quarry index path/to/project"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Project projectSection  `toml:"project"`
	Modules []moduleSection `toml:"module"`
}

type projectSection struct {
	Name string `toml:"name"`
}

type moduleSection struct {
	Name        string   `toml:"name"`
	LoadAddress string   `toml:"load_address"`
	Units       []string `toml:"units"`
}

func findQuarryToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "quarry.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, error) {
	manifestPath, ok, err := findQuarryToml(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(noQuarryTomlMessage)
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("project") {
		return projectConfig{}, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [project].name", path)
	}
	if len(cfg.Modules) == 0 {
		return projectConfig{}, fmt.Errorf("%s: no [[module]] entries", path)
	}
	for i, m := range cfg.Modules {
		if strings.TrimSpace(m.Name) == "" {
			return projectConfig{}, fmt.Errorf("%s: [[module]] entry %d missing name", path, i+1)
		}
		if len(m.Units) == 0 {
			return projectConfig{}, fmt.Errorf("%s: module %q lists no unit files", path, m.Name)
		}
		if _, err := parseLoadAddress(m.LoadAddress); err != nil {
			return projectConfig{}, fmt.Errorf("%s: module %q: %w", path, m.Name, err)
		}
	}
	return cfg, nil
}

// parseLoadAddress accepts decimal or 0x-prefixed hex; empty means
// the module is loaded at its link-time base.
func parseLoadAddress(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid load_address %q: %w", s, err)
	}
	return v, nil
}

// unitPaths resolves a module's unit file paths against the project root.
func (m *projectManifest) unitPaths(mod moduleSection) []string {
	paths := make([]string, 0, len(mod.Units))
	for _, u := range mod.Units {
		if filepath.IsAbs(u) {
			paths = append(paths, u)
			continue
		}
		paths = append(paths, filepath.Join(m.Root, filepath.FromSlash(u)))
	}
	return paths
}
