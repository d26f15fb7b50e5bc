// Package project loads the ccdev.toml project descriptor. The descriptor
// names the Python distribution being built, its companion plugins, the
// environment directories, and the release settings. A missing descriptor
// falls back to built-in defaults; a malformed one is fatal.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DescriptorName is the file looked up at the project root.
const DescriptorName = "ccdev.toml"

// Package describes the distribution under development.
type Package struct {
	Name    string   `toml:"name"`
	Module  string   `toml:"module"`
	Object  string   `toml:"object"`
	Plugins []string `toml:"plugins"`
}

// Env names the environment and build-output directories, relative to the
// project root.
type Env struct {
	BuildDir string `toml:"build_dir"`
	TestDir  string `toml:"test_dir"`
	DistDir  string `toml:"dist_dir"`
}

// Release holds the settings for cutting a version tag.
type Release struct {
	Trunk  string `toml:"trunk"`
	Remote string `toml:"remote"`
}

// Service points at the runtime configuration file of the installed service.
type Service struct {
	ConfigFile string `toml:"config_file"`
}

// Gate holds extra user-declared diagnostic checks, one shell-quoted command
// line each.
type Gate struct {
	ExtraChecks []string `toml:"extra_checks"`
}

// Config is the full project descriptor.
type Config struct {
	Package Package `toml:"package"`
	Env     Env     `toml:"env"`
	Release Release `toml:"release"`
	Service Service `toml:"service"`
	Gate    Gate    `toml:"gate"`
}

// Default returns the built-in descriptor used when no ccdev.toml exists.
func Default() Config {
	return Config{
		Package: Package{
			Name:   "carconnectivity-connector-audi",
			Module: "carconnectivity_connectors.audi",
			Object: "carconnectivity.carconnectivity.CarConnectivity",
			Plugins: []string{
				"carconnectivity-plugin-webui",
				"carconnectivity-plugin-mqtt",
			},
		},
		Env: Env{
			BuildDir: ".venv",
			TestDir:  ".venv-test",
			DistDir:  "dist",
		},
		Release: Release{
			Trunk:  "main",
			Remote: "origin",
		},
		Service: Service{
			ConfigFile: "carconnectivity.json",
		},
	}
}

// Load reads the descriptor at root. A missing file yields Default();
// malformed TOML or invalid values are errors.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, DescriptorName)

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load %s: %w", DescriptorName, err)
	}

	if meta.IsDefined("package", "name") {
		cfg.Package.Name = strings.TrimSpace(raw.Package.Name)
	}
	if meta.IsDefined("package", "module") {
		cfg.Package.Module = strings.TrimSpace(raw.Package.Module)
	}
	if meta.IsDefined("package", "object") {
		cfg.Package.Object = strings.TrimSpace(raw.Package.Object)
	}
	if meta.IsDefined("package", "plugins") {
		cfg.Package.Plugins = normalizeList(raw.Package.Plugins)
	}
	if meta.IsDefined("env", "build_dir") {
		cfg.Env.BuildDir = strings.TrimSpace(raw.Env.BuildDir)
	}
	if meta.IsDefined("env", "test_dir") {
		cfg.Env.TestDir = strings.TrimSpace(raw.Env.TestDir)
	}
	if meta.IsDefined("env", "dist_dir") {
		cfg.Env.DistDir = strings.TrimSpace(raw.Env.DistDir)
	}
	if meta.IsDefined("release", "trunk") {
		cfg.Release.Trunk = strings.TrimSpace(raw.Release.Trunk)
	}
	if meta.IsDefined("release", "remote") {
		cfg.Release.Remote = strings.TrimSpace(raw.Release.Remote)
	}
	if meta.IsDefined("service", "config_file") {
		cfg.Service.ConfigFile = strings.TrimSpace(raw.Service.ConfigFile)
	}
	if meta.IsDefined("gate", "extra_checks") {
		cfg.Gate.ExtraChecks = normalizeList(raw.Gate.ExtraChecks)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects descriptors that cannot drive the procedures: empty
// package identity, empty or root-escaping environment directories.
func (c Config) Validate() error {
	if c.Package.Name == "" {
		return fmt.Errorf("package.name must not be empty")
	}
	if c.Package.Module == "" {
		return fmt.Errorf("package.module must not be empty")
	}
	for _, d := range []struct {
		key, val string
	}{
		{"env.build_dir", c.Env.BuildDir},
		{"env.test_dir", c.Env.TestDir},
		{"env.dist_dir", c.Env.DistDir},
	} {
		if d.val == "" {
			return fmt.Errorf("%s must not be empty", d.key)
		}
		if filepath.IsAbs(d.val) || strings.HasPrefix(filepath.ToSlash(filepath.Clean(d.val)), "..") {
			return fmt.Errorf("%s must stay inside the project root: %q", d.key, d.val)
		}
	}
	if c.Env.BuildDir == c.Env.TestDir {
		return fmt.Errorf("env.build_dir and env.test_dir must differ")
	}
	if c.Release.Trunk == "" {
		return fmt.Errorf("release.trunk must not be empty")
	}
	if c.Release.Remote == "" {
		return fmt.Errorf("release.remote must not be empty")
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
