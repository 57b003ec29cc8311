// Package config loads core.conf and per-plugin plugin_<name>.conf TOML
// files from the XDG config directory, mirroring the discovery and
// decode idioms the rest of this codebase uses elsewhere for its own
// settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Core holds the top-level core.conf settings. PluginsDir and Plugins
// are decoded from the file but engine.New does not read them: the
// plugin list is engine.Options.Plugins plus the built-in opacity
// plugin.
type Core struct {
	PluginsDir string
	Plugins    []string

	// DbusService overrides the default "org.minidweeb.unagi" bus name,
	// mainly useful for running more than one instance side by side in
	// development.
	DbusService string

	// VsyncDrm enables DRM vblank pacing; ANDed with the CLI's vsync
	// setting (turned off by -no-vsync), so either can disable it.
	VsyncDrm bool `toml:"vsync-drm"`
	// Rendering selects the rendering backend by name. "reference" (the
	// XRender-based backend) is the only one currently implemented; an
	// unrecognised value falls back to it with a logged warning.
	Rendering string
}

const (
	coreConfigFile = "core.conf"
	appName        = "unagi"
)

// Dir returns the XDG config directory for this application, creating
// it if absent.
func Dir() (string, error) {
	dir := filepath.Join(xdgOrFallback("XDG_CONFIG_HOME", filepath.Join(os.Getenv("HOME"), ".config")), appName)
	if ok, err := exists(dir); err != nil {
		return "", fmt.Errorf("config: checking %s: %w", dir, err)
	} else if !ok {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", fmt.Errorf("config: creating %s: %w", dir, err)
		}
	}
	return dir, nil
}

// LoadCore decodes core.conf from the config directory. A missing file
// is not an error: it yields a Core with no plugins configured.
func LoadCore() (*Core, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, coreConfigFile)

	core := &Core{DbusService: "org.minidweeb.unagi", VsyncDrm: true, Rendering: "reference"}
	ok, err := exists(path)
	if err != nil {
		return nil, fmt.Errorf("config: checking %s: %w", path, err)
	}
	if !ok {
		return core, nil
	}

	if _, err := toml.DecodeFile(path, core); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return core, nil
}

// PluginSection loads the Settings table of plugin_<name>.conf as a
// toml.Primitive (nil when the file is absent), letting
// each plugin decode its own schema via toml.PrimitiveDecode without
// this package needing to know it.
func PluginSection(name string) (*toml.Primitive, toml.MetaData, error) {
	dir, err := Dir()
	if err != nil {
		return nil, toml.MetaData{}, err
	}
	path := filepath.Join(dir, fmt.Sprintf("plugin_%s.conf", name))

	ok, err := exists(path)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("config: checking %s: %w", path, err)
	}
	if !ok {
		return nil, toml.MetaData{}, nil
	}

	var holder struct {
		Settings toml.Primitive
	}
	meta, err := toml.DecodeFile(path, &holder)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return &holder.Settings, meta, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func xdgOrFallback(xdg string, fallback string) string {
	dir := os.Getenv(xdg)
	if dir != "" {
		if ok, err := exists(dir); ok && err == nil {
			return dir
		}
	}
	return fallback
}
