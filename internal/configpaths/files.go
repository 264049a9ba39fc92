// Package configpaths resolves where keyrxd looks for its configuration
// files and compiled profiles.
package configpaths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigDir returns the platform-specific configuration directory
// for keyrx.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("AppData"); appdata != "" {
			return filepath.Join(appdata, "keyrx"), nil
		}
		return "", errors.New("AppData not set")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "keyrx"), nil
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", "keyrx"), nil
		}
		return "", errors.New("HOME not set")
	}
}

// DefaultProfilePath returns the compiled profile blob keyrxd loads when
// --profile is not given.
func DefaultProfilePath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "active.krx"), nil
}

// EnsureDir ensures the directory for a given file path exists.
func EnsureDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0o755)
}

// ConfigCandidatePaths builds candidate paths for config files per format.
// If userPath is provided, it is prioritized and routed to the matching
// loader by extension.
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(slice *[]string, p string) { *slice = append(*slice, p) }

	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".yaml", ".yml":
			add(&yamlPaths, userPath)
		case ".toml":
			add(&tomlPaths, userPath)
		default:
			add(&jsonPaths, userPath)
		}
	}

	// Working directory candidates
	wd, _ := os.Getwd()
	add(&jsonPaths, filepath.Join(wd, "keyrxd.json"))
	add(&yamlPaths, filepath.Join(wd, "keyrxd.yaml"))
	add(&yamlPaths, filepath.Join(wd, "keyrxd.yml"))
	add(&tomlPaths, filepath.Join(wd, "keyrxd.toml"))

	// Config home
	if dir, err := DefaultConfigDir(); err == nil {
		add(&jsonPaths, filepath.Join(dir, "keyrxd.json"))
		add(&yamlPaths, filepath.Join(dir, "keyrxd.yaml"))
		add(&yamlPaths, filepath.Join(dir, "keyrxd.yml"))
		add(&tomlPaths, filepath.Join(dir, "keyrxd.toml"))
	}

	// System-wide (unix)
	if runtime.GOOS != "windows" {
		add(&jsonPaths, "/etc/keyrx/keyrxd.json")
		add(&yamlPaths, "/etc/keyrx/keyrxd.yaml")
		add(&yamlPaths, "/etc/keyrx/keyrxd.yml")
		add(&tomlPaths, "/etc/keyrx/keyrxd.toml")
	}

	return
}
