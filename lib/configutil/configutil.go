package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// LocalPath returns the path of the override file that accompanies `name`,
// e.g. "scraper.json5" -> "scraper.local.json5".
func LocalPath(name string) string {
	prefix, ext := splitExt(filepath.Base(name))
	if ext == "" {
		return filepath.Join(filepath.Dir(name), prefix+".local")
	}
	return filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.local.%s", prefix, ext))
}

// decodeOnto decodes the file at path on top of out. Keys absent from the
// file leave the corresponding fields of out untouched, so explicit zero
// values in the file still take effect.
func decodeOnto[T any](path string, out *T) (bool, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}
	err = json5.Unmarshal(contents, out)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func layer[T any](name string, out *T) error {
	found, err := decodeOnto(name, out)
	if err != nil {
		return err
	}

	localPath := LocalPath(name)
	foundLocal, err := decodeOnto(localPath, out)
	if err != nil {
		return err
	}
	if foundLocal {
		slog.Info("merging config with local overrides", "local", localPath)
	}

	if !found && !foundLocal {
		return os.ErrNotExist
	}
	return nil
}

// reads a configuration file, `name` should come with a file extension,
// it will automatically be lopped off to produce the other extensions.
// this function will merge the following files, where higher number is more prioritized.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
func ReadConfig[T any](name string) (T, error) {
	var out T
	err := layer(name, &out)
	return out, err
}

// ReadConfigWithDefaults reads `name` like ReadConfig on top of `defaults`.
// Maps are merged per key and may be shared with `defaults`, so pass a
// freshly built value. A missing file is not an error, the defaults are
// returned as-is.
func ReadConfigWithDefaults[T any](name string, defaults T) (T, error) {
	out := defaults
	err := layer(name, &out)
	if os.IsNotExist(err) {
		slog.Debug("config file not found, using defaults", "name", name)
		return out, nil
	}
	if err != nil {
		return defaults, err
	}
	return out, nil
}

// ReadConfig but it recursively goes up the filesystem until the root
// to find a configuration file matching the name.
func ReadRecursively[T any](name string) (T, error) {
	var defaultOut T

	current, err := os.Getwd()
	if err != nil {
		return defaultOut, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return defaultOut, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return defaultOut, os.ErrNotExist
		}
		current = parent
	}
}
