// Package configutil reads json5 configuration files with optional
// machine-local overrides. A config named "fxhistory.json5" may be
// accompanied by "fxhistory.local.json5" whose values take priority.
package configutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExtension(name string) (string, string) {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}

// decodeFile unmarshals a json5 file into dest. Missing files are reported
// via the (found=false, err=nil) pair so callers can fall through.
func decodeFile(path string, dest any) (bool, error) {
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
	if err := json5.Unmarshal(contents, dest); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadConfig reads the named config file and merges a sibling
// <name>.local.<ext> on top of it when one exists. It returns
// os.ErrNotExist when neither file is present.
func ReadConfig[T any](name string) (T, error) {
	var out T

	base, ext := splitExtension(filepath.Base(name))
	localPath := filepath.Join(
		filepath.Dir(name),
		fmt.Sprintf("%s.local.%s", base, ext),
	)

	foundDefault, err := decodeFile(name, &out)
	if err != nil {
		return out, err
	}

	var override T
	foundLocal, err := decodeFile(localPath, &override)
	if err != nil {
		return out, err
	}
	if foundLocal {
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	if !foundDefault && !foundLocal {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively walks up from the working directory towards the
// filesystem root looking for the named config file.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	current, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return zero, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return zero, os.ErrNotExist
		}
		current = parent
	}
}
