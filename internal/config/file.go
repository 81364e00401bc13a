package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Keys lists the settable config keys with a short description.
var Keys = map[string]string{
	"base_url":        "API root, e.g. https://api.mzansiplates.co.za",
	"timeout":         "per-request timeout, e.g. 20s",
	"connect_timeout": "TCP connect timeout, e.g. 15s",
	"retries":         "automatic retries for transient failures (0-5)",
	"rate_limit":      "max requests per second, 0 for unlimited",
	"data_dir":        "directory for settings, credentials and the shopping list",
	"format":          "default output format",
	"stats":           "print request stats after each command (true/false)",
	"verbose":         "default verbosity (0-2)",
}

// SortedKeys returns the keys of Keys in order.
func SortedKeys() []string {
	keys := make([]string, 0, len(Keys))
	for k := range Keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetValue writes key=value into the JSON config file at path, creating it
// if needed. The value is parsed to the key's type first.
func SetValue(path, key, raw string) error {
	if _, ok := Keys[key]; !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	value, err := parseValue(key, raw)
	if err != nil {
		return err
	}

	fileCfg := map[string]any{}
	if data, err := os.ReadFile(path); err == nil { //nolint:gosec // G304: config path
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return fmt.Errorf("existing config at %s is malformed: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	fileCfg[key] = value
	return writeJSON(path, fileCfg)
}

// UnsetValue removes key from the JSON config file at path.
func UnsetValue(path, key string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: config path
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	fileCfg := map[string]any{}
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("existing config at %s is malformed: %w", path, err)
	}
	delete(fileCfg, key)
	return writeJSON(path, fileCfg)
}

func parseValue(key, raw string) (any, error) {
	switch key {
	case "timeout", "connect_timeout":
		if _, err := time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return raw, nil
	case "retries", "verbose":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer", key)
		}
		return n, nil
	case "rate_limit":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", key)
		}
		return f, nil
	case "stats":
		b, ok := parseEnvBool(raw)
		if !ok {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return b, nil
	case "base_url":
		return NormalizeBaseURL(raw), nil
	}
	return raw, nil
}

// writeJSON writes v to path atomically with 0600 permissions.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
