// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted when the file leaves a value empty.
const (
	EnvInfluxURL    = "INFLUXDB_URL"
	EnvInfluxToken  = "INFLUXDB_TOKEN"
	EnvInfluxOrg    = "INFLUXDB_ORG"
	EnvInfluxBucket = "INFLUXDB_BUCKET"
)

// Load reads the configuration at path.
//
// Description:
//
//	An empty path yields Default(). Values missing from the file keep their
//	defaults. Influx settings left empty are taken from the INFLUXDB_*
//	environment variables, so the token need not be written to disk. A
//	leading ~ in path is expanded.
//
// Outputs:
//   - *File: Loaded but not validated.
//   - error: Non-nil if the file cannot be read or parsed.
func Load(path string) (*File, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(expandHome(path))
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	cfg.History.Path = expandHome(cfg.History.Path)
	cfg.Logging.Dir = expandHome(cfg.Logging.Dir)
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory.
func Save(path string, cfg *File) error {
	if cfg == nil {
		return errors.New("config must not be nil")
	}
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Marshal renders cfg as YAML. The Influx token is never written.
func Marshal(cfg *File) ([]byte, error) {
	out := *cfg
	out.Influx.Token = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

func applyEnv(cfg *File) {
	set := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	set(&cfg.Influx.URL, EnvInfluxURL)
	set(&cfg.Influx.Token, EnvInfluxToken)
	set(&cfg.Influx.Org, EnvInfluxOrg)
	set(&cfg.Influx.Bucket, EnvInfluxBucket)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
