package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/awsgate/internal/clog"
	"github.com/xdg/awsgate/internal/pathutil"
)

// Load reads the configuration at path, or DefaultPath() when path is empty.
// A missing file yields DefaultConfig(). A file that exists but cannot be
// read, parsed or validated is an error. Values from the file are merged
// over the defaults and ~ is expanded in path fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	clog.Debug("config: loading %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			clog.Debug("config: file not found, using defaults")
			cfg := DefaultConfig()
			expandPaths(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	fileCfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg := Merge(DefaultConfig(), fileCfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	expandPaths(cfg)
	return cfg, nil
}

// expandPaths expands ~ to the home directory in all path fields.
func expandPaths(cfg *Config) {
	cfg.AWS.Binary = pathutil.ExpandHome(cfg.AWS.Binary)
	cfg.AWS.ConfigFile = pathutil.ExpandHome(cfg.AWS.ConfigFile)
	cfg.Catalogue.File = pathutil.ExpandHome(cfg.Catalogue.File)
	cfg.Audit.File = pathutil.ExpandHome(cfg.Audit.File)
	cfg.Audit.DB = pathutil.ExpandHome(cfg.Audit.DB)
	cfg.Log.File = pathutil.ExpandHome(cfg.Log.File)
}
