// Package config loads client configuration from the config file, an
// optional .env file, and environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the client needs to reach the Hub API.
type Config struct {
	BaseURL     string `yaml:"url"`
	Token       string `yaml:"token"`
	WorkspaceID string `yaml:"workspace"`
	UserID      string `yaml:"user"`
	LogLevel    string `yaml:"log_level"`
	DataDir     string `yaml:"data_dir"`
}

// Dir returns the client state directory (~/.hubchat), creating it if
// needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".hubchat")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Load reads config.yaml from the state directory, overlays a .env file
// from the working directory if present, then applies environment
// variables. Env always wins.
func Load() (Config, error) {
	var cfg Config

	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	cfg.DataDir = dir

	path := filepath.Join(dir, "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	// .env is optional; missing is not an error.
	_ = godotenv.Load()

	if v := os.Getenv("HUBCHAT_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("HUBCHAT_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("HUBCHAT_WORKSPACE"); v != "" {
		cfg.WorkspaceID = v
	}
	if v := os.Getenv("HUBCHAT_USER"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("HUBCHAT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// Validate checks the fields every command needs.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("hub url not configured (set HUBCHAT_URL or url in config.yaml)")
	}
	if c.WorkspaceID == "" {
		return fmt.Errorf("workspace not configured (set HUBCHAT_WORKSPACE or workspace in config.yaml)")
	}
	if c.UserID == "" {
		return fmt.Errorf("user not configured (set HUBCHAT_USER or user in config.yaml)")
	}
	return nil
}

// CachePath returns the sqlite cache path for a workspace.
func (c Config) CachePath() string {
	return filepath.Join(c.DataDir, c.WorkspaceID+".db")
}

// LogPath returns the debug log path.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "debug.log")
}
