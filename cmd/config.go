// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// SerialConfig holds serial connection settings
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// WebSocketConfig holds WebSocket connection settings
type WebSocketConfig struct {
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
}

// LogConfig holds diagnostic logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config mirrors the optional YAML config file. Zero values mean "not set";
// explicit command-line flags always win over file values.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Log       LogConfig       `yaml:"log"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".heliograph.yaml")
}

// loadConfig reads and validates the YAML config file. An explicitly given
// path must exist; a missing file at the default path is not an error.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return nil, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %v", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %v", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %v", path, err)
	}

	return &cfg, nil
}

// validate checks field values, naming the offending key
func (c *Config) validate() error {
	if c.Serial.Baud < 0 {
		return fmt.Errorf("serial.baud must be positive (got %d)", c.Serial.Baud)
	}

	if c.WebSocket.URL != "" {
		u, err := url.Parse(c.WebSocket.URL)
		if err != nil {
			return fmt.Errorf("websocket.url: %v", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("websocket.url: unsupported scheme %q (use ws:// or wss://)", u.Scheme)
		}
	}

	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %v", err)
		}
	}

	return nil
}

// applyConfig fills in settings the user did not set on the command line
func applyConfig(cfg *Config) {
	flags := rootCmd.PersistentFlags()

	if cfg.Serial.Port != "" && !flags.Changed("port") {
		portName = cfg.Serial.Port
	}
	if cfg.Serial.Baud != 0 && !flags.Changed("baud") {
		baudRate = cfg.Serial.Baud
	}
	if cfg.WebSocket.URL != "" && !flags.Changed("url") {
		wsURL = cfg.WebSocket.URL
	}
	if cfg.WebSocket.Username != "" && !flags.Changed("username") {
		wsUsername = cfg.WebSocket.Username
	}
	if cfg.WebSocket.NoSSLVerify && !flags.Changed("no-ssl-verify") {
		wsNoSSLVerify = true
	}
	if cfg.Log.Level != "" && !flags.Changed("log-level") {
		logLevel = cfg.Log.Level
	}
}
