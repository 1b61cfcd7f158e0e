// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heliograph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
serial:
  port: /dev/ttyUSB0
  baud: 19200
websocket:
  url: wss://bridge.local/ws
  username: victron
  no_ssl_verify: true
log:
  level: debug
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	require.Equal(t, 19200, cfg.Serial.Baud)
	require.Equal(t, "wss://bridge.local/ws", cfg.WebSocket.URL)
	require.Equal(t, "victron", cfg.WebSocket.Username)
	require.True(t, cfg.WebSocket.NoSSLVerify)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_PartialFile(t *testing.T) {
	path := writeConfigFile(t, "serial:\n  port: /dev/ttyAMA0\n")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyAMA0", cfg.Serial.Port)
	require.Zero(t, cfg.Serial.Baud)
	require.Empty(t, cfg.WebSocket.URL)
}

func TestLoadConfig_MissingExplicitPath(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "no-such-file.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoadConfig_MissingDefaultPath(t *testing.T) {
	// Point the home directory somewhere without a config file
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeConfigFile(t, "serial: [broken\n")

	_, err := loadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := writeConfigFile(t, "serial:\n  baud: -5\n")

	_, err := loadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid config")
	require.Contains(t, err.Error(), "serial.baud")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "empty config",
			cfg:     Config{},
			wantErr: "",
		},
		{
			name: "full valid config",
			cfg: Config{
				Serial:    SerialConfig{Port: "/dev/ttyUSB0", Baud: 19200},
				WebSocket: WebSocketConfig{URL: "ws://bridge.local/ws"},
				Log:       LogConfig{Level: "warn"},
			},
			wantErr: "",
		},
		{
			name:    "negative baud",
			cfg:     Config{Serial: SerialConfig{Baud: -1}},
			wantErr: "serial.baud must be positive",
		},
		{
			name:    "http scheme",
			cfg:     Config{WebSocket: WebSocketConfig{URL: "http://bridge.local/ws"}},
			wantErr: "unsupported scheme",
		},
		{
			name:    "bad log level",
			cfg:     Config{Log: LogConfig{Level: "loud"}},
			wantErr: "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestApplyConfig_FlagPrecedence(t *testing.T) {
	flags := rootCmd.PersistentFlags()
	portFlag := flags.Lookup("port")
	require.NotNil(t, portFlag)

	origPort, origBaud, origLevel := portName, baudRate, logLevel
	origChanged := portFlag.Changed
	t.Cleanup(func() {
		portName, baudRate, logLevel = origPort, origBaud, origLevel
		portFlag.Changed = origChanged
	})

	// Simulate --port given on the command line
	portName = "/dev/ttyCLI"
	portFlag.Changed = true

	applyConfig(&Config{
		Serial: SerialConfig{Port: "/dev/ttyCFG", Baud: 4800},
		Log:    LogConfig{Level: "debug"},
	})

	require.Equal(t, "/dev/ttyCLI", portName, "explicit flag must win over config file")
	require.Equal(t, 4800, baudRate, "config file must fill in unset flags")
	require.Equal(t, "debug", logLevel)
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	require.Equal(t, "/home/tester/.heliograph.yaml", defaultConfigPath())
}
