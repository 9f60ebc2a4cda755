package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the client configuration
type Config struct {
	Backend BackendConfig
	Ingest  IngestConfig
	Scanner ScannerConfig
	Session SessionConfig
}

// BackendConfig holds the remote server configuration
type BackendConfig struct {
	Address string
	Timeout time.Duration
}

// IngestConfig holds the local scan-event intake server configuration
type IngestConfig struct {
	Port int
	Mode string // debug, release, test
}

// ScannerConfig holds the de-duplication policy
type ScannerConfig struct {
	DuplicateWindow time.Duration
}

// SessionConfig holds the persisted session location
type SessionConfig struct {
	File string
}

// InitConfig initializes the configuration using Viper
func InitConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/fieldops")
		viper.SetConfigName("config")
	}

	// FIELDOPS_BACKEND_ADDRESS overrides backend.address, and so on
	viper.SetEnvPrefix("FIELDOPS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file, defaults and environment variables apply
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("backend.timeout", "30s")

	viper.SetDefault("ingest.port", 8172)
	viper.SetDefault("ingest.mode", "release")

	viper.SetDefault("scanner.duplicate_window", "2s")

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	viper.SetDefault("session.file", filepath.Join(home, ".fieldops", "session.yaml"))
}

// Load loads the configuration
func Load() (*Config, error) {
	return &Config{
		Backend: BackendConfig{
			Address: viper.GetString("backend.address"),
			Timeout: viper.GetDuration("backend.timeout"),
		},
		Ingest: IngestConfig{
			Port: viper.GetInt("ingest.port"),
			Mode: viper.GetString("ingest.mode"),
		},
		Scanner: ScannerConfig{
			DuplicateWindow: viper.GetDuration("scanner.duplicate_window"),
		},
		Session: SessionConfig{
			File: viper.GetString("session.file"),
		},
	}, nil
}
