package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "STAPI"
	ConfigName = "config"
)

// LoadConfig reads the config file (explicit path, or config.yaml in the working
// directory, $HOME/.stapi or /etc/stapi) and environment variables on top of the
// defaults.
func LoadConfig(cfgFile string) error {
	SetDefaultConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(ConfigName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if dir, err := Dir(); err == nil {
			viper.AddConfigPath(dir)
		}
		viper.AddConfigPath("/etc/stapi/")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Debug().Msg("Config file not found, using defaults")
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	log.Debug().Str("file", viper.ConfigFileUsed()).Msg("Using config file")
	return nil
}

// Dir is the per-user configuration directory, $HOME/.stapi.
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".stapi"), nil
}

func SetDefaultConfig() {
	// Backend
	viper.SetDefault("api.server", "http://localhost:8000")
	viper.SetDefault("api.prefix", "api")
	viper.SetDefault("api.timeout", 30*time.Second)
	viper.SetDefault("api.auth_scheme", "Token")
	viper.SetDefault("api.user_agent", "stapi/"+Version)
	viper.SetDefault("api.rate_limit.requests_per_second", 10.0)
	viper.SetDefault("api.rate_limit.burst", 5)

	// Session
	sessionPath := "session.yaml"
	if dir, err := Dir(); err == nil {
		sessionPath = filepath.Join(dir, "session.yaml")
	}
	viper.SetDefault("session.path", sessionPath)
	viper.SetDefault("session.token", "")

	// Output
	viper.SetDefault("output.format", "table")

	// Test runs
	viper.SetDefault("tests.concurrency", 4)
	viper.SetDefault("tests.strategy", "batch")

	// Logging
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.console.format", "pretty") // anything else outputs json
	viper.SetDefault("logging.file.enabled", false)
	viper.SetDefault("logging.file.path", "stapi.log")
}
