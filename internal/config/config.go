package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultConfigDir  = ".repocloner"
	DefaultConfigFile = "config.json"
	DefaultDBFile     = ".repocloner/repocloner.db"
	DefaultReposDir   = ".repocloner/repos"
)

// Load reads the config file (creating it with defaults if absent) and
// returns a populated Config. The configPath flag may override the default
// location; environment variables override file values
// (e.g. SERVER_PORT, AI_API_KEY, PROVIDERS_GITHUB_CLIENT_ID).
func Load(configPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
	}

	setDefaults(v, home)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !isNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
		// No config yet — defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	expandPaths(&cfg, home)
	return &cfg, nil
}

// Save writes the config to disk as JSON.
func Save(cfg *Config, configPath string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	if configPath == "" {
		configPath = filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("serialising config: %w", err)
	}

	return os.WriteFile(configPath, data, 0o600)
}

// setDefaults populates viper with sensible out-of-the-box values.
func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.session_ttl_hours", 24)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", filepath.Join(home, DefaultDBFile))
	v.SetDefault("database.dsn", "")

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "gpt-4o")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.api_version", "2024-02-15-preview")
	v.SetDefault("ai.ollama_url", "http://localhost:11434")
	v.SetDefault("ai.max_retries", 3)

	v.SetDefault("workspace.dir", filepath.Join(home, DefaultReposDir))
}

// expandPaths resolves ~ in configured paths.
func expandPaths(cfg *Config, home string) {
	cfg.Database.Path = expandHome(cfg.Database.Path, home)
	cfg.Workspace.Dir = expandHome(cfg.Workspace.Dir, home)
	cfg.Workspace.CatalogFile = expandHome(cfg.Workspace.CatalogFile, home)
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file")
}
