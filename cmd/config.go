package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or initialise the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (secrets redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		redact(cfg)
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with defaults to ~/.repocloner/config.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path = filepath.Join(home, config.DefaultConfigDir, config.DefaultConfigFile)
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		cfg, err := config.Load("")
		if err != nil {
			return fmt.Errorf("building defaults: %w", err)
		}
		if err := config.Save(cfg, path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Println("Wrote", path)
		fmt.Println("Fill in provider client ids/secrets and an AI api key, then run: repocloner serve")
		return nil
	},
}

// redact blanks every secret before printing.
func redact(cfg *config.Config) {
	if cfg.AI.APIKey != "" {
		cfg.AI.APIKey = "********"
	}
	if cfg.Server.AdminToken != "" {
		cfg.Server.AdminToken = "********"
	}
	for name, pc := range cfg.Providers {
		if pc.ClientSecret != "" {
			pc.ClientSecret = "********"
		}
		if pc.Token != "" {
			pc.Token = "********"
		}
		cfg.Providers[name] = pc
	}
	if cfg.Notify.Webhook.Secret != "" {
		cfg.Notify.Webhook.Secret = "********"
	}
	if cfg.Notify.Telegram.BotToken != "" {
		cfg.Notify.Telegram.BotToken = "********"
	}
	if cfg.Notify.Email.Password != "" {
		cfg.Notify.Email.Password = "********"
	}
	if cfg.Notify.Slack.WebhookURL != "" {
		cfg.Notify.Slack.WebhookURL = "********"
	}
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
}
