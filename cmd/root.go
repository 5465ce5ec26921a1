package cmd

import (
	"fmt"
	"os"

	"insightpro/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand returns the insightpro command with its subcommands attached.
func NewRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "insightpro",
		Short: "InsightPro - accounts and rated products with comments",
		Long: `InsightPro serves a small HTTP API: account registration and login with
JWT session tokens, and products with their average rating and comments.

Configuration is read from the environment (and a .env file when present),
optionally overlaid by a config file passed with --config.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (yaml, json, toml or env)")

	load := func() (*config.Config, error) {
		return loadConfig(configFile)
	}
	rootCmd.AddCommand(newServeCommand(load), newMigrateCommand(load))
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(configFile string) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return config.Load(v)
}
