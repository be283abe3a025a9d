package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"floorplan/internal/common/config"
	"floorplan/internal/floorplan/client"

	"github.com/gofiber/fiber/v3/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	apiURL     string
	orgID      string
	timeout    time.Duration
	verbose    bool

	cliCfg *CLIConfig
)

// rootCmd is the planctl entry point
var rootCmd = &cobra.Command{
	Use:   "planctl",
	Short: "Inspect and edit restaurant floor plans",
	Long: `planctl talks to the table-management API.

It lists tables, renders the floor plan to SVG, checks whether a set of
tables may be combined, and replays editor scripts against the API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.LevelDebug)
		} else {
			log.SetLevel(log.LevelWarn)
		}

		cfg, err := LoadCLIConfig(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("api") || cfg.APIURL == "" {
			cfg.APIURL = apiURL
		}
		if cmd.Flags().Changed("org") || cfg.Organization == "" {
			cfg.Organization = orgID
		}
		cliCfg = cfg
		return nil
	},
}

func init() {
	env := config.Load()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", env.TablesURL, "table-management API base URL")
	rootCmd.PersistentFlags().StringVar(&orgID, "org", "", "organization id (X-Organization-ID)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall command timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(listCmd, renderCmd, combineCheckCmd, replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func apiClient() *client.Client {
	return client.New(cliCfg.APIURL, cliCfg.Organization)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, timeout)
}
