package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/bazarr-bulk/bb/internal/bulk"
	"github.com/bazarr-bulk/bb/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "bb",
		Short:         "Performs bulk operations on subtitles of movies and tv shows",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Path to the configuration file (JSON, YAML or TOML)")
	flags.IntP("max-retries", "m", 3, "Number of times to retry a request on transient failures")
	flags.IntP("retry-interval", "r", 10, "Retry interval in seconds")
	flags.String("db", "", "Path to the processed-subtitle ledger")
	flags.String("store", "sqlite", "Ledger backend (sqlite or badger)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newMediaCommand(ctx, bulk.TargetMovies))
	rootCmd.AddCommand(newMediaCommand(ctx, bulk.TargetTVShows))
	rootCmd.AddCommand(newProcessedCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// commandContext loads the configuration once per process, with the flags of
// whichever command is running taking precedence.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path, cmd.Flags())
	})
	return c.config, c.configErr
}
