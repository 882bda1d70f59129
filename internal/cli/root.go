// Package cli implements the transeval command line: local evaluations,
// leaderboard queries and exercise catalogue management against the same
// database the server uses.
package cli

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/translation-arena/backend/internal/app"
	"github.com/translation-arena/backend/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
	Verbose    bool

	cfg *config.Config
}

var validFormats = []string{"text", "json"}

// open builds the application for one command run. Callers close it.
func (o *RootOptions) open() (*app.App, error) {
	if o.cfg == nil {
		cfg, err := config.Load(o.ConfigPath, config.WithoutAuth())
		if err != nil {
			return nil, err
		}
		o.cfg = cfg
	}
	return app.Open(o.cfg, nil)
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "transeval",
		Short: "Evaluate translations and manage the practice catalogue",
		Long: `transeval scores a candidate translation against its source and reference
with every configured scorer, awards points, and manages the exercise catalogue.

Configuration is read from --config, transeval.yaml in the working directory,
and TRANSEVAL_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			if !opts.Verbose {
				log.SetOutput(io.Discard)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (yaml or json)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "show component logs")

	cmd.AddCommand(NewEvaluateCommand(opts))
	cmd.AddCommand(NewLeaderboardCommand(opts))
	cmd.AddCommand(NewExercisesCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}
