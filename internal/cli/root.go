// Package cli implements the persona command line.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/redditpersona/internal/config"
	"github.com/ibeckermayer/redditpersona/internal/logging"
)

// errReported marks failures the command already printed to the user
var errReported = errors.New("failure already reported")

type rootOptions struct {
	configPath string
}

// NewRootCmd builds the persona command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "persona",
		Short: "Build a static HTML persona report for a Reddit user",
		Long: `persona fetches a Reddit user's recent public comments and submissions,
derives simple signals (named entities, sentiment, favourite communities,
complaints) and writes them to output/persona_<username>.html.

Available subcommands:
  run     - Build one report from a profile URL
  watch   - Rebuild reports for configured users on a schedule
  history - List recorded runs`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: user config dir)")

	root.AddCommand(
		newRunCmd(opts),
		newWatchCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// loadConfig reads the config file, writing the defaults on first run, then
// applies environment overrides and configures logging.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}

	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = config.Default()
		if err := saveDefault(cfg, path); err != nil {
			logrus.WithError(err).Warn("Could not save default config")
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logging.Setup(cfg.Logging)
	return cfg, nil
}

func saveDefault(cfg *config.Config, path string) error {
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	if err := cfg.SaveFile(path); err != nil {
		return err
	}
	logrus.WithField("path", path).Info("Created default config")
	return nil
}
