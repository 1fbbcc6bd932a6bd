// Command personactl is a dev CLI for persona maintenance and debugging tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/redditpersona/internal/browser"
	"github.com/ibeckermayer/redditpersona/internal/config"
	"github.com/ibeckermayer/redditpersona/internal/lexicon"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "personactl",
		Short:        "Maintenance and debugging tasks for persona",
		SilenceUsage: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:       "open <config|cache|output>",
			Short:     "Open the config file, cache directory or output directory",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"config", "cache", "output"},
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := targetPath(args[0])
				if err != nil {
					return err
				}
				return browser.OpenFile(path)
			},
		},
		&cobra.Command{
			Use:   "lexicon [file]",
			Short: "Print the sentiment and complaint lexicon as YAML",
			Long: `Print the lexicon the pipeline would use. With a file argument the file is
parsed first, so missing lists show the built-in defaults they fall back to.`,
			Args: cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				lex := lexicon.Default()
				if len(args) == 1 {
					l, err := lexicon.Load(args[0])
					if err != nil {
						return err
					}
					lex = l
				}
				data, err := lex.Marshal()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			},
		},
		newPDFCmd(),
	)
	return root
}

func newPDFCmd() *cobra.Command {
	var visible bool

	cmd := &cobra.Command{
		Use:   "pdf <report.html>",
		Short: "Print an existing HTML report to PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			htmlPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			pdfPath := browser.PDFPath(htmlPath)
			if err := browser.NewPDFExporter(!visible).Export(context.Background(), htmlPath, pdfPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pdfPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&visible, "visible", false, "show the browser window while printing")
	return cmd
}

// targetPath resolves a named location, creating directories that do not exist yet.
func targetPath(target string) (string, error) {
	switch target {
	case "config":
		return config.ConfigPath()
	case "cache":
		dir, err := config.CacheDir()
		if err != nil {
			return "", err
		}
		return dir, os.MkdirAll(dir, 0755)
	case "output":
		cfg, err := config.Load()
		if err != nil {
			cfg = config.Default()
		}
		cfg.ApplyEnv()
		dir, err := filepath.Abs(cfg.Output.Dir)
		if err != nil {
			return "", err
		}
		return dir, os.MkdirAll(dir, 0755)
	default:
		return "", fmt.Errorf("unknown target: %s", target)
	}
}
