package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/redditpersona/internal/store"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [username]",
		Short: "List recorded runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}

			path, err := cfg.StorePath()
			if err != nil {
				return err
			}
			st, err := store.New(path)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer st.Close()

			var username string
			if len(args) == 1 {
				username = args[0]
			}

			return showHistory(cmd.OutOrStdout(), st, username, limit, time.Now())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to show")
	return cmd
}

// showHistory prints the recorded runs, for one user when username is set.
func showHistory(out io.Writer, st *store.Store, username string, limit int, now time.Time) error {
	if username != "" {
		if _, err := st.LatestRun(username); errors.Is(err, store.ErrNoRuns) {
			p := newPrinter(out)
			p.line(p.faint, "No runs recorded for u/%s.", username)
			return nil
		} else if err != nil {
			return fmt.Errorf("latest run: %w", err)
		}
	}

	runs, err := st.ListRuns(username, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	printHistory(out, runs, now)
	return nil
}

// printHistory writes runs as an aligned table with times relative to now.
func printHistory(out io.Writer, runs []store.Run, now time.Time) {
	p := newPrinter(out)
	if len(runs) == 0 {
		p.line(p.faint, "No runs recorded yet.")
		return
	}

	rows := [][]string{{"WHEN", "USER", "STATE", "TONE", "COMMENTS", "OUTPUT"}}
	for _, r := range runs {
		output := r.OutputPath
		if r.Error != "" {
			output = r.Error
		}
		tone := r.Tone
		if tone == "" {
			tone = "-"
		}
		rows = append(rows, []string{
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			"u/" + r.Username,
			r.State,
			tone,
			strconv.Itoa(r.Comments),
			output,
		})
	}

	for i, line := range formatTable(rows) {
		if i == 0 {
			p.line(p.faint, "%s", line)
			continue
		}
		fmt.Fprintln(out, line)
	}
}
