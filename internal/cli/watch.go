package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/redditpersona/internal/app"
	"github.com/ibeckermayer/redditpersona/internal/fetcher"
	"github.com/ibeckermayer/redditpersona/internal/scheduler"
)

var errNoWatchedUsers = errors.New("watch.users is empty")

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var now bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild reports for watch.users on watch.schedule",
		Long: `Schedule one job per username in watch.users using the cron expression
in watch.schedule (interpreted in watch.timezone). Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if len(cfg.Watch.Users) == 0 {
				return errNoWatchedUsers
			}

			p := newPrinter(cmd.OutOrStdout())
			runner, closer, err := app.NewFromConfig(cmd.Context(), cfg, app.WithObserver(p.Event))
			if err != nil {
				return err
			}
			defer closer()

			sched, err := scheduler.New(cfg.Watch.Timezone)
			if err != nil {
				return err
			}

			jobs, err := addWatchJobs(sched, runner, cfg.Watch.Users, cfg.Watch.Schedule)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if now {
				for name, job := range jobs {
					if err := sched.RunNow(name, job); err != nil {
						logrus.WithField("job", name).WithError(err).Warn("Initial run failed")
					}
				}
			}

			sched.Start()
			p.line(p.info, "👀 Watching %d users on %q. Press Ctrl+C to stop.", len(jobs), cfg.Watch.Schedule)

			<-ctx.Done()
			<-sched.Stop().Done()
			p.line(p.faint, "Stopped.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&now, "now", false, "run every job once before waiting for the schedule")
	return cmd
}

// addWatchJobs registers one job per username and returns them by job name.
func addWatchJobs(sched *scheduler.Scheduler, runner *app.Runner, users []string, schedule string) (map[string]scheduler.Job, error) {
	jobs := make(map[string]scheduler.Job, len(users))
	for _, username := range users {
		if err := fetcher.ValidateUsername(username); err != nil {
			return nil, fmt.Errorf("watch.users: %w", err)
		}

		job := func(ctx context.Context) error {
			res, err := runner.RunUser(ctx, username)
			if err != nil {
				return err
			}
			if res.State == app.StateNoData {
				logrus.WithField("user", username).Info("Nothing to render")
			}
			return nil
		}

		name := scheduler.WatchJobName(username)
		if err := sched.AddJob(name, schedule, job); err != nil {
			return nil, err
		}
		jobs[name] = job
	}
	return jobs, nil
}
