package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/redditpersona/internal/app"
	"github.com/ibeckermayer/redditpersona/internal/fetcher"
)

const urlPrompt = "🔗 Enter a Reddit profile URL (e.g. https://www.reddit.com/user/someuser/): "

func newRunCmd(opts *rootOptions) *cobra.Command {
	var open, pdf, offline bool

	cmd := &cobra.Command{
		Use:   "run [profile-url]",
		Short: "Build a persona report for one Reddit user",
		Long: `Build output/persona_<username>.html for the user behind a profile URL
such as https://www.reddit.com/user/someuser/. The URL is read from stdin
when it is not given as an argument.

With --offline the report is rebuilt from the last saved fetch for that
user without touching the network.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("open") {
				cfg.Output.Open = open
			}
			if cmd.Flags().Changed("pdf") {
				cfg.Output.PDF = pdf
			}

			p := newPrinter(cmd.OutOrStdout())

			runner, closer, err := app.NewFromConfig(cmd.Context(), cfg, app.WithObserver(p.Event))
			if err != nil {
				return err
			}
			defer closer()

			var input string
			if len(args) == 1 {
				input = args[0]
			} else {
				input = promptURL(cmd.InOrStdin(), cmd.OutOrStdout())
			}

			res := runOnce(cmd.Context(), runner, input, offline, p)
			return exitError(res)
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "open the report in the default browser")
	cmd.Flags().BoolVar(&pdf, "pdf", false, "also print the report to PDF with headless Chrome")
	cmd.Flags().BoolVar(&offline, "offline", false, "rebuild from the last saved fetch instead of the network")
	return cmd
}

// promptURL asks for a profile URL and returns the first line of in.
func promptURL(in io.Reader, out io.Writer) string {
	fmt.Fprint(out, urlPrompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}

// runOnce executes a single run. Progress lines come from the runner's
// observer, so only offline parse failures are printed here.
func runOnce(ctx context.Context, runner *app.Runner, input string, offline bool, p *printer) *app.Result {
	if !offline {
		res, _ := runner.Run(ctx, input)
		p.finished(res)
		return res
	}

	username, err := app.ParseProfileURL(input)
	if err != nil {
		p.Event(app.Event{State: app.StateFailed, Err: err})
		return &app.Result{State: app.StateFailed, Err: err}
	}
	res, _ := runner.RenderFromSnapshot(ctx, username)
	p.finished(res)
	return res
}

func (p *printer) finished(res *app.Result) {
	if res.PDFPath != "" {
		p.line(p.success, "📄 PDF saved → %s", res.PDFPath)
	}
}

// exitError maps a result to the command's error. Invalid input, fetch
// failures and empty profiles are expected outcomes and exit cleanly.
func exitError(res *app.Result) error {
	if res.State != app.StateFailed {
		return nil
	}

	var (
		ie *app.InvalidInputError
		fe *fetcher.FetchError
	)
	if errors.As(res.Err, &ie) || errors.As(res.Err, &fe) {
		return nil
	}
	return fmt.Errorf("%w: %v", errReported, res.Err)
}
