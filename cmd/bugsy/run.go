package bugsy

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kamilpajak/bugsy/internal/pipeline"
	"github.com/kamilpajak/bugsy/internal/stage"
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		stageName      string
		scenarioChecks bool
	)

	cmd := &cobra.Command{
		Use:   "run <query-id>",
		Short: "Run the pipeline or a single stage for a query",
		Long: `Run every pipeline step for a query id, or a single stage with --stage.

The input is read from <data-dir>/contexts/<query-id>.json and every stage
writes its artifact under <data-dir>/outputs/.

Stages: ` + strings.Join(stage.Names(), ", ") + `

Examples:
  bugsy run edit-event
  bugsy run edit-event --scenario-checks
  bugsy run edit-event --stage attribute-generator --provider openai
  bugsy run edit-event --offline --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// stdout carries the JSON document, so progress stays plain text on stderr.
			var em stage.Emitter = &stage.TextEmitter{W: a.stderr}
			if !a.json {
				ce := newConsoleEmitter(a.stderr)
				defer ce.Close()
				em = ce
			}

			var popts []pipeline.Option
			if scenarioChecks {
				popts = append(popts, pipeline.WithScenarioChecks())
			}
			p := pipeline.New(a.deps(em), popts...)

			queryID := args[0]
			if stageName != "" {
				outcome, err := p.Step(ctx, stageName, queryID)
				if err != nil {
					return err
				}
				if a.json {
					return writeJSON(a.stdout, outcome)
				}
				return nil
			}

			report, err := p.Run(ctx, queryID)
			if a.json {
				if jerr := writeJSON(a.stdout, report); jerr != nil {
					return jerr
				}
			} else {
				printReport(a.stderr, report)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&stageName, "stage", "s", "", "Run only this stage")
	cmd.Flags().BoolVar(&scenarioChecks, "scenario-checks", false, "Also validate scenarios and check their attribute coverage")
	return cmd
}

func printReport(w io.Writer, r *pipeline.Report) {
	fmt.Fprintln(w)
	if r.Completed {
		green := color.New(color.FgGreen, color.Bold)
		_, _ = green.Fprintf(w, "Pipeline completed: %d steps for %s\n", len(r.Steps), r.QueryID)
	} else {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(w, "Pipeline halted at %s after %d steps for %s\n", r.HaltedAt, len(r.Steps), r.QueryID)
	}
	for _, s := range r.Steps {
		fmt.Fprintf(w, "  %-26s %-8s %s\n", s.Step, s.Outcome.Source, s.Outcome.Summary)
	}
	dim := color.New(color.FgHiBlack)
	_, _ = dim.Fprintf(w, "  run %s\n", r.RunID)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
