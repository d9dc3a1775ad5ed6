package bugsy

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamilpajak/bugsy/internal/prompt"
	"github.com/kamilpajak/bugsy/internal/stage"
)

func newPromptCmd(opts *options) *cobra.Command {
	var withSystem bool

	cmd := &cobra.Command{
		Use:   "prompt <stage> <query-id>",
		Short: "Print the prompt a stage would send, without calling the model",
		Long: `Render the prompt of a model-backed stage from the artifacts already on
disk and print it to stdout.

Stages: ` + stage.ContextBuilder + ", " + stage.AttributeGenerator + ", " + stage.ScenarioGenerator + `

Examples:
  bugsy prompt context-builder edit-event
  bugsy prompt scenario-generator edit-event --system`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			s, err := stage.New(args[0], a.deps(nil))
			if err != nil {
				return err
			}
			p, ok := s.(stage.Prompter)
			if !ok {
				return fmt.Errorf("stage %s does not call the model", args[0])
			}

			text, err := p.Render(args[1])
			if err != nil {
				return err
			}
			if withSystem {
				fmt.Fprintf(a.stdout, "%s\n\n", prompt.SystemPrompt())
			}
			fmt.Fprintln(a.stdout, text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withSystem, "system", false, "Also print the system instruction")
	return cmd
}
