package bugsy

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kamilpajak/bugsy/internal/store"
)

// queryEntry is one line of list-queries output.
type queryEntry struct {
	QueryID string `json:"query_id"`
	Text    string `json:"text"`
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list-queries",
		Short: "List query ids with a raw context",
		Long: `List every query id that has an input file under <data-dir>/contexts/,
with its display text from queries.json when present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer a.close()

			ids, err := a.store.List(store.KindRawContext)
			if err != nil {
				return fmt.Errorf("failed to list queries: %w", err)
			}

			entries := make([]queryEntry, 0, len(ids))
			for _, id := range ids {
				entries = append(entries, queryEntry{QueryID: id, Text: a.store.Resolve(id, "")})
			}

			if a.json {
				return writeJSON(a.stdout, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintf(a.stderr, "No queries found in %s\n", a.store.DataDir())
				return nil
			}
			bold := color.New(color.Bold)
			for _, e := range entries {
				_, _ = bold.Fprint(a.stdout, e.QueryID)
				if e.Text != e.QueryID {
					fmt.Fprintf(a.stdout, "  %s", e.Text)
				}
				fmt.Fprintln(a.stdout)
			}
			return nil
		},
	}
}
