package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/framereel/internal/store"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [composition]",
		Short: "List past render runs, newest first",
		Args:  usage(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			if opts.Config.Paths.History == "" {
				return f.Fail(ExitCommandError, ErrCodeHistory, "history is disabled (paths.history is empty)", nil)
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			s, err := store.Open(opts.Config.Paths.History)
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeHistory, err.Error(), nil)
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), name, limit)
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeHistory, err.Error(), nil)
			}
			if runs == nil {
				runs = []store.Run{}
			}
			return f.Success(runs, func(w io.Writer) {
				if len(runs) == 0 {
					fmt.Fprintln(w, "No runs recorded.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "STARTED\tCOMPOSITION\tRANGE\tFRAMES\tELAPSED\tSTATUS\tID")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%d-%d\t%d\t%s\t%s\t%s\n",
						r.StartedAt.Local().Format(time.DateTime), r.Composition, r.From, r.To,
						r.Frames, r.Elapsed.Round(time.Millisecond), r.Status, r.ID[:8])
				}
				tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")
	return cmd
}
