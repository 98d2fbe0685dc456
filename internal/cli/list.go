package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// CompositionSummary is one row of the list output.
type CompositionSummary struct {
	Name    string  `json:"name"`
	Frames  int     `json:"frames"`
	FPS     float64 `json:"fps"`
	Seconds float64 `json:"seconds"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Scenes  int     `json:"scenes"`
	Cues    int     `json:"cues"`
}

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in compositions",
		Args:  usage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			reg, err := loadRegistry(f)
			if err != nil {
				return err
			}
			rows := make([]CompositionSummary, 0, reg.Len())
			for _, name := range reg.Names() {
				c, _ := reg.Get(name)
				rows = append(rows, CompositionSummary{
					Name:    c.Name,
					Frames:  c.DurationInFrames,
					FPS:     c.FPS,
					Seconds: c.Seconds(),
					Width:   c.Width,
					Height:  c.Height,
					Scenes:  len(c.Timeline.Clips()),
					Cues:    len(c.Timeline.Cues()),
				})
			}
			return f.Success(rows, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tFRAMES\tFPS\tSECONDS\tSIZE\tSCENES\tCUES")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%d\t%g\t%.1f\t%dx%d\t%d\t%d\n",
						r.Name, r.Frames, r.FPS, r.Seconds, r.Width, r.Height, r.Scenes, r.Cues)
				}
				tw.Flush()
			})
		},
	}
}
