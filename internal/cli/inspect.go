package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ivlev/framereel/internal/assets"
	"github.com/ivlev/framereel/internal/composition"
	"github.com/ivlev/framereel/internal/engine"
	"github.com/ivlev/framereel/internal/renderer"
)

// ClipInfo describes one timeline clip.
type ClipInfo struct {
	Scene    string   `json:"scene"`
	Start    int      `json:"start"`
	Duration int      `json:"duration"`
	Elements int      `json:"elements"`
	Props    []string `json:"props,omitempty"`
}

// CueInfo describes one audio cue.
type CueInfo struct {
	Source   string  `json:"source"`
	Start    int     `json:"start"`
	End      int     `json:"end,omitempty"`
	Offset   int     `json:"offset,omitempty"`
	Volume   float64 `json:"volume"`
	Envelope bool    `json:"envelope,omitempty"`
}

// CompositionDetail is the inspect output without --frame.
type CompositionDetail struct {
	CompositionSummary
	Clips []ClipInfo `json:"clips"`
	Audio []CueInfo  `json:"audio,omitempty"`
}

type inspectOptions struct {
	frame int
	time  float64
	png   string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(opts *RootOptions) *cobra.Command {
	in := &inspectOptions{frame: -1}
	cmd := &cobra.Command{
		Use:   "inspect <composition>",
		Short: "Show a composition's timeline or the state of one frame",
		Args:  usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			c, err := lookup(f, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("time") {
				if cmd.Flags().Changed("frame") {
					return f.Fail(ExitCommandError, ErrCodeBadArgument, "--frame and --time are exclusive", nil)
				}
				if in.time < 0 {
					return f.Fail(ExitCommandError, ErrCodeBadArgument,
						fmt.Sprintf("time %gs is negative", in.time), nil)
				}
				in.frame = c.FrameAt(in.time)
			}
			if in.frame < 0 {
				if in.png != "" {
					return f.Fail(ExitCommandError, ErrCodeBadArgument, "--png needs --frame or --time", nil)
				}
				return inspectComposition(f, c)
			}
			return inspectFrame(f, opts, c, in)
		},
	}
	cmd.Flags().IntVar(&in.frame, "frame", -1, "evaluate this frame")
	cmd.Flags().Float64Var(&in.time, "time", 0, "evaluate the frame shown at this many seconds")
	cmd.Flags().StringVar(&in.png, "png", "", "also rasterize the frame to this PNG file")
	return cmd
}

func detail(c *composition.Composition) CompositionDetail {
	clips := c.Timeline.Clips()
	cues := c.Timeline.Cues()
	d := CompositionDetail{
		CompositionSummary: CompositionSummary{
			Name: c.Name, Frames: c.DurationInFrames, FPS: c.FPS, Seconds: c.Seconds(),
			Width: c.Width, Height: c.Height, Scenes: len(clips), Cues: len(cues),
		},
		Clips: make([]ClipInfo, 0, len(clips)),
	}
	for _, cl := range clips {
		d.Clips = append(d.Clips, ClipInfo{
			Scene:    cl.Scene.ID(),
			Start:    cl.Start,
			Duration: cl.Duration,
			Elements: cl.Scene.ElementCount(),
			Props:    cl.Scene.PropertyNames(),
		})
	}
	for _, cue := range cues {
		d.Audio = append(d.Audio, CueInfo{
			Source:   cue.Source,
			Start:    cue.Start,
			End:      cue.End,
			Offset:   cue.SourceOffset,
			Volume:   cue.Volume,
			Envelope: cue.Envelope != nil,
		})
	}
	return d
}

func inspectComposition(f *OutputFormatter, c *composition.Composition) error {
	d := detail(c)
	return f.Success(d, func(w io.Writer) {
		fmt.Fprintf(w, "%s: %d frames at %g fps (%.2fs), %dx%d\n\n",
			d.Name, d.Frames, d.FPS, d.Seconds, d.Width, d.Height)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SCENE\tSTART\tEND\tELEMENTS\tPROPERTIES")
		for _, cl := range d.Clips {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n",
				cl.Scene, cl.Start, cl.Start+cl.Duration, cl.Elements, strings.Join(cl.Props, ","))
		}
		tw.Flush()
		if len(d.Audio) == 0 {
			return
		}
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "AUDIO\tSTART\tEND\tOFFSET\tVOLUME")
		for _, a := range d.Audio {
			end := "-"
			if a.End != 0 {
				end = fmt.Sprint(a.End)
			}
			vol := fmt.Sprintf("%g", a.Volume)
			if a.Envelope {
				vol = "envelope"
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", a.Source, a.Start, end, a.Offset, vol)
		}
		tw.Flush()
	})
}

func inspectFrame(f *OutputFormatter, opts *RootOptions, c *composition.Composition, in *inspectOptions) error {
	if in.frame >= c.DurationInFrames {
		return f.Fail(ExitCommandError, ErrCodeBadArgument,
			fmt.Sprintf("frame %d outside [0, %d)", in.frame, c.DurationInFrames), nil)
	}
	fs := engine.Evaluate(c, in.frame)

	if in.png != "" {
		r := renderer.New(c.Width, c.Height, assets.New(opts.Config.Paths.Assets))
		img, err := r.Rasterize(fs)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeRender, err.Error(), nil)
		}
		out, err := os.Create(in.png)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		err = renderer.WritePNG(out, img)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeRender, err.Error(), nil)
		}
		f.VerboseLog("wrote %s", in.png)
	}

	return f.Success(fs, func(w io.Writer) {
		fmt.Fprintf(w, "%s frame %d\n", c.Name, fs.Frame)
		for _, l := range fs.Layers {
			fmt.Fprintf(w, "  %s local=%d\n", l.SceneID, l.LocalFrame)
			for _, name := range l.Props.Names() {
				fmt.Fprintf(w, "    %s = %g\n", name, l.Props[name])
			}
			for _, sh := range l.Shapes {
				fmt.Fprintf(w, "    %s %v %v\n", sh.Kind, sh.Num, sh.Str)
			}
		}
		for _, a := range fs.Audio {
			fmt.Fprintf(w, "  audio %s at %d volume %.3f\n", a.Source, a.CueFrame, a.Volume)
		}
	})
}
