package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ivlev/framereel/internal/assets"
	"github.com/ivlev/framereel/internal/composition"
	"github.com/ivlev/framereel/internal/config"
	"github.com/ivlev/framereel/internal/engine"
	"github.com/ivlev/framereel/internal/renderer"
	"github.com/ivlev/framereel/internal/store"
	"github.com/ivlev/framereel/internal/system"
	"github.com/ivlev/framereel/internal/video"
)

type renderOptions struct {
	from     int
	to       int
	out      string
	manifest string
	noVideo  bool
	workers  int
}

// RenderResult is the render output.
type RenderResult struct {
	RunID       string        `json:"runId,omitempty"`
	Composition string        `json:"composition"`
	From        int           `json:"from"`
	To          int           `json:"to"`
	Frames      int           `json:"frames"`
	Workers     int           `json:"workers"`
	Elapsed     time.Duration `json:"elapsed"`
	FPS         float64       `json:"fps"`
	Video       string        `json:"video,omitempty"`
	Manifest    string        `json:"manifest,omitempty"`
	Missing     []string      `json:"missing,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(opts *RootOptions) *cobra.Command {
	ro := &renderOptions{to: -1}
	cmd := &cobra.Command{
		Use:   "render <composition>",
		Short: "Render a composition to video and/or a frame manifest",
		Long: `Render evaluates every frame in [from, to) on a worker pool and delivers
the frames in order to ffmpeg and, with --manifest, to a JSON-lines file
holding each frame's evaluated state.`,
		Args: usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			c, err := lookup(f, args[0])
			if err != nil {
				return err
			}
			return runRender(cmd, f, opts.Config, c, ro)
		},
	}
	cmd.Flags().IntVar(&ro.from, "from", 0, "first frame")
	cmd.Flags().IntVar(&ro.to, "to", -1, "frame after the last one (default: end of composition)")
	cmd.Flags().StringVarP(&ro.out, "out", "o", "", "video file (default: <output dir>/<name>.mp4)")
	cmd.Flags().StringVar(&ro.manifest, "manifest", "", "write frame states as JSON lines to this file")
	cmd.Flags().BoolVar(&ro.noVideo, "no-video", false, "skip rasterizing and encoding")
	cmd.Flags().IntVarP(&ro.workers, "workers", "w", 0, "worker count (default: from config or host)")
	return cmd
}

func runRender(cmd *cobra.Command, f *OutputFormatter, cfg *config.Config, c *composition.Composition, ro *renderOptions) error {
	ctx := cmd.Context()
	r := engine.FrameRange{From: ro.from, To: ro.to}
	if r.To < 0 {
		r.To = c.DurationInFrames
	}
	if r.From < 0 || r.To > c.DurationInFrames || r.From > r.To {
		return f.Fail(ExitCommandError, ErrCodeBadArgument,
			fmt.Sprintf("range [%d, %d) outside [0, %d)", r.From, r.To, c.DurationInFrames), nil)
	}
	if ro.noVideo && ro.manifest == "" {
		return f.Fail(ExitCommandError, ErrCodeBadArgument, "--no-video needs --manifest", nil)
	}

	workers := ro.workers
	if workers <= 0 {
		workers = cfg.Render.Workers
	}
	if workers <= 0 {
		workers = system.RecommendedWorkers(c.Width, c.Height)
	}

	res := assets.New(cfg.Paths.Assets)
	images, sounds := assets.References(c)
	missing := res.Missing(append(images, sounds...)...)
	for _, m := range missing {
		log.Warn().Str("asset", m).Str("dir", res.Dir).Msg("asset not found, it will be left out")
	}

	result := RenderResult{Composition: c.Name, From: r.From, To: r.To, Workers: workers, Missing: missing}

	var sinks engine.MultiSink
	var raster engine.Rasterizer
	if ro.manifest != "" {
		if err := os.MkdirAll(filepath.Dir(ro.manifest), 0o755); err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		mf, err := os.Create(ro.manifest)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		sinks = append(sinks, engine.NewManifestSink(mf))
		result.Manifest = ro.manifest
	}
	if !ro.noVideo {
		out := ro.out
		if out == "" {
			out = filepath.Join(cfg.Paths.Output, c.Name+".mp4")
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			_ = sinks.Close()
			return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		encoder := cfg.Render.VideoEncoder
		if encoder == "" || encoder == config.AutoEncoder {
			encoder = system.BestH264Encoder(ctx, cfg.Render.FFmpeg)
			log.Info().Str("encoder", encoder).Msg("picked video encoder")
		}
		enc, err := video.Start(ctx, video.Options{
			FFmpeg:  cfg.Render.FFmpeg,
			Width:   c.Width,
			Height:  c.Height,
			FPS:     c.FPS,
			Frames:  r.Len(),
			From:    r.From,
			Encoder: encoder,
			Quality: cfg.Render.Quality,
			Output:  out,
			Audio:   audioInputs(c, res),
		})
		if err != nil {
			_ = sinks.Close()
			return f.Fail(ExitFailure, ErrCodeRender, err.Error(), nil)
		}
		rend := renderer.New(c.Width, c.Height, res)
		raster = rend
		sinks = append(sinks, &engine.RasterSink{Encoder: enc, Release: rend.Release})
		result.Video = out
	}

	hist := openHistory(cfg)
	if hist != nil {
		defer hist.Close()
		id, err := hist.RecordRun(ctx, c.Name, r.From, r.To, workers, result.Video)
		if err != nil {
			log.Warn().Err(err).Msg("could not record run")
		}
		result.RunID = id
	}

	p := engine.NewProject(c, sinks)
	p.Rasterizer = raster
	p.Workers = workers
	p.Progress = progressLogger(c.Name)

	stats, runErr := p.Run(ctx, r)
	runErr = errors.Join(runErr, sinks.Close())

	if hist != nil && result.RunID != "" {
		if err := hist.FinishRun(context.WithoutCancel(ctx), result.RunID, stats.Frames, stats.Elapsed, runErr); err != nil {
			log.Warn().Err(err).Msg("could not finish run record")
		}
	}
	if runErr != nil {
		return f.Fail(ExitFailure, ErrCodeRender, runErr.Error(), result)
	}

	result.Frames = stats.Frames
	result.Elapsed = stats.Elapsed
	result.FPS = stats.FPS()

	return f.Success(result, func(w io.Writer) {
		if cfg.Render.ShowStats {
			fmt.Fprintf(w, "Rendered %d frames of %s in %s (%.1f fps, %d workers)\n",
				result.Frames, result.Composition, result.Elapsed.Round(time.Millisecond), result.FPS, result.Workers)
		}
		if result.Video != "" {
			fmt.Fprintf(w, "Video: %s\n", result.Video)
		}
		if result.Manifest != "" {
			fmt.Fprintf(w, "Manifest: %s\n", result.Manifest)
		}
	})
}

// audioInputs resolves each cue's file. Cues whose file is missing are
// dropped from the mix.
func audioInputs(c *composition.Composition, res *assets.Resolver) []video.AudioInput {
	var inputs []video.AudioInput
	for _, cue := range c.Timeline.Cues() {
		if !res.Exists(cue.Source) {
			continue
		}
		inputs = append(inputs, video.AudioInput{Path: res.Path(cue.Source), Cue: cue})
	}
	return inputs
}

// openHistory opens the run history, or returns nil when it is disabled or
// unavailable. A broken history never fails a render.
func openHistory(cfg *config.Config) *store.Store {
	if cfg.Paths.History == "" {
		return nil
	}
	if dir := filepath.Dir(cfg.Paths.History); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Msg("history disabled")
			return nil
		}
	}
	s, err := store.Open(cfg.Paths.History)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Paths.History).Msg("history disabled")
		return nil
	}
	return s
}

// progressLogger logs roughly every tenth of the run.
func progressLogger(name string) func(done, total int) {
	next := 0
	return func(done, total int) {
		pct := done * 100 / total
		if pct < next && done != total {
			return
		}
		log.Info().Str("composition", name).Int("done", done).Int("total", total).Msgf("%d%%", pct)
		next = pct - pct%10 + 10
	}
}
