package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ivlev/framereel/internal/assets"
	"github.com/ivlev/framereel/internal/composition"
	"github.com/ivlev/framereel/internal/director"
	"github.com/ivlev/framereel/internal/system"
)

// ValidationReport is the validate output.
type ValidationReport struct {
	File          string             `json:"file"`
	Composition   string             `json:"composition"`
	Frames        int                `json:"frames"`
	FPS           float64            `json:"fps"`
	Scenes        int                `json:"scenes"`
	Cues          int                `json:"cues"`
	MissingImages []string           `json:"missingImages,omitempty"`
	MissingAudio  []string           `json:"missingAudio,omitempty"`
	AudioSeconds  map[string]float64 `json:"audioSeconds,omitempty"`
	Warnings      []string           `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	var strict, probe bool
	var dir string
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a scenario file (.yaml, .yml or .cue)",
		Long: `Validate decodes a scenario, builds its composition and checks that the
assets it references exist. Without a file the newest scenario in --dir is
used. Missing assets are warnings unless --strict is set.`,
		Args: usage(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				latest, err := director.FindLatestScenario(dir)
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
				}
				path = latest
			}

			s, err := director.Load(path)
			if errors.Is(err, fs.ErrNotExist) {
				return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
			}
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeInvalid, err.Error(), nil)
			}
			c, err := director.Build(s)
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeInvalid, err.Error(), nil)
			}

			rep := report(path, c, assets.New(opts.Config.Paths.Assets))
			if probe {
				probeAudio(cmd, opts, c, &rep)
			}
			if strict && len(rep.Warnings) > 0 {
				return f.Fail(ExitFailure, ErrCodeInvalid,
					fmt.Sprintf("%s: %d warning(s)", path, len(rep.Warnings)), rep)
			}
			return f.Success(rep, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %s, %d frames at %g fps, %d scenes, %d audio cues\n",
					rep.File, rep.Composition, rep.Frames, rep.FPS, rep.Scenes, rep.Cues)
				for _, warn := range rep.Warnings {
					fmt.Fprintf(w, "warning: %s\n", warn)
				}
				if len(rep.Warnings) == 0 {
					fmt.Fprintln(w, "OK")
				}
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	cmd.Flags().BoolVar(&probe, "probe", false, "measure audio files with ffprobe")
	cmd.Flags().StringVar(&dir, "dir", "scenarios", "directory searched when no file is given")
	return cmd
}

func report(path string, c *composition.Composition, res *assets.Resolver) ValidationReport {
	images, audio := assets.References(c)
	rep := ValidationReport{
		File:          path,
		Composition:   c.Name,
		Frames:        c.DurationInFrames,
		FPS:           c.FPS,
		Scenes:        len(c.Timeline.Clips()),
		Cues:          len(c.Timeline.Cues()),
		MissingImages: res.Missing(images...),
		MissingAudio:  res.Missing(audio...),
	}
	for _, m := range rep.MissingImages {
		rep.Warnings = append(rep.Warnings, "image not found: "+m)
	}
	for _, m := range rep.MissingAudio {
		rep.Warnings = append(rep.Warnings, "audio not found: "+m)
	}
	return rep
}

// probeAudio records each audio file's length and warns when a bounded cue
// asks for more than the file holds.
func probeAudio(cmd *cobra.Command, opts *RootOptions, c *composition.Composition, rep *ValidationReport) {
	res := assets.New(opts.Config.Paths.Assets)
	rep.AudioSeconds = make(map[string]float64)
	failed := make(map[string]bool)
	for _, cue := range c.Timeline.Cues() {
		if failed[cue.Source] || !res.Exists(cue.Source) {
			continue
		}
		secs, ok := rep.AudioSeconds[cue.Source]
		if !ok {
			d, err := system.MediaDuration(cmd.Context(), opts.Config.Render.FFprobe, res.Path(cue.Source))
			if err != nil {
				log.Warn().Err(err).Str("audio", cue.Source).Msg("probe failed")
				failed[cue.Source] = true
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("could not probe %s", cue.Source))
				continue
			}
			secs = d
			rep.AudioSeconds[cue.Source] = d
		}
		if !cue.Bounded() {
			continue
		}
		need := float64(cue.End-cue.Start+cue.SourceOffset) / c.FPS
		if need > secs {
			rep.Warnings = append(rep.Warnings,
				fmt.Sprintf("%s is %.2fs, cue at frame %d needs %.2fs", cue.Source, secs, cue.Start, need))
		}
	}
}
