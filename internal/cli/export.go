package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/framereel/internal/composition"
	"github.com/ivlev/framereel/internal/director"
)

// ExportResult is the export output when a file is written.
type ExportResult struct {
	Composition string `json:"composition"`
	Path        string `json:"path,omitempty"`
	YAML        string `json:"yaml,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var out, dir string
	cmd := &cobra.Command{
		Use:   "export <composition>",
		Short: "Write a built-in composition as scenario YAML",
		Long: `Export prints the scenario a built-in composition is built from. The
YAML can be edited and checked with validate. With --dir the file gets a
timestamped name.`,
		Args: usage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			s, err := scenarioNamed(args[0])
			if errors.Is(err, composition.ErrUnknownComposition) {
				return f.Fail(ExitCommandError, ErrCodeUnknown, err.Error(), nil)
			}
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeInvalid, err.Error(), nil)
			}

			if out == "" && dir != "" {
				out = director.GenerateScenarioPath(dir, s.Name)
			}
			if out == "" {
				data, err := director.EncodeScenario(s)
				if err != nil {
					return f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
				}
				return f.Success(ExportResult{Composition: s.Name, YAML: string(data)}, func(w io.Writer) {
					_, _ = w.Write(data)
				})
			}

			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
			}
			if err := director.WriteScenario(s, out); err != nil {
				return f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
			}
			return f.Success(ExportResult{Composition: s.Name, Path: out}, func(w io.Writer) {
				io.WriteString(w, "Wrote "+out+"\n")
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&dir, "dir", "", "write a timestamped file into this directory")
	return cmd
}
