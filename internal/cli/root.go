// Package cli is the framereel command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ivlev/framereel/internal/catalog"
	"github.com/ivlev/framereel/internal/composition"
	"github.com/ivlev/framereel/internal/config"
	"github.com/ivlev/framereel/internal/director"
)

// RootOptions holds global flags and what PersistentPreRunE derives from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	EnvFile    string

	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "framereel",
		Short: "Frame-driven motion graphics renderer",
		Long: `framereel evaluates declarative compositions frame by frame and renders
them to video. Every frame is a pure function of its frame number.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			opts.Config = cfg
			level, _ := cfg.LogLevel()
			if opts.Verbose {
				level = zerolog.DebugLevel
			}
			setupLogging(cmd.ErrOrStderr(), opts.Format, level)
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "bad flag", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with FRAMEREEL_* overrides")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// usage turns argument count errors into command errors.
func usage(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "usage", err)
		}
		return nil
	}
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setupLogging points the global logger at w: a console writer for people,
// JSON lines when the output is JSON.
func setupLogging(w io.Writer, format string, level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	if format == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func loadRegistry(f *OutputFormatter) (*composition.Registry, error) {
	reg, err := catalog.Load()
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeInvalid, err.Error(), nil)
	}
	return reg, nil
}

// lookup finds a built-in composition, failing with exit code 2 when the
// name is unknown.
func lookup(f *OutputFormatter, name string) (*composition.Composition, error) {
	reg, err := loadRegistry(f)
	if err != nil {
		return nil, err
	}
	c, err := reg.Get(name)
	if errors.Is(err, composition.ErrUnknownComposition) {
		return nil, f.Fail(ExitCommandError, ErrCodeUnknown, err.Error(), reg.Names())
	}
	if err != nil {
		return nil, f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}
	return c, nil
}

// scenarioNamed returns the declaration a built-in composition came from.
func scenarioNamed(name string) (*director.Scenario, error) {
	scenarios, err := catalog.Scenarios()
	if err != nil {
		return nil, err
	}
	for _, s := range scenarios {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", composition.ErrUnknownComposition, name)
}
