// Package config loads CLI settings from a YAML file, a .env file and the
// environment, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Render RenderConfig `yaml:"render"`
	Paths  PathsConfig  `yaml:"paths"`
	Log    LogConfig    `yaml:"log"`
}

type RenderConfig struct {
	Workers      int    `yaml:"workers"` // 0 sizes the pool from the host
	VideoEncoder string `yaml:"video_encoder"`
	Quality      int    `yaml:"quality"`
	FFmpeg       string `yaml:"ffmpeg"`
	FFprobe      string `yaml:"ffprobe"`
	ShowStats    bool   `yaml:"show_stats"`
}

type PathsConfig struct {
	Assets  string `yaml:"assets"`
	Output  string `yaml:"output"`
	History string `yaml:"history"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AutoEncoder asks ffmpeg for the best H.264 encoder at render time.
const AutoEncoder = "auto"

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			VideoEncoder: AutoEncoder,
			Quality:      23,
			FFmpeg:       "ffmpeg",
			FFprobe:      "ffprobe",
			ShowStats:    true,
		},
		Paths: PathsConfig{
			Assets:  "assets",
			Output:  "out",
			History: "framereel.db",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (skipped when empty) over the defaults, then applies
// variables from envFile (skipped when missing) and the process environment.
// Process variables win over the .env file.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	env := map[string]string{}
	if envFile != "" {
		file, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", envFile, err)
		}
		for k, v := range file {
			env[k] = v
		}
	}
	for _, k := range envKeys {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var envKeys = []string{
	"FRAMEREEL_WORKERS",
	"FRAMEREEL_VIDEO_ENCODER",
	"FRAMEREEL_QUALITY",
	"FRAMEREEL_FFMPEG",
	"FRAMEREEL_FFPROBE",
	"FRAMEREEL_ASSETS",
	"FRAMEREEL_OUTPUT",
	"FRAMEREEL_HISTORY",
	"FRAMEREEL_LOG_LEVEL",
}

func (c *Config) applyEnv(env map[string]string) error {
	strs := map[string]*string{
		"FRAMEREEL_VIDEO_ENCODER": &c.Render.VideoEncoder,
		"FRAMEREEL_FFMPEG":        &c.Render.FFmpeg,
		"FRAMEREEL_FFPROBE":       &c.Render.FFprobe,
		"FRAMEREEL_ASSETS":        &c.Paths.Assets,
		"FRAMEREEL_OUTPUT":        &c.Paths.Output,
		"FRAMEREEL_HISTORY":       &c.Paths.History,
		"FRAMEREEL_LOG_LEVEL":     &c.Log.Level,
	}
	ints := map[string]*int{
		"FRAMEREEL_WORKERS": &c.Render.Workers,
		"FRAMEREEL_QUALITY": &c.Render.Quality,
	}
	for k, v := range env {
		if p, ok := strs[k]; ok {
			*p = v
		}
		if p, ok := ints[k]; ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, k, v)
			}
			*p = n
		}
	}
	return nil
}

// Validate checks ranges and the log level.
func (c *Config) Validate() error {
	if c.Render.Workers < 0 {
		return fmt.Errorf("%w: workers %d is negative", ErrInvalidConfig, c.Render.Workers)
	}
	if c.Render.Quality < 0 || c.Render.Quality > 100 {
		return fmt.Errorf("%w: quality %d outside [0, 100]", ErrInvalidConfig, c.Render.Quality)
	}
	if c.Render.FFmpeg == "" {
		return fmt.Errorf("%w: ffmpeg binary is empty", ErrInvalidConfig)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: log level: %v", ErrInvalidConfig, err)
	}
	return lvl, nil
}
