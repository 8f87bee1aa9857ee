package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"teelog/internal/hub"
	"teelog/internal/logdir"
	"teelog/internal/logging"
	"teelog/internal/tee"
)

// Settings is the content of config.yaml.
type Settings struct {
	LogDir  string  `yaml:"log_dir" json:"log_dir" jsonschema:"description=Directory receiving structured and console logs"`
	Name    string  `yaml:"name" json:"name" jsonschema:"description=Logger name used in file names and records"`
	Level   string  `yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warning,enum=error,enum=critical"`
	Console Console `yaml:"console" json:"console"`
	Tee     Tee     `yaml:"tee" json:"tee"`
	Fetch   Fetch   `yaml:"fetch" json:"fetch"`
	Serve   Serve   `yaml:"serve" json:"serve"`
}

// Console controls how records are printed.
type Console struct {
	Style string `yaml:"style" json:"style" jsonschema:"enum=plain,enum=pretty"`
	Color string `yaml:"color" json:"color" jsonschema:"enum=auto,enum=always,enum=never"`
}

// Tee controls the console log file.
type Tee struct {
	Mode string `yaml:"mode" json:"mode" jsonschema:"enum=per-write,enum=hold-open"`
}

// Fetch holds defaults for `teelog fetch`.
type Fetch struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	CacheDir string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	Repo     string `yaml:"repo" json:"repo"`
	File     string `yaml:"file" json:"file"`
	Revision string `yaml:"revision" json:"revision"`
	Target   string `yaml:"target" json:"target"`
}

// Serve holds defaults for `teelog serve`.
type Serve struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		LogDir: "logs",
		Name:   "MART",
		Level:  "info",
		Console: Console{
			Style: string(logging.PlainStyle),
			Color: string(logging.ColorAuto),
		},
		Tee: Tee{Mode: tee.PerWrite.String()},
		Fetch: Fetch{
			Endpoint: hub.DefaultEndpoint,
			Repo:     "MCG-NJU/videomae-base",
			File:     "pytorch_model.bin",
			Revision: "main",
			Target:   "models/mbt/pretrained_models/videomae_base_patch16_224.pth",
		},
		Serve: Serve{Addr: "127.0.0.1:8787"},
	}
}

// Load reads settings from path. A missing file yields Defaults and no
// error; fields absent from the file keep their default values.
func Load(path string) (Settings, error) {
	s := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Defaults(), fmt.Errorf("parse %s: %w", path, err)
	}
	s.normalize()
	return s, nil
}

// Save writes settings to path as YAML, creating parent dirs.
func Save(path string, s Settings) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	s.normalize()
	b, err := yaml.Marshal(&s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (s *Settings) normalize() {
	s.LogDir = strings.TrimSpace(s.LogDir)
	s.Name = strings.TrimSpace(s.Name)
	s.Level = strings.ToLower(strings.TrimSpace(s.Level))
	s.Console.Style = strings.ToLower(strings.TrimSpace(s.Console.Style))
	s.Console.Color = strings.ToLower(strings.TrimSpace(s.Console.Color))
	s.Tee.Mode = strings.ToLower(strings.TrimSpace(s.Tee.Mode))
}

// Validate checks the settings for values the logger cannot use.
func Validate(s Settings) []error {
	var errs []error
	if s.LogDir == "" {
		errs = append(errs, errors.New("log_dir is required"))
	}
	if err := logdir.ValidName(s.Name); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(s.Level); err != nil {
		errs = append(errs, err)
	}
	switch logging.Style(s.Console.Style) {
	case logging.PlainStyle, logging.PrettyStyle, "":
	default:
		errs = append(errs, fmt.Errorf("console.style must be plain or pretty; got %q", s.Console.Style))
	}
	switch logging.ColorMode(s.Console.Color) {
	case logging.ColorAuto, logging.ColorAlways, logging.ColorNever, "":
	default:
		errs = append(errs, fmt.Errorf("console.color must be auto, always, or never; got %q", s.Console.Color))
	}
	if _, err := tee.ParseMode(s.Tee.Mode); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// LoggerOptions translates validated settings into logging options.
func (s Settings) LoggerOptions() []logging.Option {
	lvl, _ := logging.ParseLevel(s.Level)
	opts := []logging.Option{logging.WithLevel(lvl)}
	if s.Console.Style != "" {
		opts = append(opts, logging.WithStyle(logging.Style(s.Console.Style)))
	}
	if s.Console.Color != "" {
		opts = append(opts, logging.WithColor(logging.ColorMode(s.Console.Color)))
	}
	return opts
}

// TeeMode returns the configured console log mode.
func (s Settings) TeeMode() tee.Mode {
	m, _ := tee.ParseMode(s.Tee.Mode)
	return m
}
