package main

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// config holds the run settings, loadable from a YAML file and overridable
// by flags.
type config struct {
	Seed  uint64 `yaml:"seed"`
	Draws int    `yaml:"draws"`
	Log   struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func defaultConfig() config {
	var c config
	c.Seed = 1
	c.Draws = 100000
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// loadConfig reads settings from path into the given defaults.
func loadConfig(path string, c *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// newLogger builds a slog.Logger from the configured level and format. It
// does not touch the global logger.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(handler)
}
