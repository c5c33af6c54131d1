// Package config loads mcptape settings from YAML or JSON files.
// Flags override file values; the file is optional.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from either a duration string
// ("30s", "1m") or a bare number of nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(v)
	case int64:
		*d = Duration(v)
	case float64:
		*d = Duration(v)
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultTraceFile is where sessions are appended when no path is given.
const DefaultTraceFile = "mcptape.ndjson"

// Config holds all mcptape settings.
type Config struct {
	// TraceFile is the path sessions are appended to and replayed from.
	TraceFile string `yaml:"traceFile" json:"traceFile"`

	// Log configures diagnostic output (stderr).
	Log LogConfig `yaml:"log" json:"log"`

	// Server describes how to launch the real MCP server for recording.
	Server ServerConfig `yaml:"server" json:"server"`

	// Capture tunes the recording layer.
	Capture CaptureConfig `yaml:"capture" json:"capture"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level" json:"level"`

	// Format is text or json.
	Format string `yaml:"format" json:"format"`
}

// ServerConfig describes the real MCP server to record.
type ServerConfig struct {
	// Command is the executable to spawn.
	Command string `yaml:"command" json:"command"`

	// Args are passed to the command.
	Args []string `yaml:"args" json:"args"`

	// Env entries (KEY=VALUE) are merged over the inherited environment.
	Env []string `yaml:"env" json:"env"`
}

// CaptureConfig tunes the recording layer.
type CaptureConfig struct {
	// GracePeriod bounds how long an unanswered call stays open before it
	// is recorded as cancelled.
	GracePeriod Duration `yaml:"gracePeriod" json:"gracePeriod"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		TraceFile: DefaultTraceFile,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Capture: CaptureConfig{
			GracePeriod: Duration(30 * time.Second),
		},
	}
}
