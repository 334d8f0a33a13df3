// Package logging builds the process logger from named profiles. The profile
// is picked by environment name; the built-in set can be replaced by a YAML
// file of the same shape.
package logging

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var builtinProfiles []byte

// Profile describes one logging setup.
type Profile struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// Profiles is the parsed profile file.
type Profiles struct {
	Default  string             `yaml:"default"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// LoadProfiles reads profiles from path, or the built-in set when path is empty.
func LoadProfiles(path string) (*Profiles, error) {
	if path == "" {
		return ParseProfiles(builtinProfiles)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("logging: read profiles: %w", err)
	}
	return ParseProfiles(data)
}

// ParseProfiles parses and validates a profile document.
func ParseProfiles(data []byte) (*Profiles, error) {
	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("logging: parse profiles: %w", err)
	}
	if len(p.Profiles) == 0 {
		return nil, fmt.Errorf("logging: no profiles defined")
	}
	if _, ok := p.Profiles[p.Default]; !ok {
		return nil, fmt.Errorf("logging: default profile %q is not defined", p.Default)
	}
	for name, prof := range p.Profiles {
		if _, err := parseLevel(prof.Level); err != nil {
			return nil, fmt.Errorf("logging: profile %s: %w", name, err)
		}
		switch strings.ToLower(prof.Format) {
		case "", "text", "json":
		default:
			return nil, fmt.Errorf("logging: profile %s: unknown format %q", name, prof.Format)
		}
	}
	return &p, nil
}

// Select returns the profile for env, falling back to the default profile.
func (p *Profiles) Select(env string) (string, Profile) {
	env = strings.ToLower(strings.TrimSpace(env))
	if prof, ok := p.Profiles[env]; ok {
		return env, prof
	}
	return p.Default, p.Profiles[p.Default]
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
}

// NewLogger builds a logger writing to w according to prof.
func NewLogger(w io.Writer, prof Profile) (*slog.Logger, error) {
	level, err := parseLevel(prof.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: prof.AddSource}
	if strings.EqualFold(prof.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Setup resolves the profile for env from path (or the built-ins) and returns
// the logger, tagged with the profile name.
func Setup(env, path string, w io.Writer) (*slog.Logger, error) {
	profiles, err := LoadProfiles(path)
	if err != nil {
		return nil, err
	}
	name, prof := profiles.Select(env)
	logger, err := NewLogger(w, prof)
	if err != nil {
		return nil, err
	}
	return logger.With("env", name), nil
}
