// Package config discovers and loads factorcount run configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/factorcount/core"
)

const (
	projectConfigName = "factorcount.yaml"
	homeConfigName    = "config.yaml"

	// EnvConfigPath names the environment variable checked after --config.
	EnvConfigPath = "FACTORCOUNT_CONFIG"
)

// Output formats accepted for histogram rendering.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	// ErrNotFound is returned when an explicitly requested config file is missing.
	ErrNotFound = errors.New("config file not found")

	// ErrBoundOverflow is returned when a max search number does not fit in 64 bits.
	ErrBoundOverflow = errors.New("max search number exceeds the 64-bit range")
)

// Bound is a max search number. In YAML it must be a plain decimal
// integer; floats and values beyond uint64 are rejected.
type Bound uint64

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Bound) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("max must be a non-negative integer (line %d)", node.Line)
	}
	// yaml.v3 resolves integers past the int64/uint64 range as !!float.
	switch node.ShortTag() {
	case "!!int", "!!float":
	default:
		return fmt.Errorf("max must be a non-negative integer, got %q (line %d)", node.Value, node.Line)
	}
	v, err := ParseBound(node.Value)
	if err != nil {
		return err
	}
	*b = Bound(v)
	return nil
}

// ParseBound parses a decimal max search number. Values beyond uint64
// wrap ErrBoundOverflow.
func ParseBound(raw string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: %s", ErrBoundOverflow, strings.TrimSpace(raw))
	}
	return 0, fmt.Errorf("max must be a non-negative integer, got %q", raw)
}

// RunConfig is the shape of factorcount.yaml. Unset fields leave the
// corresponding default or flag value in place.
type RunConfig struct {
	Max        *Bound `yaml:"max,omitempty"`
	Threads    *int   `yaml:"threads,omitempty"`
	ShowOutput *bool  `yaml:"show_output,omitempty"`
	Format     string `yaml:"format,omitempty"`
	Merge      string `yaml:"merge,omitempty"`
}

// Validate checks enumerated fields.
func (c RunConfig) Validate() error {
	if c.Threads != nil && *c.Threads < 0 {
		return fmt.Errorf("threads must not be negative, got %d", *c.Threads)
	}
	if c.Format != "" {
		if err := ValidateFormat(c.Format); err != nil {
			return err
		}
	}
	if c.Merge != "" {
		if _, err := core.ParseMergePolicy(c.Merge); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFormat reports whether format names a supported renderer.
func ValidateFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (use csv, json, or yaml)", format)
	}
}

// DiscoverPath resolves the config location with first-match semantics.
func DiscoverPath(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("resolve working directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve user home: %w", err)
	}
	if strings.TrimSpace(explicitPath) == "" {
		explicitPath = os.Getenv(EnvConfigPath)
	}
	return DiscoverPathFrom(explicitPath, cwd, homeDir)
}

// DiscoverPathFrom is a testable variant of DiscoverPath.
func DiscoverPathFrom(explicitPath, cwd, homeDir string) (string, bool, error) {
	explicit := strings.TrimSpace(explicitPath)

	candidates := make([]string, 0, 2)
	if explicit != "" {
		candidates = append(candidates, filepath.Clean(explicit))
	} else {
		candidates = append(candidates, filepath.Join(cwd, projectConfigName))
		if homeDir != "" {
			candidates = append(candidates, filepath.Join(homeDir, ".factorcount", homeConfigName))
		}
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true, nil
		}
		if err == nil || errors.Is(err, os.ErrNotExist) {
			if explicit != "" {
				return "", false, fmt.Errorf("%w: %q", ErrNotFound, candidate)
			}
			continue
		}
		return "", false, fmt.Errorf("checking config path %q: %w", candidate, err)
	}
	return "", false, nil
}

// Load reads and validates the config at path.
func Load(path string) (RunConfig, error) {
	// #nosec G304 -- path resolved from explicit local config discovery.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RunConfig{}, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		return RunConfig{}, fmt.Errorf("reading config %q: %w", path, err)
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parsing config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}
