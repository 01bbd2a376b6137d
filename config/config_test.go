package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%q) error = %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile(%q) error = %v", path, err)
	}
}

func TestDiscoverPathFrom_FirstMatchWins(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()

	projectConfig := filepath.Join(cwd, "factorcount.yaml")
	writeFile(t, projectConfig, "max: 10\n")
	writeFile(t, filepath.Join(home, ".factorcount", "config.yaml"), "max: 20\n")

	got, found, err := DiscoverPathFrom("", cwd, home)
	if err != nil {
		t.Fatalf("DiscoverPathFrom() error = %v", err)
	}
	if !found {
		t.Fatal("found = false, want true")
	}
	if got != projectConfig {
		t.Fatalf("path = %q, want %q", got, projectConfig)
	}
}

func TestDiscoverPathFrom_FallsBackToHome(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()

	homeConfig := filepath.Join(home, ".factorcount", "config.yaml")
	writeFile(t, homeConfig, "threads: 2\n")

	got, found, err := DiscoverPathFrom("", cwd, home)
	if err != nil {
		t.Fatalf("DiscoverPathFrom() error = %v", err)
	}
	if !found || got != homeConfig {
		t.Fatalf("got (%q, %v), want (%q, true)", got, found, homeConfig)
	}
}

func TestDiscoverPathFrom_NothingFound(t *testing.T) {
	got, found, err := DiscoverPathFrom("", t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("DiscoverPathFrom() error = %v", err)
	}
	if found || got != "" {
		t.Fatalf("got (%q, %v), want (\"\", false)", got, found)
	}
}

func TestDiscoverPathFrom_ExplicitNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist.yaml")
	_, found, err := DiscoverPathFrom(missing, t.TempDir(), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if found {
		t.Fatal("found = true, want false")
	}
}

func TestDiscoverPathFrom_ExplicitDirectoryIsNotAFile(t *testing.T) {
	dir := t.TempDir()
	_, _, err := DiscoverPathFrom(dir, t.TempDir(), t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestDiscoverPath_UsesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "max: 5\n")
	t.Setenv(EnvConfigPath, path)

	got, found, err := DiscoverPath("")
	if err != nil {
		t.Fatalf("DiscoverPath() error = %v", err)
	}
	if !found || got != path {
		t.Fatalf("got (%q, %v), want (%q, true)", got, found, path)
	}
}

func TestLoad_ParsesAllFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factorcount.yaml")
	writeFile(t, path, `
max: 1000000
threads: 8
show_output: true
format: json
merge: overwrite
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Max == nil || *cfg.Max != 1000000 {
		t.Errorf("Max = %v, want 1000000", cfg.Max)
	}
	if cfg.Threads == nil || *cfg.Threads != 8 {
		t.Errorf("Threads = %v, want 8", cfg.Threads)
	}
	if cfg.ShowOutput == nil || !*cfg.ShowOutput {
		t.Errorf("ShowOutput = %v, want true", cfg.ShowOutput)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.Merge != "overwrite" {
		t.Errorf("Merge = %q, want overwrite", cfg.Merge)
	}
}

func TestLoad_PartialLeavesFieldsUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factorcount.yaml")
	writeFile(t, path, "threads: 0\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Max != nil {
		t.Errorf("Max = %v, want nil", *cfg.Max)
	}
	if cfg.Threads == nil || *cfg.Threads != 0 {
		t.Errorf("Threads = %v, want explicit 0", cfg.Threads)
	}
	if cfg.ShowOutput != nil {
		t.Errorf("ShowOutput = %v, want nil", *cfg.ShowOutput)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "max: [1, 2\n"},
		{"negative max", "max: -1\n"},
		{"negative threads", "threads: -3\n"},
		{"unknown format", "format: xml\n"},
		{"unknown merge", "merge: average\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			writeFile(t, path, tt.content)
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_MaxBeyondUint64(t *testing.T) {
	dir := t.TempDir()
	for _, raw := range []string{"18446744073709551616", "18446744073709551617", "99999999999999999999999"} {
		t.Run(raw, func(t *testing.T) {
			path := filepath.Join(dir, raw+".yaml")
			writeFile(t, path, "max: "+raw+"\n")

			cfg, err := Load(path)
			if !errors.Is(err, ErrBoundOverflow) {
				t.Fatalf("Load() = (%+v, %v), want ErrBoundOverflow", cfg, err)
			}
		})
	}
}

func TestLoad_MaxMustBeDecimalInteger(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"exponent", "max: 1e19\n"},
		{"fraction", "max: 1.5\n"},
		{"quoted", "max: \"10\"\n"},
		{"bool", "max: true\n"},
		{"list", "max: [10]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			writeFile(t, path, tt.content)

			cfg, err := Load(path)
			if err == nil {
				t.Fatalf("Load() accepted %q as max = %v", tt.content, *cfg.Max)
			}
			if errors.Is(err, ErrBoundOverflow) {
				t.Errorf("error = %v, want a type error rather than overflow", err)
			}
		})
	}
}

func TestLoad_MaxUint64(t *testing.T) {
	path := filepath.Join(t.TempDir(), "factorcount.yaml")
	writeFile(t, path, "max: 18446744073709551615\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Max == nil || *cfg.Max != Bound(math.MaxUint64) {
		t.Fatalf("Max = %v, want MaxUint64", cfg.Max)
	}
}

func TestParseBound(t *testing.T) {
	tests := []struct {
		raw      string
		want     uint64
		overflow bool
		wantErr  bool
	}{
		{raw: "0", want: 0},
		{raw: " 50000000 ", want: 50000000},
		{raw: "18446744073709551615", want: math.MaxUint64},
		{raw: "18446744073709551616", overflow: true, wantErr: true},
		{raw: "1e19", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseBound(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseBound(%q) = %d, want error", tt.raw, got)
				}
				if errors.Is(err, ErrBoundOverflow) != tt.overflow {
					t.Errorf("ParseBound(%q) overflow = %v, want %v (%v)", tt.raw, !tt.overflow, tt.overflow, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBound(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseBound(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"csv", "json", "yaml", " JSON "} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) error = %v", f, err)
		}
	}
	for _, f := range []string{"", "xml", "pretty"} {
		if err := ValidateFormat(f); err == nil {
			t.Errorf("ValidateFormat(%q) expected error", f)
		}
	}
}
