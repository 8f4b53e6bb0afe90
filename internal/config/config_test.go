package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/plotmerge/internal/plotter"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Merge.FirstRow != 1 || cfg.Merge.LastRow != 0 || cfg.Merge.SingleRow != 1 {
		t.Errorf("unexpected row defaults: %+v", cfg.Merge)
	}
	if cfg.PageDelayDuration() != 15*time.Second {
		t.Errorf("expected 15s page delay, got %v", cfg.PageDelayDuration())
	}
	if cfg.Plot.SpeedPenDown != 25 || cfg.Plot.SpeedPenUp != 75 {
		t.Errorf("unexpected speed defaults: %+v", cfg.Plot)
	}
	if !cfg.Preview() {
		t.Error("preview plotter should be the default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
}

func TestDecode_OverridesOnlyGivenKeys(t *testing.T) {
	cfg := Defaults()

	yml := `
merge:
  first_row: 3
  page_delay: 2.5
plot:
  speed_pendown: 40
plotter:
  kind: http
  url: http://plotter.local:9000
`
	if err := cfg.Decode(strings.NewReader(yml)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Merge.FirstRow != 3 {
		t.Errorf("expected first_row 3, got %d", cfg.Merge.FirstRow)
	}
	if cfg.Merge.SingleRow != 1 {
		t.Errorf("single_row default should survive, got %d", cfg.Merge.SingleRow)
	}
	if cfg.PageDelayDuration() != 2500*time.Millisecond {
		t.Errorf("unexpected page delay %v", cfg.PageDelayDuration())
	}
	if cfg.Plot.SpeedPenDown != 40 || cfg.Plot.SpeedPenUp != 75 {
		t.Errorf("unexpected speeds: %+v", cfg.Plot)
	}
	if cfg.Plotter.Kind != plotter.KindHTTP || cfg.Preview() {
		t.Errorf("expected http plotter, got %q", cfg.Plotter.Kind)
	}
}

func TestDecode_UnknownKey(t *testing.T) {
	cfg := Defaults()

	err := cfg.Decode(strings.NewReader("merge:\n  frist_row: 2\n"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDecode_Empty(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Decode(strings.NewReader("")); err != nil {
		t.Errorf("empty file should be accepted: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/plotmerge")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("PLOTMERGE_METRICS_ADDR", ":9100")
	t.Setenv("PLOTTER_URL", "http://from-env")

	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte("plotter:\n  url: http://from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DBURL != "postgres://localhost/plotmerge" || cfg.MetricsAddr != ":9100" {
		t.Errorf("env not applied: %+v", cfg)
	}
	// Файл приоритетнее окружения
	if cfg.Plotter.URL != "http://from-file" {
		t.Errorf("expected file url, got %q", cfg.Plotter.URL)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for missing file, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "defaults", modify: func(*Config) {}},
		{name: "negative first row", modify: func(c *Config) { c.Merge.FirstRow = -1 }, wantErr: true},
		{name: "negative last row", modify: func(c *Config) { c.Merge.LastRow = -2 }, wantErr: true},
		{name: "negative single row", modify: func(c *Config) { c.Merge.SingleRow = -1 }, wantErr: true},
		{name: "unknown kind", modify: func(c *Config) { c.Plotter.Kind = "laser" }, wantErr: true},
		{name: "http without url", modify: func(c *Config) { c.Plotter.Kind = plotter.KindHTTP }, wantErr: true},
		{name: "negative delay is clamped", modify: func(c *Config) { c.Merge.PageDelay = -4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_ClampsDelay(t *testing.T) {
	cfg := Defaults()
	cfg.Merge.PageDelay = -3

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Merge.PageDelay != 0 || cfg.PageDelayDuration() != 0 {
		t.Errorf("expected delay clamped to 0, got %v", cfg.Merge.PageDelay)
	}
}
