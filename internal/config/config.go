package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/plotmerge/internal/plotter"
)

// ErrInvalidConfig — конфигурация не прошла проверку.
var ErrInvalidConfig = errors.New("invalid config")

// Интервал опроса паузы по умолчанию.
const defaultPollIntervalMs = 100

// Config — полная конфигурация одного запуска.
type Config struct {
	Merge   MergeConfig    `yaml:"merge"`
	Plot    plotter.Params `yaml:"plot"`
	Plotter PlotterConfig  `yaml:"plotter"`
	Pause   PauseConfig    `yaml:"pause"`

	// Инфраструктура — только из окружения.
	DBURL       string `yaml:"-"`
	RabbitMQURL string `yaml:"-"`
	MetricsAddr string `yaml:"-"`
}

// MergeConfig — параметры слияния.
type MergeConfig struct {
	// FirstRow — первая строка диапазона (1-based).
	FirstRow int `yaml:"first_row"`

	// LastRow — последняя строка диапазона; 0 — до конца данных.
	LastRow int `yaml:"last_row"`

	// SingleRow — строка для режима single.
	SingleRow int `yaml:"single_row"`

	// PageDelay — пауза между строками, секунды.
	PageDelay float64 `yaml:"page_delay"`

	// Data — путь к CSV; пусто — брать из документа.
	Data string `yaml:"data"`

	// ReportTime — печатать отчёт о времени и пробеге.
	ReportTime bool `yaml:"report_time"`
}

// PlotterConfig — выбор и настройка plotter'а.
type PlotterConfig struct {
	Kind          string  `yaml:"kind"`
	URL           string  `yaml:"url"`
	TimeoutSec    float64 `yaml:"timeout_sec"`
	RenderDir     string  `yaml:"render_dir"`
	PixelsPerInch float64 `yaml:"pixels_per_inch"`
}

// PauseConfig — источники сигнала остановки.
type PauseConfig struct {
	// Keyboard — пауза по клавише в терминале.
	Keyboard bool `yaml:"keyboard"`

	// Button — опрашивать кнопку устройства (только для http plotter'а).
	Button bool `yaml:"button"`

	// Remote — слушать команды паузы из RabbitMQ (нужен RABBITMQ_URL).
	Remote bool `yaml:"remote"`

	// PollIntervalMs — интервал опроса во время паузы между строками.
	PollIntervalMs int `yaml:"poll_interval_ms"`
}

// Defaults возвращает конфигурацию по умолчанию.
func Defaults() Config {
	return Config{
		Merge: MergeConfig{
			FirstRow:   1,
			LastRow:    0,
			SingleRow:  1,
			PageDelay:  15,
			ReportTime: true,
		},
		Plot: plotter.Params{
			SpeedPenDown: 25,
			SpeedPenUp:   75,
			Accel:        75,
			PenPosUp:     60,
			PenPosDown:   30,
			PenRateRaise: 75,
			PenRateLower: 50,
			AutoRotate:   true,
			Resolution:   1,
			Model:        1,
			Rendering:    3,
			Smoothness:   10,
			Cornering:    10,
		},
		Plotter: PlotterConfig{
			Kind: plotter.KindPreview,
		},
		Pause: PauseConfig{
			Button:         true,
			PollIntervalMs: defaultPollIntervalMs,
		},
	}
}

// Load собирает конфигурацию: значения по умолчанию, окружение, затем файл.
// Пустой path — без файла.
func Load(path string) (Config, error) {
	cfg := Defaults()
	cfg.ApplyEnv()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// ApplyEnv читает инфраструктурные параметры из окружения.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DB_URL"); v != "" {
		c.DBURL = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQURL = v
	}
	if v := os.Getenv("PLOTMERGE_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("PLOTTER_URL"); v != "" {
		c.Plotter.URL = v
	}
}

// LoadFile накладывает YAML-файл поверх текущих значений.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return c.Decode(bytes.NewReader(data))
}

// Decode накладывает YAML поверх текущих значений.
// Неизвестные ключи — ошибка.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate проверяет конфигурацию и нормализует отрицательную задержку.
func (c *Config) Validate() error {
	if c.Merge.PageDelay < 0 {
		c.Merge.PageDelay = 0
	}

	if c.Merge.FirstRow < 0 {
		return fmt.Errorf("%w: first_row must not be negative", ErrInvalidConfig)
	}
	if c.Merge.LastRow < 0 {
		return fmt.Errorf("%w: last_row must not be negative", ErrInvalidConfig)
	}
	if c.Merge.SingleRow < 0 {
		return fmt.Errorf("%w: single_row must not be negative", ErrInvalidConfig)
	}
	if c.Pause.PollIntervalMs < 0 {
		return fmt.Errorf("%w: poll_interval_ms must not be negative", ErrInvalidConfig)
	}

	switch c.Plotter.Kind {
	case plotter.KindPreview:
	case plotter.KindHTTP:
		if c.Plotter.URL == "" {
			return fmt.Errorf("%w: plotter.url is required for kind %q", ErrInvalidConfig, plotter.KindHTTP)
		}
	default:
		return fmt.Errorf("%w: unknown plotter kind %q", ErrInvalidConfig, c.Plotter.Kind)
	}

	return nil
}

// PageDelayDuration возвращает задержку между строками.
func (c *Config) PageDelayDuration() time.Duration {
	if c.Merge.PageDelay <= 0 {
		return 0
	}
	return time.Duration(c.Merge.PageDelay * float64(time.Second))
}

// PollInterval возвращает интервал опроса паузы.
func (c *Config) PollInterval() time.Duration {
	if c.Pause.PollIntervalMs <= 0 {
		return defaultPollIntervalMs * time.Millisecond
	}
	return time.Duration(c.Pause.PollIntervalMs) * time.Millisecond
}

// PlotterOptions возвращает опции создания plotter'а.
func (c *Config) PlotterOptions() plotter.Options {
	return plotter.Options{
		URL:           c.Plotter.URL,
		TimeoutSec:    c.Plotter.TimeoutSec,
		RenderDir:     c.Plotter.RenderDir,
		PixelsPerInch: c.Plotter.PixelsPerInch,
	}
}

// Preview возвращает true, если plotter симулирующий.
func (c *Config) Preview() bool {
	return c.Plotter.Kind == plotter.KindPreview
}
