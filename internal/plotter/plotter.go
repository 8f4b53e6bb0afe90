package plotter

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shaiso/plotmerge/internal/document"
	"github.com/shaiso/plotmerge/internal/domain"
)

// Ошибки plotter'а. Любая из них фатальна для задания, повторов нет.
var (
	// ErrPlotFailed — делегированный plot завершился ошибкой.
	ErrPlotFailed = errors.New("plot failed")

	// ErrDevice — устройство недоступно.
	ErrDevice = errors.New("plotter device unavailable")

	// ErrUnknownKind — в реестре нет plotter'а с таким именем.
	ErrUnknownKind = errors.New("unknown plotter kind")
)

// Params — параметры печати, которые передаются plotter'у без интерпретации.
type Params struct {
	SpeedPenDown int `json:"speed_pendown" yaml:"speed_pendown"`
	SpeedPenUp   int `json:"speed_penup" yaml:"speed_penup"`
	Accel        int `json:"accel" yaml:"accel"`

	PenPosUp     int `json:"pen_pos_up" yaml:"pen_pos_up"`
	PenPosDown   int `json:"pen_pos_down" yaml:"pen_pos_down"`
	PenRateRaise int `json:"pen_rate_raise" yaml:"pen_rate_raise"`
	PenRateLower int `json:"pen_rate_lower" yaml:"pen_rate_lower"`
	PenDelayUp   int `json:"pen_delay_up" yaml:"pen_delay_up"`
	PenDelayDown int `json:"pen_delay_down" yaml:"pen_delay_down"`

	ConstSpeed bool `json:"const_speed" yaml:"const_speed"`
	AutoRotate bool `json:"auto_rotate" yaml:"auto_rotate"`

	Resolution int    `json:"resolution" yaml:"resolution"`
	Model      int    `json:"model" yaml:"model"`
	Port       string `json:"port,omitempty" yaml:"port"`
	Rendering  int    `json:"rendering" yaml:"rendering"`
	Reordering int    `json:"reordering" yaml:"reordering"`

	Smoothness float64 `json:"smoothness" yaml:"smoothness"`
	Cornering  float64 `json:"cornering" yaml:"cornering"`

	Preview bool `json:"preview" yaml:"-"`
}

// Request — один делегированный plot.
type Request struct {
	// Document — документ со значениями строки, который нужно напечатать.
	Document *document.Document

	// Original — документ, который plotter возвращает после печати
	// (шаблон до подстановки, к нему пишется прогресс).
	Original *document.Document

	// Row — номер строки данных (для логов и прогресса устройства).
	Row int

	// Seed — случайное зерно строки.
	Seed float64

	// Checkpoint — позиция, с которой продолжить остановленную строку.
	Checkpoint string

	// Params — параметры печати.
	Params Params
}

// Result — результат делегированного plot'а.
type Result struct {
	// Document — документ, возвращённый plotter'ом.
	Document *document.Document

	// Stats — пробег и оценка времени этого plot'а.
	Stats domain.TravelStats

	// Halted — печать остановлена кнопкой или сигналом устройства.
	Halted bool

	// Checkpoint — позиция остановки (при Halted).
	Checkpoint string
}

// Plotter — внешний исполнитель печати.
//
// Open вызывается один раз на задание, Close — один раз в конце
// или при досрочной остановке. Plot не вызывается параллельно.
type Plotter interface {
	Open(ctx context.Context) error
	Plot(ctx context.Context, req *Request) (*Result, error)
	Close() error
}

// Factory создаёт Plotter по опциям.
type Factory func(opts Options) (Plotter, error)

// Options — настройки создания plotter'а.
type Options struct {
	// URL — адрес HTTP-шлюза устройства.
	URL string

	// TimeoutSec — таймаут одного plot'а для HTTP-шлюза.
	TimeoutSec float64

	// RenderDir — каталог для PNG-рендеров в preview ("" — не рендерить).
	RenderDir string

	// PixelsPerInch — масштаб пользовательских единиц SVG.
	PixelsPerInch float64
}

// Registry — реестр plotter'ов по имени.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry создаёт реестр с plotter'ами по умолчанию: preview, http.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(KindPreview, func(opts Options) (Plotter, error) {
		return NewPreview(opts), nil
	})
	r.Register(KindHTTP, func(opts Options) (Plotter, error) {
		p, err := NewHTTP(opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	return r
}

// Register добавляет фабрику plotter'а.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// New создаёт plotter по имени.
func (r *Registry) New(kind string, opts Options) (Plotter, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return f(opts)
}

// Kinds возвращает зарегистрированные имена.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// returned выбирает документ, который plotter отдаёт обратно.
func returned(req *Request) *document.Document {
	if req.Original != nil {
		return req.Original
	}
	return req.Document
}
