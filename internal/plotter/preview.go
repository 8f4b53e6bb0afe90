package plotter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"github.com/shaiso/plotmerge/internal/domain"
)

// KindPreview — имя симулирующего plotter'а.
const KindPreview = "preview"

const (
	// defaultPixelsPerInch — пользовательские единицы SVG (как в Inkscape).
	defaultPixelsPerInch = 96.0

	// Предельная скорость XY, дюймов в секунду, для высокого и низкого разрешения.
	speedLimitHighRes = 8.6979
	speedLimitLowRes  = 12.0

	// Скорости по умолчанию, проценты от предельной.
	defaultSpeedPenDown = 25
	defaultSpeedPenUp   = 75

	// curveSegments — число отрезков при спрямлении кривых Безье.
	curveSegments = 16

	// maxRenderSide — ограничение размера PNG-рендера по стороне.
	maxRenderSide = 4096

	// basisUnit — длина базисных векторов при восстановлении матрицы пути.
	basisUnit = 1024
)

// Preview — plotter без устройства: оценивает пробег и время по геометрии SVG.
type Preview struct {
	ppi       float64
	renderDir string
}

// NewPreview создаёт Preview.
func NewPreview(opts Options) *Preview {
	ppi := opts.PixelsPerInch
	if ppi <= 0 {
		ppi = defaultPixelsPerInch
	}
	return &Preview{ppi: ppi, renderDir: opts.RenderDir}
}

// Open ничего не открывает: устройства нет.
func (p *Preview) Open(context.Context) error {
	return nil
}

// Close ничего не закрывает.
func (p *Preview) Close() error {
	return nil
}

// Plot разбирает документ и оценивает пробег пера.
// Preview никогда не останавливается посреди строки.
func (p *Preview) Plot(_ context.Context, req *Request) (*Result, error) {
	data, err := req.Document.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: row %d: %v", ErrPlotFailed, req.Row, err)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: row %d: read svg: %v", ErrPlotFailed, req.Row, err)
	}

	stats := p.measure(icon, req.Params)

	if p.renderDir != "" {
		if err := p.render(icon, req.Row); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrPlotFailed, req.Row, err)
		}
	}

	return &Result{
		Document: returned(req),
		Stats:    stats,
	}, nil
}

// measure обходит пути и считает пробег с опущенным и поднятым пером.
// Перо стартует и заканчивает в начале координат.
func (p *Preview) measure(icon *oksvg.SvgIcon, params Params) domain.TravelStats {
	w := &pathWalker{}
	for i := range icon.SVGPaths {
		w.m = pathTransform(icon.SVGPaths[i])
		w.walk(icon.SVGPaths[i].Path)
	}
	w.penUp += w.pos.dist(point{})

	stats := domain.TravelStats{
		PenDownInches: w.penDown / p.ppi,
		PenUpInches:   w.penUp / p.ppi,
	}
	stats.Estimate = estimate(stats, params)
	return stats
}

// estimate считает время печати при постоянных скоростях из параметров.
func estimate(stats domain.TravelStats, params Params) time.Duration {
	limit := speedLimitHighRes
	if params.Resolution == 2 {
		limit = speedLimitLowRes
	}

	down := percentOr(params.SpeedPenDown, defaultSpeedPenDown) * limit / 100
	up := percentOr(params.SpeedPenUp, defaultSpeedPenUp) * limit / 100

	seconds := stats.PenDownInches/down + stats.PenUpInches/up
	return time.Duration(seconds * float64(time.Second))
}

// percentOr возвращает процент из диапазона 1-100 или значение по умолчанию.
func percentOr(v, def int) float64 {
	if v < 1 || v > 100 {
		return float64(def)
	}
	return float64(v)
}

// render рисует документ в PNG row-NNNN.png в каталоге renderDir.
func (p *Preview) render(icon *oksvg.SvgIcon, row int) error {
	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		return fmt.Errorf("render: empty view box")
	}
	if scale := float64(maxRenderSide) / float64(max(w, h)); scale < 1 {
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	if err := os.MkdirAll(p.renderDir, 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	f, err := os.Create(filepath.Join(p.renderDir, fmt.Sprintf("row-%04d.png", row)))
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

// pathTransform восстанавливает матрицу transform пути вместе с его группами.
// oksvg применяет её только при отрисовке, поэтому копия пути с базисным
// треугольником заливается в pointRecorder, и матрица читается по образам точек.
func pathTransform(sp oksvg.SvgPath) rasterx.Matrix2D {
	var basis rasterx.Path
	basis.Start(fixed.Point26_6{})
	basis.Line(fixed.Point26_6{X: basisUnit * 64})
	basis.Line(fixed.Point26_6{Y: basisUnit * 64})
	basis.Stop(false)

	sp.Path = basis
	sp.SetFillColor(color.Black)
	sp.SetLineColor(nil)

	rec := &pointRecorder{}
	sp.Draw(rasterx.NewDasher(1, 1, rec), 1)
	if len(rec.points) < 3 {
		return rasterx.Identity
	}

	o, x, y := rec.points[0], rec.points[1], rec.points[2]
	return rasterx.Matrix2D{
		A: (x.x - o.x) / basisUnit, B: (x.y - o.y) / basisUnit,
		C: (y.x - o.x) / basisUnit, D: (y.y - o.y) / basisUnit,
		E: o.x, F: o.y,
	}
}

// pointRecorder — rasterx.Scanner, запоминающий вершины вместо растеризации.
type pointRecorder struct {
	points []point
}

func (r *pointRecorder) Start(a fixed.Point26_6) {
	r.points = append(r.points, point{x: fixedToFloat(a.X), y: fixedToFloat(a.Y)})
}

func (r *pointRecorder) Line(b fixed.Point26_6) {
	r.points = append(r.points, point{x: fixedToFloat(b.X), y: fixedToFloat(b.Y)})
}

func (r *pointRecorder) Draw()                              {}
func (r *pointRecorder) GetPathExtent() fixed.Rectangle26_6 { return fixed.Rectangle26_6{} }
func (r *pointRecorder) SetBounds(int, int)                 {}
func (r *pointRecorder) SetColor(interface{})               {}
func (r *pointRecorder) SetWinding(bool)                    {}
func (r *pointRecorder) Clear()                             {}
func (r *pointRecorder) SetClip(image.Rectangle)            {}

// point — точка в пользовательских единицах SVG.
type point struct{ x, y float64 }

func (a point) dist(b point) float64 {
	return math.Hypot(a.x-b.x, a.y-b.y)
}

// pathWalker накапливает длины при обходе команд пути.
// Точки пути переводятся матрицей m в координаты документа.
type pathWalker struct {
	m       rasterx.Matrix2D
	pos     point
	start   point
	penDown float64
	penUp   float64
}

// walk обходит закодированный путь rasterx: команда, затем её точки.
func (w *pathWalker) walk(path rasterx.Path) {
	for i := 0; i < len(path); {
		switch rasterx.PathCommand(path[i]) {
		case rasterx.PathMoveTo:
			to := w.at(path, i+1)
			w.penUp += w.pos.dist(to)
			w.pos, w.start = to, to
			i += 3
		case rasterx.PathLineTo:
			to := w.at(path, i+1)
			w.penDown += w.pos.dist(to)
			w.pos = to
			i += 3
		case rasterx.PathQuadTo:
			c, to := w.at(path, i+1), w.at(path, i+3)
			w.curve(func(t float64) point { return quad(w.pos, c, to, t) }, to)
			i += 5
		case rasterx.PathCubicTo:
			c1, c2, to := w.at(path, i+1), w.at(path, i+3), w.at(path, i+5)
			w.curve(func(t float64) point { return cubic(w.pos, c1, c2, to, t) }, to)
			i += 7
		case rasterx.PathClose:
			w.penDown += w.pos.dist(w.start)
			w.pos = w.start
			i++
		default:
			// Неизвестная команда: дальше путь не декодируется
			return
		}
	}
}

// curve спрямляет кривую на curveSegments отрезков.
func (w *pathWalker) curve(at func(t float64) point, end point) {
	prev := w.pos
	for s := 1; s <= curveSegments; s++ {
		next := at(float64(s) / curveSegments)
		w.penDown += prev.dist(next)
		prev = next
	}
	w.pos = end
}

// at читает точку из пути по индексу координаты X и применяет матрицу.
func (w *pathWalker) at(path rasterx.Path, i int) point {
	x, y := w.m.Transform(fixedToFloat(path[i]), fixedToFloat(path[i+1]))
	return point{x: x, y: y}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func quad(p0, p1, p2 point, t float64) point {
	u := 1 - t
	return point{
		x: u*u*p0.x + 2*u*t*p1.x + t*t*p2.x,
		y: u*u*p0.y + 2*u*t*p1.y + t*t*p2.y,
	}
}

func cubic(p0, p1, p2, p3 point, t float64) point {
	u := 1 - t
	return point{
		x: u*u*u*p0.x + 3*u*u*t*p1.x + 3*u*t*t*p2.x + t*t*t*p3.x,
		y: u*u*u*p0.y + 3*u*u*t*p1.y + 3*u*t*t*p2.y + t*t*t*p3.y,
	}
}
