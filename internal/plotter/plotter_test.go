package plotter

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaiso/plotmerge/internal/document"
)

// Квадрат 96x96 единиц (1 дюйм) с началом в (96,0).
const squareSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="200" viewBox="0 0 200 200">
  <path d="M 96 0 L 192 0 L 192 96 L 96 96 Z" stroke="black" fill="none"/>
</svg>`

func mustParse(t *testing.T, s string) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestPreview_Measure(t *testing.T) {
	p := NewPreview(Options{})

	res, err := p.Plot(context.Background(), &Request{
		Document: mustParse(t, squareSVG),
		Row:      1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Рисование: 4 стороны по 1 дюйму
	if !almostEqual(res.Stats.PenDownInches, 4) {
		t.Errorf("expected 4 in pen-down, got %f", res.Stats.PenDownInches)
	}
	// Холостой ход: к (96,0) и обратно в начало
	if !almostEqual(res.Stats.PenUpInches, 2) {
		t.Errorf("expected 2 in pen-up, got %f", res.Stats.PenUpInches)
	}
	if res.Stats.Estimate <= 0 {
		t.Error("estimate should be positive")
	}
	if res.Halted {
		t.Error("preview should never halt")
	}
}

func TestPreview_MeasureTransformed(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		down float64
		up   float64
	}{
		{
			name: "scaled group",
			svg: `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="400" viewBox="0 0 400 400">
  <g transform="scale(2,2)"><path d="M 48 0 L 96 0 L 96 48 L 48 48 Z" stroke="black" fill="none"/></g>
</svg>`,
			down: 4, up: 2,
		},
		{
			name: "translated path",
			svg: `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="200" viewBox="0 0 200 200">
  <path transform="translate(96,0)" d="M 0 0 L 96 0 L 96 96 L 0 96 Z" stroke="black" fill="none"/>
</svg>`,
			down: 4, up: 2,
		},
		{
			name: "scale doubles the square",
			svg: `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="400" viewBox="0 0 400 400">
  <g transform="scale(2,2)"><path d="M 96 0 L 192 0 L 192 96 L 96 96 Z" stroke="black" fill="none"/></g>
</svg>`,
			down: 8, up: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPreview(Options{})
			res, err := p.Plot(context.Background(), &Request{Document: mustParse(t, tt.svg), Row: 1})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !almostEqual(res.Stats.PenDownInches, tt.down) {
				t.Errorf("expected %.0f in pen-down, got %f", tt.down, res.Stats.PenDownInches)
			}
			if !almostEqual(res.Stats.PenUpInches, tt.up) {
				t.Errorf("expected %.0f in pen-up, got %f", tt.up, res.Stats.PenUpInches)
			}
		})
	}
}

func TestPreview_ReturnsOriginal(t *testing.T) {
	p := NewPreview(Options{})
	merged := mustParse(t, squareSVG)
	original := mustParse(t, squareSVG)

	res, err := p.Plot(context.Background(), &Request{Document: merged, Original: original, Row: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Document != original {
		t.Error("plotter should return the original document")
	}

	res, _ = p.Plot(context.Background(), &Request{Document: merged, Row: 1})
	if res.Document != merged {
		t.Error("without original the plotted document is returned")
	}
}

func TestEstimate_Speeds(t *testing.T) {
	slow := NewPreview(Options{})
	fast := NewPreview(Options{})

	doc := mustParse(t, squareSVG)
	a, _ := slow.Plot(context.Background(), &Request{Document: doc, Params: Params{SpeedPenDown: 10, SpeedPenUp: 10}})
	b, _ := fast.Plot(context.Background(), &Request{Document: doc, Params: Params{SpeedPenDown: 100, SpeedPenUp: 100}})

	if a.Stats.Estimate <= b.Stats.Estimate {
		t.Errorf("slower speeds should take longer: %v <= %v", a.Stats.Estimate, b.Stats.Estimate)
	}
}

func TestPreview_Render(t *testing.T) {
	dir := t.TempDir()
	p := NewPreview(Options{RenderDir: dir})

	if _, err := p.Plot(context.Background(), &Request{Document: mustParse(t, squareSVG), Row: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "row-0007.png"))
	if err != nil {
		t.Fatalf("render not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("render is empty")
	}
}

func TestHTTP_Plot(t *testing.T) {
	var got plotRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			w.WriteHeader(http.StatusOK)
		case "/plot":
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode request: %v", err)
			}
			json.NewEncoder(w).Encode(plotResponse{
				PenDownInches: 12.5,
				PenUpInches:   3,
				EstimateMs:    1500,
				Halted:        true,
				Checkpoint:    "42",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p, err := NewHTTP(Options{URL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer p.Close()

	original := mustParse(t, squareSVG)
	res, err := p.Plot(context.Background(), &Request{
		Document:   mustParse(t, squareSVG),
		Original:   original,
		Row:        3,
		Seed:       1700000000.25,
		Checkpoint: "7",
		Params:     Params{SpeedPenDown: 30},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Row != 3 || got.Seed != 1700000000.25 || got.Checkpoint != "7" {
		t.Errorf("unexpected request: %+v", got)
	}
	if got.Params.SpeedPenDown != 30 {
		t.Errorf("params not forwarded: %+v", got.Params)
	}
	if got.Document == "" {
		t.Error("document not sent")
	}

	if res.Document != original {
		t.Error("expected original document back")
	}
	if res.Stats.PenDownInches != 12.5 || res.Stats.PenUpInches != 3 {
		t.Errorf("unexpected stats: %+v", res.Stats)
	}
	if res.Stats.Estimate != 1500*time.Millisecond {
		t.Errorf("unexpected estimate: %v", res.Stats.Estimate)
	}
	if !res.Halted || res.Checkpoint != "42" {
		t.Errorf("expected halted at checkpoint 42, got %v %q", res.Halted, res.Checkpoint)
	}
	if p.ButtonURL() != srv.URL+"/button" {
		t.Errorf("unexpected button url: %s", p.ButtonURL())
	}
}

func TestHTTP_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "carriage jammed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, _ := NewHTTP(Options{URL: srv.URL})

	if err := p.Open(context.Background()); !errors.Is(err, ErrDevice) {
		t.Errorf("expected ErrDevice, got %v", err)
	}

	_, err := p.Plot(context.Background(), &Request{Document: mustParse(t, squareSVG), Row: 1})
	if !errors.Is(err, ErrPlotFailed) {
		t.Errorf("expected ErrPlotFailed, got %v", err)
	}

	if _, err := NewHTTP(Options{}); !errors.Is(err, ErrDevice) {
		t.Errorf("expected ErrDevice for empty url, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	kinds := r.Kinds()
	if len(kinds) != 2 || kinds[0] != KindHTTP || kinds[1] != KindPreview {
		t.Errorf("unexpected kinds: %v", kinds)
	}

	p, err := r.New(KindPreview, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*Preview); !ok {
		t.Errorf("expected *Preview, got %T", p)
	}

	if _, err := r.New("pen-on-a-stick", Options{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}
