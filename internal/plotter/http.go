package plotter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/plotmerge/internal/domain"
)

// KindHTTP — имя plotter'а за HTTP-шлюзом устройства.
const KindHTTP = "http"

const (
	defaultPlotTimeout = 30 * time.Minute
	statusTimeout      = 5 * time.Second
)

// HTTP — plotter, который передаёт документ шлюзу устройства.
//
// Протокол шлюза:
//   - GET  {url}/status — 200, если устройство подключено
//   - POST {url}/plot   — печать одного документа (plotRequest → plotResponse)
//   - GET  {url}/button — состояние кнопки паузы (см. pause.HTTPButton)
type HTTP struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// plotRequest — тело POST /plot.
type plotRequest struct {
	Row        int     `json:"row"`
	Seed       float64 `json:"seed"`
	Checkpoint string  `json:"checkpoint,omitempty"`
	Params     Params  `json:"params"`
	Document   string  `json:"document"`
}

// plotResponse — ответ POST /plot.
type plotResponse struct {
	PenDownInches float64 `json:"pen_down_inches"`
	PenUpInches   float64 `json:"pen_up_inches"`
	EstimateMs    int64   `json:"estimate_ms"`
	Halted        bool    `json:"halted"`
	Checkpoint    string  `json:"checkpoint"`
}

// NewHTTP создаёт HTTP plotter.
func NewHTTP(opts Options) (*HTTP, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("%w: plotter url is required", ErrDevice)
	}

	timeout := defaultPlotTimeout
	if opts.TimeoutSec > 0 {
		timeout = time.Duration(opts.TimeoutSec * float64(time.Second))
	}

	return &HTTP{
		baseURL: strings.TrimRight(opts.URL, "/"),
		timeout: timeout,
		client:  &http.Client{},
	}, nil
}

// ButtonURL возвращает адрес опроса кнопки паузы.
func (p *HTTP) ButtonURL() string {
	return p.baseURL + "/button"
}

// Open проверяет, что шлюз отвечает и устройство подключено.
func (p *HTTP) Open(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/status", nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrDevice, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDevice, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status HTTP %d", ErrDevice, resp.StatusCode)
	}
	return nil
}

// Plot отправляет документ на печать и ждёт завершения.
func (p *HTTP) Plot(ctx context.Context, req *Request) (*Result, error) {
	data, err := req.Document.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: row %d: %v", ErrPlotFailed, req.Row, err)
	}

	body, err := json.Marshal(plotRequest{
		Row:        req.Row,
		Seed:       req.Seed,
		Checkpoint: req.Checkpoint,
		Params:     req.Params,
		Document:   string(data),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrPlotFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/plot", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrPlotFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: row %d: %v", ErrPlotFailed, req.Row, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrPlotFailed, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: row %d: HTTP %d: %s",
			ErrPlotFailed, req.Row, resp.StatusCode, truncate(string(respBody), 200))
	}

	var out plotResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrPlotFailed, err)
	}

	return &Result{
		Document: returned(req),
		Stats: domain.TravelStats{
			PenDownInches: out.PenDownInches,
			PenUpInches:   out.PenUpInches,
			Estimate:      time.Duration(out.EstimateMs) * time.Millisecond,
		},
		Halted:     out.Halted,
		Checkpoint: out.Checkpoint,
	}, nil
}

// Close освобождает соединения с шлюзом.
func (p *HTTP) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
