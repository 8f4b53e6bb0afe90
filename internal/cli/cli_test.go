package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/plotmerge/internal/config"
	"github.com/shaiso/plotmerge/internal/domain"
	"github.com/shaiso/plotmerge/internal/orchestrator"
	"github.com/shaiso/plotmerge/internal/plotter"
	"github.com/shaiso/plotmerge/internal/tabular"
)

const letterSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="200" viewBox="0 0 200 200">
<rect x="96" y="0" width="96" height="96" fill="none" stroke="black"/>
<text x="10" y="150">Dear {{name}}</text>
</svg>`

const people = "name,city\nAda,Oslo\nBob,Rome\nCyd,Lima\n"

// --- Helpers ---

// newTestRoot собирает корневую команду так же, как cmd/plotmerge.
func newTestRoot() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var g Globals
	root := &cobra.Command{
		Use:           "plotmerge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.Bind(root)
	root.AddCommand(
		NewPlotCmd(&g),
		NewSingleCmd(&g),
		NewResumeCmd(&g),
		NewQueryCmd(&g),
		NewDataCmd(&g),
		NewHistoryCmd(&g),
		NewPauseCmd(&g),
	)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	return root, &stdout, &stderr
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root, stdout, stderr := newTestRoot()
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// workspace создаёт шаблон и файл данных, отключает внешнюю инфраструктуру.
func workspace(t *testing.T) (templatePath, dataPath string) {
	t.Helper()
	t.Setenv("DB_URL", "")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("PLOTMERGE_METRICS_ADDR", "")
	t.Setenv("PLOTTER_URL", "")

	dir := t.TempDir()
	templatePath = filepath.Join(dir, "letter.svg")
	dataPath = filepath.Join(dir, "people.csv")

	if err := os.WriteFile(templatePath, []byte(letterSVG), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dataPath, []byte(people), 0o644); err != nil {
		t.Fatal(err)
	}
	return templatePath, dataPath
}

// fakeDevice — HTTP-шлюз устройства, запоминает напечатанные строки.
type fakeDevice struct {
	mu   sync.Mutex
	rows []int
}

func (d *fakeDevice) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			w.WriteHeader(http.StatusOK)
		case "/button":
			json.NewEncoder(w).Encode(map[string]bool{"pressed": false})
		case "/plot":
			var req struct {
				Row      int    `json:"row"`
				Document string `json:"document"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode plot request: %v", err)
			}
			if strings.Contains(req.Document, "{{name}}") {
				t.Errorf("row %d: document not merged", req.Row)
			}
			d.mu.Lock()
			d.rows = append(d.rows, req.Row)
			d.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{"pen_down_inches": 4, "pen_up_inches": 2})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// --- Data Tests ---

func TestDataSet_PathAndShow(t *testing.T) {
	tpl, data := workspace(t)

	_, stderr, err := execute(t, "data", "set", tpl, data)
	if err != nil {
		t.Fatalf("data set: %v", err)
	}
	if !strings.Contains(stderr, "3 rows") {
		t.Errorf("unexpected message: %q", stderr)
	}

	stdout, _, err := execute(t, "--json", "data", "show", tpl)
	if err != nil {
		t.Fatalf("data show: %v", err)
	}

	var info dataInfo
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if info.Source != data || info.Rows != 3 {
		t.Errorf("unexpected data info: %+v", info)
	}
	if strings.Join(info.Tokens, ",") != "{{name}},{{city}}" {
		t.Errorf("unexpected tokens: %v", info.Tokens)
	}
}

func TestDataSet_Embed(t *testing.T) {
	tpl, data := workspace(t)

	if _, _, err := execute(t, "data", "set", "--embed", tpl, data); err != nil {
		t.Fatalf("data set: %v", err)
	}
	// Данные в шаблоне, файл больше не нужен
	if err := os.Remove(data); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execute(t, "data", "show", tpl)
	if err != nil {
		t.Fatalf("data show: %v", err)
	}
	if !strings.Contains(stdout, "{{city}}") {
		t.Errorf("expected token table, got:\n%s", stdout)
	}
}

func TestDataShow_Errors(t *testing.T) {
	tpl, _ := workspace(t)

	if _, _, err := execute(t, "data", "show"); err == nil {
		t.Error("expected error without template or --data")
	}
	if _, _, err := execute(t, "data", "show", tpl); !errors.Is(err, tabular.ErrDataSource) {
		t.Errorf("expected ErrDataSource, got %v", err)
	}
}

// --- Merge Tests ---

func TestPlot_Preview(t *testing.T) {
	tpl, data := workspace(t)

	stdout, _, err := execute(t, "--preview", "--data", data, "plot", "--delay", "2", tpl)
	if err != nil {
		t.Fatalf("plot: %v", err)
	}

	for _, want := range []string{
		"Total rows to merge and plot: 3.",
		" including 4 s of delays between pages.",
		"Job complete.",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report missing %q:\n%s", want, stdout)
		}
	}

	// Preview не сохраняет прогресс в шаблон
	raw, err := os.ReadFile(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "WCB") {
		t.Error("preview should not write resume data")
	}
}

func TestPlot_NothingToPlot(t *testing.T) {
	tpl, data := workspace(t)

	stdout, _, err := execute(t, "--preview", "--data", data, "plot", "--first", "7", tpl)
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if !strings.Contains(stdout, "No merge data found in specified range of rows.") {
		t.Errorf("unexpected report:\n%s", stdout)
	}
}

func TestPlot_DeviceThenQuery(t *testing.T) {
	tpl, data := workspace(t)

	dev := &fakeDevice{}
	srv := httptest.NewServer(dev.handler(t))
	defer srv.Close()
	t.Setenv("PLOTTER_URL", srv.URL)

	out := filepath.Join(filepath.Dir(tpl), "plotted.svg")
	if _, _, err := execute(t, "data", "set", tpl, data); err != nil {
		t.Fatalf("data set: %v", err)
	}

	stdout, _, err := execute(t, "--plotter", plotter.KindHTTP, "--output", out,
		"plot", "--first", "2", "--delay", "0", tpl)
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if len(dev.rows) != 2 || dev.rows[0] != 2 || dev.rows[1] != 3 {
		t.Errorf("expected rows [2 3], got %v", dev.rows)
	}
	if !strings.Contains(stdout, "Total rows plotted: 2.") {
		t.Errorf("unexpected report:\n%s", stdout)
	}

	stdout, _, err = execute(t, "query", out)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.Contains(stdout, "Last row merged: Row number 3") {
		t.Errorf("unexpected query report:\n%s", stdout)
	}

	// Последняя строка данных напечатана: продолжать нечего
	stdout, _, err = execute(t, "--plotter", plotter.KindHTTP, "resume", out)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !strings.Contains(stdout, "No merge data found in specified range of rows.") {
		t.Errorf("unexpected resume report:\n%s", stdout)
	}
}

func TestSingle_Row(t *testing.T) {
	tpl, data := workspace(t)

	stdout, _, err := execute(t, "--preview", "--json", "--data", data, "single", "--row", "2", tpl)
	if err != nil {
		t.Fatalf("single: %v", err)
	}

	var rep struct {
		Status string `json:"status"`
		Job    struct {
			FirstRow    int `json:"first_row"`
			RowsPlotted int `json:"rows_plotted"`
		} `json:"job"`
	}
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout)
	}
	if rep.Status != "complete" || rep.Job.FirstRow != 2 || rep.Job.RowsPlotted != 1 {
		t.Errorf("unexpected report: %+v", rep)
	}
}

func TestSingle_RowAndAdvanceExclusive(t *testing.T) {
	tpl, _ := workspace(t)

	if _, _, err := execute(t, "--preview", "single", "--row", "2", "--advance", tpl); err == nil {
		t.Error("expected error for --row with --advance")
	}
}

func TestResume_WithoutResumeData(t *testing.T) {
	tpl, data := workspace(t)

	_, _, err := execute(t, "--preview", "--data", data, "resume", tpl)
	if !errors.Is(err, orchestrator.ErrNoResumeData) {
		t.Errorf("expected ErrNoResumeData, got %v", err)
	}
}

// --- Config Tests ---

func TestGlobals_Config(t *testing.T) {
	workspace(t)

	tests := []struct {
		name       string
		args       []string
		wantKind   string
		reportTime bool
		wantErr    bool
	}{
		{name: "defaults", args: nil, wantKind: plotter.KindPreview, reportTime: true},
		{name: "no report time", args: []string{"--report-time=false"}, wantKind: plotter.KindPreview, reportTime: false},
		{name: "preview wins", args: []string{"--plotter", "http", "--preview"}, wantKind: plotter.KindPreview, reportTime: true},
		{name: "http without url", args: []string{"--plotter", "http"}, wantErr: true},
		{name: "unknown kind", args: []string{"--plotter", "laser"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Globals
			cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
			g.Bind(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			cfg, err := g.Config(cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Config() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.Plotter.Kind != tt.wantKind || cfg.Merge.ReportTime != tt.reportTime {
				t.Errorf("unexpected config: kind=%s report_time=%v", cfg.Plotter.Kind, cfg.Merge.ReportTime)
			}
		})
	}
}

func TestHistory_RequiresDB(t *testing.T) {
	workspace(t)

	if _, _, err := execute(t, "history"); err == nil || !strings.Contains(err.Error(), "DB_URL") {
		t.Errorf("expected DB_URL error, got %v", err)
	}
}

func TestOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(false, &buf, &buf)
	out.Print([]string{"ID", "STATE"}, [][]string{{"1", "DONE"}}, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, separator and row, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "--") || !strings.Contains(lines[2], "DONE") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
}

func TestHistoryRows(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	done := domain.NewJob(domain.ModeContinuous, start)
	done.FirstRow, done.LastRow, done.RowsPlotted = 1, 4, 4
	done.Finish("", start.Add(95*time.Second))

	running := domain.NewJob(domain.ModeSingle, start)

	rows := historyRows([]domain.Job{*done, *running})
	if len(rows) != 2 || len(rows[0]) != len(historyHeaders) {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if rows[0][2] != "DONE" || rows[0][3] != "4" || rows[0][4] != "1-4" || rows[0][6] != "1m35s" {
		t.Errorf("unexpected finished row: %v", rows[0])
	}
	if rows[1][6] != "-" {
		t.Errorf("unfinished job should have no elapsed time, got %q", rows[1][6])
	}
}

func TestSession_CloseOnce(t *testing.T) {
	s := newSession(config.Config{}, slog.Default())

	var order []string
	s.onClose(func() { order = append(order, "pool") })
	s.onClose(func() { order = append(order, "keyboard") })

	// runJob закрывает сессию перед отчётом, а defer — ещё раз
	s.close()
	s.close()

	if strings.Join(order, ",") != "keyboard,pool" {
		t.Errorf("expected closers once in reverse order, got %v", order)
	}
}
