package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/plotmerge/internal/config"
	"github.com/shaiso/plotmerge/internal/plotter"
)

// Globals — значения persistent-флагов корневой команды.
type Globals struct {
	ConfigPath  string
	JSON        bool
	OutputPath  string
	Preview     bool
	ReportTime  bool
	MetricsAddr string
	Data        string
	Plotter     string
}

// Bind регистрирует persistent-флаги на корневой команде.
func (g *Globals) Bind(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "YAML config file")
	flags.BoolVar(&g.JSON, "json", false, "Output in JSON format")
	flags.StringVarP(&g.OutputPath, "output", "o", "", "Where to save the plotted document (default: the template itself)")
	flags.BoolVar(&g.Preview, "preview", false, "Simulate plotting without a device")
	flags.BoolVar(&g.ReportTime, "report-time", true, "Report elapsed time and travel distance")
	flags.StringVar(&g.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.StringVar(&g.Data, "data", "", "Tabular data file (overrides the one stored in the document)")
	flags.StringVar(&g.Plotter, "plotter", "", "Plotter kind: "+strings.Join(plotter.NewRegistry().Kinds(), ", "))
}

// Output создаёт Output по флагу --json в потоки команды.
func (g *Globals) Output(cmd *cobra.Command) *Output {
	return NewOutput(g.JSON, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// Config собирает конфигурацию: файл и окружение, затем явно заданные флаги.
func (g *Globals) Config(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("plotter") {
		cfg.Plotter.Kind = g.Plotter
	}
	if g.Preview {
		cfg.Plotter.Kind = plotter.KindPreview
	}
	if flags.Changed("report-time") {
		cfg.Merge.ReportTime = g.ReportTime
	}
	if g.MetricsAddr != "" {
		cfg.MetricsAddr = g.MetricsAddr
	}
	if g.Data != "" {
		cfg.Merge.Data = g.Data
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// outputPath возвращает путь сохранения документа для шаблона.
func (g *Globals) outputPath(templatePath string) string {
	if g.OutputPath != "" {
		return g.OutputPath
	}
	return templatePath
}
