package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/plotmerge/internal/document"
	"github.com/shaiso/plotmerge/internal/tabular"
)

// NewDataCmd создаёт группу команд для данных слияния.
func NewDataCmd(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage the merge data attached to a template",
	}

	cmd.AddCommand(
		newDataSetCmd(g),
		newDataShowCmd(g),
	)

	return cmd
}

func newDataSetCmd(g *Globals) *cobra.Command {
	var embed bool

	cmd := &cobra.Command{
		Use:   "set TEMPLATE DATA_FILE",
		Short: "Store the data file path (or its contents) in the template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := g.Output(cmd)
			templatePath, dataPath := args[0], args[1]

			doc, err := document.ParseFile(templatePath)
			if err != nil {
				return err
			}

			value, ds, err := dataValue(dataPath, embed)
			if err != nil {
				return err
			}
			doc.SetDataSource(value)

			dst := g.outputPath(templatePath)
			if err := doc.WriteFile(dst); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Data source set: %s (%d rows, tokens %s)", ds.Source(), ds.Count(), ds.TokenList()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&embed, "embed", false, "Embed the file contents instead of its path")

	return cmd
}

// dataValue проверяет файл данных и возвращает значение для узла MergeData.
func dataValue(path string, embed bool) (string, *tabular.DataSet, error) {
	if embed {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", tabular.ErrDataSource, err)
		}
		value := tabular.Normalize(raw)
		ds, err := tabular.LoadBytes([]byte(value), tabular.SourceEmbedded)
		if err != nil {
			return "", nil, err
		}
		return value, ds, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", nil, err
	}
	ds, err := tabular.LoadFile(abs)
	if err != nil {
		return "", nil, err
	}
	return abs, ds, nil
}

func newDataShowCmd(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show [TEMPLATE]",
		Short: "Show the columns and row count of the merge data",
		Long:  "Show the merge data of --data if given, otherwise the data stored in TEMPLATE.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := g.Output(cmd)

			var ds *tabular.DataSet
			var err error
			switch {
			case g.Data != "":
				ds, err = tabular.LoadFile(g.Data)
			case len(args) == 1:
				var doc *document.Document
				doc, err = document.ParseFile(args[0])
				if err != nil {
					return err
				}
				ds, err = dataLoader("")(doc)
			default:
				return fmt.Errorf("either TEMPLATE or --data is required")
			}
			if err != nil {
				return err
			}

			columns := ds.Columns()
			tokens := ds.Tokens()
			rows := make([][]string, len(columns))
			for i, c := range columns {
				rows[i] = []string{strconv.Itoa(i + 1), c, tokens[i]}
			}

			out.Success(fmt.Sprintf("%s: %d rows", ds.Source(), ds.Count()))
			out.Print([]string{"#", "COLUMN", "TOKEN"}, rows, dataInfo{
				Source:  ds.Source(),
				Rows:    ds.Count(),
				Columns: columns,
				Tokens:  tokens,
			})
			return nil
		},
	}
}

// dataInfo — описание данных в JSON-режиме.
type dataInfo struct {
	Source  string   `json:"source"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Tokens  []string `json:"tokens"`
}
