package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxColumnWidth wraps long titles, funny examples and push errors.
const maxColumnWidth = 48

// tableColumn describes one column of CLI table output.
type tableColumn struct {
	Header string
	// Numeric columns are right-aligned and never wrapped.
	Numeric bool
}

func textColumn(header string) tableColumn { return tableColumn{Header: header} }

func numberColumn(header string) tableColumn { return tableColumn{Header: header, Numeric: true} }

// renderTable draws rows under columns. Short rows are padded with blanks.
func renderTable(columns []tableColumn, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.Header
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			Align:            text.AlignLeft,
			AlignHeader:      text.AlignLeft,
			WidthMax:         maxColumnWidth,
			WidthMaxEnforcer: text.WrapSoft,
		}
		if c.Numeric {
			configs[i].Align = text.AlignRight
			configs[i].WidthMax = 0
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
