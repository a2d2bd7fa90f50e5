package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sqlio/sqlio/core"
)

var _ core.Formatter = (*Table)(nil)

// Table renders an indexed text table.
type Table struct{}

func NewTable() *Table {
	return &Table{}
}

func (tf *Table) Format(header core.Header, rows []core.Row, opts *core.FormatterOptions) ([]byte, error) {
	tableHeaders := table.Row{""}
	for _, k := range header {
		tableHeaders = append(tableHeaders, k)
	}

	index := 0
	if opts != nil {
		index = opts.ChunkStart
	}

	tableRows := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		indexedRow := table.Row{index + 1}
		for _, v := range row {
			indexedRow = append(indexedRow, cell(v))
		}
		tableRows = append(tableRows, indexedRow)
		index++
	}

	t := table.NewWriter()
	t.AppendHeader(tableHeaders)
	t.AppendRows(tableRows)
	t.AppendSeparator()
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false
	t.SuppressTrailingSpaces()

	return []byte(t.Render()), nil
}
