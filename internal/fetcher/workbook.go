package fetcher

import (
	"bytes"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leaderboard-cli/internal/sheet"
)

// Sheet is one worksheet decoded into header-keyed rows.
type Sheet struct {
	Name string
	Rows []sheet.Row
}

// Workbook is a decoded leaderboard workbook, sheets in file order.
type Workbook struct {
	Sheets []Sheet
}

// FirstSheet returns the first worksheet, or nil for an empty workbook.
func (w *Workbook) FirstSheet() *Sheet {
	if w == nil || len(w.Sheets) == 0 {
		return nil
	}
	return &w.Sheets[0]
}

// SheetByName returns the worksheet with the exact name, or nil.
func (w *Workbook) SheetByName(name string) *Sheet {
	if w == nil {
		return nil
	}
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i]
		}
	}
	return nil
}

// ReadWorkbook decodes an XLSX stream. In each sheet the first non-empty
// row is the header; later rows become sheet.Rows keyed by header text.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: read")
	}
	return ParseWorkbook(data)
}

// ParseWorkbook decodes XLSX bytes.
func ParseWorkbook(data []byte) (*Workbook, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, eris.New("xlsx: empty workbook")
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open binary")
	}

	wb := &Workbook{Sheets: make([]Sheet, 0, len(f.Sheets))}
	for _, s := range f.Sheets {
		wb.Sheets = append(wb.Sheets, Sheet{Name: s.Name, Rows: sheetRows(s)})
	}
	return wb, nil
}

func sheetRows(s *xlsx.Sheet) []sheet.Row {
	rows := []sheet.Row{}
	var header []string
	for _, row := range s.Rows {
		if row == nil {
			continue
		}
		if header == nil {
			header = headerCells(row)
			continue
		}

		var fields []sheet.Field
		for j, cell := range row.Cells {
			if j >= len(header) || header[j] == "" {
				continue
			}
			if v := cellValue(cell); !v.IsEmpty() {
				fields = append(fields, sheet.F(header[j], v))
			}
		}
		if len(fields) > 0 {
			rows = append(rows, sheet.NewRow(fields...))
		}
	}
	return rows
}

// headerCells returns the header names of row, or nil when the row is blank.
func headerCells(row *xlsx.Row) []string {
	names := make([]string, len(row.Cells))
	blank := true
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		name := cell.String()
		if strings.TrimSpace(name) == "" {
			continue
		}
		names[j] = name
		blank = false
	}
	if blank {
		return nil
	}
	return names
}

// cellValue keeps numbers numeric. Date-formatted cells stay serial numbers.
func cellValue(cell *xlsx.Cell) sheet.Value {
	if cell == nil {
		return sheet.Empty()
	}
	switch cell.Type() {
	case xlsx.CellTypeNumeric, xlsx.CellTypeDate:
		if cell.Value == "" {
			return sheet.Empty()
		}
		n, err := cell.Float()
		if err != nil {
			return sheet.String(cell.Value)
		}
		return sheet.Number(n)
	case xlsx.CellTypeBool:
		if cell.Bool() {
			return sheet.String("true")
		}
		return sheet.String("false")
	default:
		if cell.Value == "" {
			return sheet.Empty()
		}
		return sheet.String(cell.Value)
	}
}
