package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"gopkg.in/guregu/null.v3"

	"github.com/inodb/vibe-isoform/internal/table"
)

// readXLSX reads the first sheet of an Office Open XML workbook. Cells are
// read as stored, ignoring number formats.
func readXLSX(path string) (*table.Relation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromGrid(rows)
}

// readXLS reads the first sheet of a legacy BIFF workbook.
func readXLS(path string) (*table.Relation, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("sheet 0 is unreadable")
	}

	var rows [][]string
	for rowID := 0; rowID <= int(sheet.MaxRow); rowID++ {
		row := xlsRow(sheet, rowID)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		width := row.LastCol()
		switch {
		case width == 0 && len(rows) == 0:
			width = xlsMaxColumns
		case len(rows) > 0 && width < len(rows[0]):
			width = len(rows[0])
		}
		cells := make([]string, width)
		for colID := range cells {
			cells[colID] = row.Col(colID)
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		rows = append(rows, cells)
	}
	return fromGrid(rows)
}

// xlsMaxColumns is the BIFF8 column limit.
const xlsMaxColumns = 256

// xlsRow returns row i of sheet, or nil when the sheet has no record for it.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// fromGrid builds a relation from a header row followed by data rows.
// Short rows are padded with empty cells, which become nulls. A column is
// numeric when it has at least one value and every value parses as a float.
func fromGrid(rows [][]string) (*table.Relation, error) {
	if len(rows) == 0 {
		return nil, errors.New("sheet is empty")
	}

	header := rows[0]
	width := len(header)
	for width > 0 && strings.TrimSpace(header[width-1]) == "" {
		width--
	}
	if width == 0 {
		return nil, errors.New("sheet has no header row")
	}

	data := rows[1:]
	// Trailing blank rows are formatting, not data.
	for len(data) > 0 && blankRow(data[len(data)-1]) {
		data = data[:len(data)-1]
	}

	rel := table.New()
	for j := 0; j < width; j++ {
		name := strings.TrimSpace(header[j])
		if name == "" {
			name = fmt.Sprintf("column_%d", j+1)
		}

		raw := make([]string, len(data))
		for i, r := range data {
			if j < len(r) {
				raw[i] = strings.TrimSpace(r[j])
			}
		}

		if err := rel.AddColumn(inferColumn(name, raw)); err != nil {
			return nil, err
		}
	}
	return rel, nil
}

func inferColumn(name string, raw []string) *table.Column {
	nums := make([]null.Float, len(raw))
	seen := false
	numeric := true
	for i, s := range raw {
		if s == "" {
			continue
		}
		seen = true
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			numeric = false
			break
		}
		nums[i] = null.FloatFrom(v)
	}
	if seen && numeric {
		return &table.Column{Name: name, Kind: table.Numeric, Num: nums}
	}

	text := make([]null.String, len(raw))
	for i, s := range raw {
		if s != "" {
			text[i] = null.StringFrom(s)
		}
	}
	return &table.Column{Name: name, Kind: table.Text, Text: text}
}

func blankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
