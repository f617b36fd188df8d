// Package export renders tabular report sheets as .xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is one worksheet: a name and its rows of cell values.
type Sheet struct {
	Name string
	Rows [][]any
	// HeaderRows are 1-based row numbers rendered with the header style.
	HeaderRows []int
	// FreezeRows keeps the first n rows visible while scrolling.
	FreezeRows int
}

const (
	minColWidth = 10
	maxColWidth = 50
)

// Encode writes sheets into a workbook in the given order.
func Encode(sheets []Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets to export")
	}

	f := excelize.NewFile()
	// WriteTo needs the file open, so Close is called explicitly below.

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheets {
		index, err := f.NewSheet(sheet.Name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %q: %w", sheet.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}
		if err := writeSheet(f, sheet, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}

	// The default sheet is only removed once another sheet exists.
	if sheets[0].Name != "Sheet1" && !hasSheet(sheets, "Sheet1") {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	widths := map[int]int{}
	for r, row := range sheet.Rows {
		for c, value := range row {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s!%s: %w", sheet.Name, cell, err)
			}
			// Titles in column A span the row visually; they don't size it.
			if len(row) > 1 {
				if w := utf8.RuneCountInString(fmt.Sprint(value)) + 2; w > widths[c] {
					widths[c] = w
				}
			}
		}
	}

	for _, r := range sheet.HeaderRows {
		if r < 1 || r > len(sheet.Rows) || len(sheet.Rows[r-1]) == 0 {
			continue
		}
		first, _ := excelize.CoordinatesToCellName(1, r)
		last, _ := excelize.CoordinatesToCellName(len(sheet.Rows[r-1]), r)
		if err := f.SetCellStyle(sheet.Name, first, last, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet.Name, col, col, float64(clampWidth(w))); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if sheet.FreezeRows > 0 {
		topLeft, _ := excelize.CoordinatesToCellName(1, sheet.FreezeRows+1)
		if err := f.SetPanes(sheet.Name, &excelize.Panes{
			Freeze:      true,
			Split:       false,
			XSplit:      0,
			YSplit:      sheet.FreezeRows,
			TopLeftCell: topLeft,
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze panes: %w", err)
		}
	}
	return nil
}

// Filename returns prefix_YYYYMMDD_HHmmss.xlsx.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, now.Format("20060102_150405"))
}

func clampWidth(w int) int {
	if w < minColWidth {
		return minColWidth
	}
	if w > maxColWidth {
		return maxColWidth
	}
	return w
}

func hasSheet(sheets []Sheet, name string) bool {
	for _, s := range sheets {
		if s.Name == name {
			return true
		}
	}
	return false
}
