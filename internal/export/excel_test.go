package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestEncode_RoundTrip(t *testing.T) {
	sheets := []Sheet{
		{
			Name: "Overview",
			Rows: [][]any{
				{"Technician", "Repariert fertig", "Total"},
				{"Osman", 3, 3},
				{"Shady", 0, 0},
			},
			HeaderRows: []int{1},
			FreezeRows: 1,
		},
		{
			Name: "Identifier List",
			Rows: [][]any{
				{"ID", "Identifier"},
				{1, "356938035643809"},
				{},
				{"TOTAL", nil},
			},
			HeaderRows: []int{1, 3},
		},
	}

	b, err := Encode(sheets)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Overview", "Identifier List"}, f.GetSheetList())

	rows, err := f.GetRows("Overview")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Technician", "Repariert fertig", "Total"},
		{"Osman", "3", "3"},
		{"Shady", "0", "0"},
	}, rows)

	v, err := f.GetCellValue("Identifier List", "B2")
	require.NoError(t, err)
	assert.Equal(t, "356938035643809", v)

	v, err = f.GetCellValue("Identifier List", "A4")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", v)
}

func TestEncode_KeepsSheetNamedSheet1(t *testing.T) {
	b, err := Encode([]Sheet{{Name: "Sheet1", Rows: [][]any{{"a"}}}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}

func TestEncode_NoSheets(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 3, 5, 14, 15, 16, 0, time.UTC)
	assert.Equal(t, "Technician_Report_20250305_141516.xlsx", Filename("Technician_Report", now))
}
