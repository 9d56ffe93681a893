package dataprocessing

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"camelsrating/internal/camels"
	apperrors "camelsrating/internal/errors"
)

var fy2023 = time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

// sampleRow returns a data row in camels.Columns order
func sampleRow(name string, date interface{}) []interface{} {
	row := []interface{}{name, date}
	for i := range camels.Fields() {
		row = append(row, float64(100+i))
	}
	return row
}

func writeWorkbook(t *testing.T, sheet string, rows ...[]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := make([]interface{}, 0, camels.NumFields+2)
	for _, c := range camels.Columns() {
		header = append(header, c)
	}
	all := append([][]interface{}{header}, rows...)

	for r, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "institutions.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseWorkbook(t *testing.T) {
	path := writeWorkbook(t, DefaultSheet,
		sampleRow("Alpha Bank", "2023-12-31"),
		sampleRow("Beta Bank", fy2023),
	)

	obs, err := ParseWorkbook(path, "")
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "Alpha Bank", obs[0].Institution)
	assert.True(t, obs[0].Date.Equal(fy2023))
	assert.True(t, obs[1].Date.Equal(fy2023), "serial dates are converted")
	assert.Equal(t, camels.Some(100), obs[0].TotalProvisions)
	assert.Equal(t, camels.Some(119), obs[0].LiquidityCoverageRaw)
}

func TestParseWorkbookSheetSelection(t *testing.T) {
	t.Run("fallback to sheet with header", func(t *testing.T) {
		path := writeWorkbook(t, "Data 2023", sampleRow("Alpha", "2023-12-31"))
		obs, err := ParseWorkbook(path, "")
		require.NoError(t, err)
		assert.Len(t, obs, 1)
	})

	t.Run("named sheet ignores case", func(t *testing.T) {
		path := writeWorkbook(t, "Banks", sampleRow("Alpha", "2023-12-31"))
		obs, err := ParseWorkbook(path, "banks")
		require.NoError(t, err)
		assert.Len(t, obs, 1)
	})

	t.Run("named sheet missing", func(t *testing.T) {
		path := writeWorkbook(t, "Banks", sampleRow("Alpha", "2023-12-31"))
		_, err := ParseWorkbook(path, "Other")
		require.Error(t, err)
		assert.ErrorIs(t, err, camels.ErrInvalidInput)
		assert.Contains(t, err.Error(), "Banks")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseWorkbook(filepath.Join(t.TempDir(), "none.xlsx"), "")
		assert.Error(t, err)
	})
}

func TestReadWorkbook(t *testing.T) {
	path := writeWorkbook(t, DefaultSheet, sampleRow("Alpha", "2023-12-31"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	obs, err := ReadWorkbook(bytes.NewReader(data), DefaultSheet)
	require.NoError(t, err)
	assert.Len(t, obs, 1)
}

func TestUnreadableInput(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(broken, []byte("not a zip archive"), 0644))

	tests := []struct {
		name string
		load func() error
	}{
		{"workbook file", func() error { _, err := ParseWorkbook(broken, ""); return err }},
		{"workbook stream", func() error { _, err := ReadWorkbook(strings.NewReader("not a zip archive"), ""); return err }},
		{"csv", func() error { _, err := ParseCSV(strings.NewReader("a,\"b\n")); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.load()
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrTypeParsing, appErr.Type)
		})
	}
}

func TestParseRows(t *testing.T) {
	header := camels.Columns()
	row := func(name, date string, cells ...string) []string {
		out := []string{name, date}
		for i := 0; i < camels.NumFields; i++ {
			if i < len(cells) {
				out = append(out, cells[i])
			} else {
				out = append(out, "1")
			}
		}
		return out
	}

	t.Run("title rows above header and blank rows", func(t *testing.T) {
		rows := [][]string{
			{"CAMELS input"},
			{},
			header,
			row("Alpha", "2023-12-31", "1250", "", "-5", "0.12"),
			{"", "  "},
			row("Beta", "12/31/2023"),
		}
		obs, err := ParseRows(rows)
		require.NoError(t, err)
		require.Len(t, obs, 2)

		assert.Equal(t, camels.Some(1250), obs[0].TotalProvisions)
		assert.False(t, obs[0].TotalGrossLoans.Valid)
		assert.Equal(t, camels.Some(-5), obs[0].Tier1Capital)
		assert.InDelta(t, 0.12, obs[0].RWA.Float, 1e-12)
		assert.True(t, obs[1].Date.Equal(fy2023))
	})

	t.Run("columns in any order", func(t *testing.T) {
		reversed := make([]string, len(header))
		for i, h := range header {
			reversed[len(header)-1-i] = strings.ToUpper(h)
		}
		data := row("Alpha", "2023-12-31")
		values := make([]string, len(data))
		for i, v := range data {
			values[len(data)-1-i] = v
		}
		obs, err := ParseRows([][]string{reversed, values})
		require.NoError(t, err)
		assert.Equal(t, "Alpha", obs[0].Institution)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := ParseRows([][]string{header[:len(header)-1], row("Alpha", "2023-12-31")})
		var ve *camels.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "header", ve.Field)
		assert.Contains(t, ve.Message, "Liquidity Coverage Ratio (LCR)")
	})

	t.Run("no header", func(t *testing.T) {
		_, err := ParseRows([][]string{{"a", "b"}})
		assert.ErrorIs(t, err, camels.ErrInvalidInput)
	})

	t.Run("non-numeric cell", func(t *testing.T) {
		_, err := ParseRows([][]string{header, row("Alpha", "2023-12-31"), row("Beta", "2023-12-31", "abc")})
		require.ErrorIs(t, err, camels.ErrInvalidInput)
		var ve *camels.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, 3, ve.Row)
		assert.Equal(t, "Total Provisions", ve.Field)
		assert.Equal(t, "abc", ve.Value)
	})

	t.Run("formatted number is not coerced", func(t *testing.T) {
		_, err := ParseRows([][]string{header, row("Alpha", "2023-12-31", "12%")})
		require.ErrorIs(t, err, camels.ErrInvalidInput)
		var ve *camels.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Total Provisions", ve.Field)
		assert.Equal(t, "12%", ve.Value)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := ParseRows([][]string{header, row("Alpha", "end of year")})
		var ve *camels.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, camels.ColumnDate, ve.Field)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := ParseRows([][]string{header})
		assert.ErrorIs(t, err, camels.ErrNoObservations)
	})
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    camels.Value
		wantErr bool
	}{
		{"42", camels.Some(42), false},
		{" 1000.5 ", camels.Some(1000.5), false},
		{"-3", camels.Some(-3), false},
		{"0.12", camels.Some(0.12), false},
		{"1e3", camels.Some(1000), false},
		{"1,000.5", camels.Missing, true},
		{"(2.5)", camels.Missing, true},
		{"50%", camels.Missing, true},
		{"", camels.Missing, false},
		{"N/A", camels.Missing, false},
		{"#DIV/0!", camels.Missing, false},
		{"-", camels.Missing, false},
		{"twelve", camels.Missing, true},
		{"Inf", camels.Missing, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Valid, got.Valid)
			assert.InDelta(t, tt.want.Float, got.Float, 1e-12)
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2023-12-31", "2023-12-31 00:00:00", "2023/12/31", "12/31/2023", "31.12.2023", "45291"} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDate(in)
			require.NoError(t, err)
			assert.True(t, got.Equal(fy2023), "got %s", got)
		})
	}

	_, err := ParseDate("")
	assert.Error(t, err)
	_, err = ParseDate("-4")
	assert.Error(t, err)
}

func TestParseCSV(t *testing.T) {
	var b strings.Builder
	b.WriteString("\uFEFF" + strings.Join(camels.Columns(), ",") + "\n")
	b.WriteString("Alpha,2023-12-31")
	for i := 0; i < camels.NumFields; i++ {
		b.WriteString(",7")
	}
	b.WriteString("\n")

	obs, err := ParseCSV(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "Alpha", obs[0].Institution)
	assert.Equal(t, camels.Some(7), obs[0].NetIncome)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "input.csv")
	line := "Alpha,2023-12-31" + strings.Repeat(",1", camels.NumFields)
	require.NoError(t, os.WriteFile(csvPath, []byte(strings.Join(camels.Columns(), ",")+"\n"+line+"\n"), 0644))

	obs, err := Load(csvPath, "")
	require.NoError(t, err)
	assert.Len(t, obs, 1)

	_, err = Load(filepath.Join(dir, "input.txt"), "")
	assert.Error(t, err)
}

func TestStringCells(t *testing.T) {
	rows := stringCells([][]interface{}{
		{"Alpha", 45291.0, nil, true, 12},
	})
	assert.Equal(t, [][]string{{"Alpha", "45291", "", "true", "12"}}, rows)
}
