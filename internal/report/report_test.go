package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/atlasbio/occmap/internal/aggregate"
	"github.com/atlasbio/occmap/internal/feature"
)

func summaryCollection() *feature.Collection {
	col := feature.New(4326, []string{"STUSPS", aggregate.FieldRecords, aggregate.FieldRecordsSqrt})
	square := geom.Polygon{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}}
	col.Append(&feature.Feature{Geom: square, Attrs: map[string]any{
		"STUSPS":                   "KS",
		aggregate.FieldRecords:     4,
		aggregate.FieldRecordsSqrt: 2.0,
	}})
	col.Append(&feature.Feature{Geom: square, Attrs: map[string]any{
		"STUSPS":                   "NE",
		aggregate.FieldRecords:     9,
		aggregate.FieldRecordsSqrt: 3.0,
	}})
	return col
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.xlsx")
	require.NoError(t, WriteXLSX(summaryCollection(), "STUSPS", path))

	wb, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 1)

	sheet := wb.Sheets[0]
	assert.Equal(t, "State record counts", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "State", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Records", sheet.Rows[0].Cells[1].String())

	assert.Equal(t, "KS", sheet.Rows[1].Cells[0].String())
	records, err := sheet.Rows[1].Cells[1].Int()
	require.NoError(t, err)
	assert.Equal(t, 4, records)

	sqrt, err := sheet.Rows[2].Cells[2].Float()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, sqrt, 1e-9)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.csv")
	require.NoError(t, WriteCSV(summaryCollection(), "STUSPS", path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"State", "Records", "Records (sqrt)"}, rows[0])
	assert.Equal(t, []string{"KS", "4", "2.0000"}, rows[1])
	assert.Equal(t, []string{"NE", "9", "3.0000"}, rows[2])
}

func TestWriteCSV_UnwritablePath(t *testing.T) {
	err := WriteCSV(summaryCollection(), "STUSPS", filepath.Join(t.TempDir(), "missing", "counts.csv"))
	require.Error(t, err)
}
