package occurrence

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `species,decimalLatitude,decimalLongitude,basisOfRecord
Vulpes vulpes,39.5,-98.2,HUMAN_OBSERVATION
Vulpes vulpes,,-97.1,HUMAN_OBSERVATION
Lynx rufus,41.0,-100.3,PRESERVED_SPECIMEN
Lynx rufus,not-a-number,-99.0,HUMAN_OBSERVATION
Canis latrans,36.7,-95.8,HUMAN_OBSERVATION
`

func TestRead_DropsRowsWithoutCoordinates(t *testing.T) {
	table, err := Read(strings.NewReader(sampleCSV), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"species", "decimalLatitude", "decimalLongitude", "basisOfRecord"}, table.Columns)
	require.Len(t, table.Rows, 3)

	for _, row := range table.Rows {
		assert.True(t, numeric(row["decimalLatitude"]), "lat %q", row["decimalLatitude"])
		assert.True(t, numeric(row["decimalLongitude"]), "lon %q", row["decimalLongitude"])
	}
	assert.Equal(t, "Vulpes vulpes", table.Rows[0]["species"])
	assert.Equal(t, "Canis latrans", table.Rows[2]["species"])
}

func TestRead_MissingRequiredColumns(t *testing.T) {
	_, err := Read(strings.NewReader("species,lat\nfox,1.0\n"), Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrParse))
}

func TestRead_InconsistentColumnCount(t *testing.T) {
	bad := "species,decimalLatitude,decimalLongitude\nfox,39.5\n"
	_, err := Read(strings.NewReader(bad), Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrParse))
	assert.True(t, errors.Is(err, csv.ErrFieldCount))
}

func TestRead_TabDelimited(t *testing.T) {
	tsv := "species\tdecimalLatitude\tdecimalLongitude\nfox\t39.5\t-98.2\n"
	table, err := Read(strings.NewReader(tsv), Options{Delimiter: '\t'})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "fox", table.Rows[0]["species"])
}

func TestRead_EmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""), Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrParse))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrLoad))
	assert.False(t, eris.Is(err, ErrParse))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}
