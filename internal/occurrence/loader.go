// Package occurrence parses delimited species-occurrence files and
// converts their coordinate columns into point features.
package occurrence

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atlasbio/occmap/internal/errs"
)

// ErrLoad indicates the occurrence file could not be opened.
var ErrLoad = eris.New("occurrence: load error")

// ErrParse indicates structurally invalid tabular input.
var ErrParse = eris.New("occurrence: parse error")

// Options configures the occurrence file parser.
type Options struct {
	Delimiter rune   // default ','
	LatColumn string // default "decimalLatitude"
	LonColumn string // default "decimalLongitude"
}

func (o *Options) setDefaults() {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.LatColumn == "" {
		o.LatColumn = "decimalLatitude"
	}
	if o.LonColumn == "" {
		o.LonColumn = "decimalLongitude"
	}
}

// Table holds parsed occurrence records in column order.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// Load reads a delimited occurrence file. The first row is the header.
// Rows whose latitude or longitude column is missing or non-numeric are
// dropped and counted, never returned. An unreadable file fails with
// ErrLoad; structural problems (inconsistent column counts, missing
// header) fail with ErrParse.
func Load(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrapf(ErrLoad, err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	return Read(f, opts)
}

// Read parses occurrence records from a stream. See Load.
func Read(r io.Reader, opts Options) (*Table, error) {
	opts.setDefaults()

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, errs.Wrapf(ErrParse, err, "read header")
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	latIdx, lonIdx := indexOf(columns, opts.LatColumn), indexOf(columns, opts.LonColumn)
	if latIdx < 0 || lonIdx < 0 {
		return nil, eris.Wrapf(ErrParse, "required columns %s, %s not in header",
			opts.LatColumn, opts.LonColumn)
	}

	t := &Table{Columns: columns}
	var dropped int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Wrapf(ErrParse, err, "read row")
		}

		if !numeric(record[latIdx]) || !numeric(record[lonIdx]) {
			dropped++
			continue
		}

		row := make(map[string]string, len(columns))
		for i, col := range columns {
			row[col] = record[i]
		}
		t.Rows = append(t.Rows, row)
	}

	if dropped > 0 {
		zap.L().Info("dropped occurrence rows with missing coordinates",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(t.Rows)),
		)
	}
	return t, nil
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

func numeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
