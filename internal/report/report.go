// Package report exports the aggregated per-state summary table as
// XLSX or CSV files.
package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/atlasbio/occmap/internal/aggregate"
	"github.com/atlasbio/occmap/internal/feature"
)

var columns = []string{"State", "Records", "Records (sqrt)"}

// WriteXLSX writes one row per aggregated state feature to an XLSX
// workbook at path.
func WriteXLSX(states *feature.Collection, key, path string) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("State record counts")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().SetString(col)
	}

	for _, f := range states.Features {
		records, _ := f.Float(aggregate.FieldRecords)
		recordsSqrt, _ := f.Float(aggregate.FieldRecordsSqrt)

		row := sheet.AddRow()
		row.AddCell().SetString(f.String(key))
		row.AddCell().SetInt(int(records))
		row.AddCell().SetFloat(recordsSqrt)
	}

	if err := wb.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

// WriteCSV writes the same summary table as a CSV file.
func WriteCSV(states *feature.Collection, key, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "report: write header")
	}
	for _, feat := range states.Features {
		records, _ := feat.Float(aggregate.FieldRecords)
		recordsSqrt, _ := feat.Float(aggregate.FieldRecordsSqrt)
		row := []string{
			feat.String(key),
			strconv.Itoa(int(records)),
			strconv.FormatFloat(recordsSqrt, 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "report: write row")
		}
	}
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "report: flush")
	}
	return nil
}
