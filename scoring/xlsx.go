package scoring

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Scoring Parameters"

// ParseScoringParamsXLSX reads the first sheet of a workbook through the same
// header and row checks as the CSV parser.
func ParseScoringParamsXLSX(r io.Reader, areas map[string]int) ParseResult {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return failedParse(fmt.Sprintf("Unable to read XLSX file: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return failedParse(ErrEmptyCSV)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return failedParse(fmt.Sprintf("Unable to read XLSX sheet %q: %v", sheets[0], err))
	}

	var table [][]string
	for _, cells := range rows {
		blank := true
		for i := range cells {
			cells[i] = cleanField(cells[i])
			if cells[i] != "" {
				blank = false
			}
		}
		if !blank {
			table = append(table, cells)
		}
	}
	return parseTable(table, areas)
}

// ParseFile dispatches on the file extension (.csv or .xlsx).
func ParseFile(filename string, data []byte, areas map[string]int) (ParseResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return ParseScoringParamsCSV(string(data), areas), nil
	case ".xlsx":
		return ParseScoringParamsXLSX(bytes.NewReader(data), areas), nil
	}
	return ParseResult{}, fmt.Errorf("unsupported file type %q, expected .csv or .xlsx", filepath.Ext(filename))
}

// ExportHeaders is the header row of the XLSX export.
func ExportHeaders() []string {
	headers := []string{"Area ID", labelAreaName}
	for _, a := range Attributes {
		headers = append(headers, a.Label())
	}
	for _, a := range Attributes {
		headers = append(headers, a.Label()+" Score (%)")
	}
	return append(headers, "Geo Mean")
}

// GetCellValues returns the export row for a record.
func (r Record) GetCellValues() []interface{} {
	values := []interface{}{r.AreaId, r.AreaName}
	for _, a := range Attributes {
		values = append(values, r.Raw.Get(a))
	}
	for _, a := range Attributes {
		values = append(values, r.Percentages.Get(a))
	}
	return append(values, r.GeoMean)
}

// ExportScoringParamsXLSX writes raw and derived values of a batch as a workbook.
func ExportScoringParamsXLSX(w io.Writer, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	headers := ExportHeaders()
	if err := f.SetSheetRow(exportSheet, "A1", &headers); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := r.GetCellValues()
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return err
		}
	}
	return f.Write(w)
}
