package synonyms

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseUploaded parses a synonym bulk upload. Supported formats:
//
//	.csv  — canonical_term,synonym1,synonym2,...
//	.json — {"canonical_term": ["synonym1", "synonym2", ...]}
//	.xlsx — first sheet, column A canonical, columns B.. synonyms
//
// Keys and values come back lowercased and trimmed.
func ParseUploaded(content []byte, filename string) (map[string][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return parseJSON(content)
	case ".csv":
		return parseCSV(content)
	case ".xlsx":
		return parseXLSX(content)
	default:
		return nil, fmt.Errorf("unsupported file format %q: use .csv, .json, or .xlsx", filepath.Ext(filename))
	}
}

func parseJSON(content []byte) (map[string][]string, error) {
	var data map[string][]string
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	result := make(map[string][]string, len(data))
	for canonical, syns := range data {
		var clean []string
		for _, s := range syns {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				clean = append(clean, s)
			}
		}
		if canonical = strings.ToLower(strings.TrimSpace(canonical)); canonical != "" && len(clean) > 0 {
			result[canonical] = clean
		}
	}
	return result, nil
}

func parseCSV(content []byte) (map[string][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	result := make(map[string][]string)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV error: %w", err)
		}
		addRow(result, row)
	}
	return result, nil
}

func parseXLSX(content []byte) (map[string][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("invalid XLSX: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX has no sheets")
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading XLSX rows: %w", err)
	}

	result := make(map[string][]string)
	for _, row := range rows {
		addRow(result, row)
	}
	return result, nil
}

// addRow records one canonical + synonyms row; short rows are skipped.
func addRow(result map[string][]string, row []string) {
	if len(row) < 2 {
		return
	}
	canonical := strings.ToLower(strings.TrimSpace(row[0]))
	var syns []string
	for _, s := range row[1:] {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			syns = append(syns, s)
		}
	}
	if canonical != "" && len(syns) > 0 {
		result[canonical] = syns
	}
}

// ExportXLSX writes the merged synonym dictionary as a workbook with one
// row per canonical term.
func ExportXLSX(synonyms map[string][]string, w io.Writer) error {
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(0)

	canonicals := make([]string, 0, len(synonyms))
	for canonical := range synonyms {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	for i, canonical := range canonicals {
		cells := append([]string{canonical}, synonyms[canonical]...)
		anyCells := make([]any, len(cells))
		for j, c := range cells {
			anyCells[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &anyCells); err != nil {
			return err
		}
	}

	return wb.Write(w)
}
