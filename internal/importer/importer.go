// Package importer reads module lists, placement specs and position files.
// Module lists may come from the plain MODULE_SIZE text format, CSV, Excel
// or DXF drawings. Tabular sources support automatic delimiter detection and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/piwi3910/floorpack/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Modules  []model.Module
	Errors   []string
	Warnings []string
}

// Err joins the collected errors, or returns nil when there are none.
func (r ImportResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, msg := range r.Errors {
		errs[i] = errors.New(msg)
	}
	return errors.Join(errs...)
}

// Layout builds a fresh layout over the imported modules.
func (r ImportResult) Layout() *model.Layout {
	mods := make([]model.Module, len(r.Modules))
	copy(mods, r.Modules)
	return model.NewLayout(mods)
}

// ColumnMapping maps semantic column roles to their indices in the data.
// A value of -1 means the column is absent.
type ColumnMapping struct {
	ID     int
	Width  int
	Height int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":     {"id", "module", "module id", "no", "#"},
	"width":  {"width", "w", "length", "len", "x"},
	"height": {"height", "h", "depth", "d", "y"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or a positional
// mapping and false otherwise. Positional rows are read as id, width, height
// when they have three or more cells and as width, height when they have two.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{ID: -1, Width: -1, Height: -1}

	isHeader := false
	for i, cell := range row {
		role, ok := headerRole(cell)
		if !ok {
			continue
		}
		isHeader = true
		switch role {
		case "id":
			if mapping.ID == -1 {
				mapping.ID = i
			}
		case "width":
			if mapping.Width == -1 {
				mapping.Width = i
			}
		case "height":
			if mapping.Height == -1 {
				mapping.Height = i
			}
		}
	}

	if isHeader {
		return mapping, true
	}
	if len(row) == 2 {
		return ColumnMapping{ID: -1, Width: 0, Height: 1}, false
	}
	return ColumnMapping{ID: 0, Width: 1, Height: 2}, false
}

func headerRole(cell string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(cell))
	for role, aliases := range headerAliases {
		for _, alias := range aliases {
			if normalized == alias {
				return role, true
			}
		}
	}
	return "", false
}

// getCell safely retrieves a trimmed cell value from a row.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow converts a single data row into a module.
// Returns the module, an error message (empty on success) and a warning.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, nextID int) (model.Module, string, string) {
	id := nextID
	if mapping.ID >= 0 {
		idStr := getCell(row, mapping.ID)
		if idStr == "" {
			return model.Module{}, fmt.Sprintf("%s: Missing id value", rowLabel), ""
		}
		v, err := strconv.Atoi(idStr)
		if err != nil {
			return model.Module{}, fmt.Sprintf("%s: Invalid id '%s'", rowLabel, idStr), ""
		}
		id = v
	}

	widthStr := getCell(row, mapping.Width)
	if widthStr == "" {
		return model.Module{}, fmt.Sprintf("%s: Missing width value", rowLabel), ""
	}
	width, err := strconv.ParseFloat(widthStr, 64)
	if err != nil {
		return model.Module{}, fmt.Sprintf("%s: Invalid width '%s'", rowLabel, widthStr), ""
	}

	heightStr := getCell(row, mapping.Height)
	if heightStr == "" {
		return model.Module{}, fmt.Sprintf("%s: Missing height value", rowLabel), ""
	}
	height, err := strconv.ParseFloat(heightStr, 64)
	if err != nil {
		return model.Module{}, fmt.Sprintf("%s: Invalid height '%s'", rowLabel, heightStr), ""
	}

	if width <= 0 || height <= 0 {
		return model.Module{}, fmt.Sprintf("%s: Width and height must be positive", rowLabel), ""
	}

	var warning string
	if width != math.Trunc(width) || height != math.Trunc(height) {
		warning = fmt.Sprintf("%s: Module %d has fractional size %gx%g, positions are rounded to integers", rowLabel, id, width, height)
	}

	return model.NewModule(id, width, height), "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports modules from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", warnings)
}

// ImportCSVFromReader imports modules from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	records, err := readCSV(reader, delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// ImportExcel imports modules from the first sheet of an Excel workbook.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
		if mapping.ID == -1 {
			result.Warnings = append(result.Warnings, "No id column, numbering modules from 1")
		}
	} else if len(rows[0]) >= 2 {
		// An unrecognized header still gets skipped
		if _, err := strconv.ParseFloat(getCell(rows[0], mapping.Width), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	seen := make(map[int]string)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		m, errMsg, warning := parseRow(row, mapping, rowLabel, len(result.Modules)+1)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if prev, dup := seen[m.ID]; dup {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate module id %d (first seen on %s)", rowLabel, m.ID, prev))
			continue
		}
		seen[m.ID] = rowLabel
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.Modules = append(result.Modules, m)
	}

	if len(result.Modules) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}

	return result
}

// LoadModules imports a module list, choosing the reader by file extension.
// Anything that is not CSV, Excel or DXF is read as MODULE_SIZE text.
func LoadModules(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return ImportCSV(path)
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(path)
	case ".dxf":
		return ImportDXF(path)
	default:
		return ImportModuleList(path)
	}
}
