package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/translatebot/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath     string // Path to the Excel or CSV file
	SourceColumn string // Column with the text to translate
	TargetColumn string // Column with the reference translation
	SheetName    string // Sheet to import, first sheet when empty
	StartRow     int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SourceColumn: "A",
		TargetColumn: "B",
		StartRow:     2, // By default, start from the second row (skip header)
	}
}

// ErrUnsupportedFormat is returned for files that are neither .xlsx/.xlsm nor .csv
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ImportItems reads text pairs from an Excel or CSV file.
// Blank rows are skipped; a row with only one of the two cells filled is an error.
func ImportItems(config ImportConfig) ([]models.Item, error) {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	switch strings.ToLower(filepath.Ext(config.FilePath)) {
	case ".csv":
		return importFromCSV(config)
	case ".xlsx", ".xlsm":
		return importFromExcel(config)
	default:
		return nil, fmt.Errorf("%s: %w", config.FilePath, ErrUnsupportedFormat)
	}
}

// importFromExcel imports items from an Excel file
func importFromExcel(config ImportConfig) ([]models.Item, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", config.FilePath)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows of sheet %q: %w", sheet, err)
	}

	var items []models.Item
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		item, ok, err := processRow(row, config)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", config.FilePath, i+1, err)
		}
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// importFromCSV imports items from a CSV file
func importFromCSV(config ImportConfig) ([]models.Item, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var items []models.Item
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}

		rowNum++
		if rowNum < config.StartRow {
			continue
		}

		item, ok, err := processRow(row, config)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", config.FilePath, rowNum, err)
		}
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// processRow extracts a text pair from a single row
func processRow(row []string, config ImportConfig) (models.Item, bool, error) {
	source := cell(row, config.SourceColumn)
	target := cell(row, config.TargetColumn)

	if source == "" && target == "" {
		return models.Item{}, false, nil
	}
	if source == "" {
		return models.Item{}, false, fmt.Errorf("source text cannot be empty")
	}
	if target == "" {
		return models.Item{}, false, fmt.Errorf("target text cannot be empty")
	}
	return models.Item{Source: source, Target: target}, true, nil
}

func cell(row []string, column string) string {
	if colIdx := columnToIndex(column); colIdx >= 0 && colIdx < len(row) {
		return strings.TrimSpace(row[colIdx])
	}
	return ""
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
