// Package excel reads analyzed vocabulary lists from Excel or CSV files.
package excel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/lexibatch/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath           string // Path to the Excel or CSV file
	WordColumn         string // Column with the word
	PartOfSpeechColumn string // Column with the part of speech
	TranslationColumn  string // Column with the translation
	PositionColumn     string // Column with the first-occurrence position; empty means row order
	SheetName          string // Name of the sheet to import; empty means the first sheet
	StartRow           int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:         "A",
		PartOfSpeechColumn: "B",
		TranslationColumn:  "C",
		PositionColumn:     "D",
		StartRow:           2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Errors         []string
}

var errEmptyWord = errors.New("word cannot be empty")

// ReadWordSenses reads word senses from an Excel or CSV file in file order.
// Rows with errors are skipped and reported in the result.
func ReadWordSenses(config ImportConfig) ([]models.WordSense, *ImportResult, error) {
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	senses := make([]models.WordSense, 0, len(rows))
	seen := make(map[int]int)
	for i, row := range rows {
		rowNum := i + 1
		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}
		if isBlank(row) {
			continue
		}
		result.TotalProcessed++

		ws, err := processRow(row, config, len(senses)+1)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		if prev, dup := seen[ws.Position]; dup {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: position %d already used by row %d", rowNum, ws.Position, prev))
			continue
		}
		seen[ws.Position] = rowNum
		senses = append(senses, ws)
		result.Imported++
	}
	return senses, result, nil
}

// readExcel returns every row of the sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns every record of the file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// processRow converts a single row. fallbackPosition is used when the row has
// no position column value.
func processRow(row []string, config ImportConfig, fallbackPosition int) (models.WordSense, error) {
	ws := models.WordSense{
		Word:         cleanWord(cell(row, config.WordColumn)),
		PartOfSpeech: strings.TrimSpace(cell(row, config.PartOfSpeechColumn)),
		Translation:  strings.TrimSpace(cell(row, config.TranslationColumn)),
		Position:     fallbackPosition,
	}
	if ws.Word == "" {
		return ws, errEmptyWord
	}
	if raw := strings.TrimSpace(cell(row, config.PositionColumn)); raw != "" {
		pos, err := strconv.Atoi(raw)
		if err != nil || pos <= 0 {
			return ws, fmt.Errorf("invalid position %q", raw)
		}
		ws.Position = pos
	}
	return ws, nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if colIdx := columnToIndex(column); colIdx >= 0 && colIdx < len(row) {
		return row[colIdx]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// cleanWord removes trailing notes in parentheses, e.g. "go (went, gone)"
func cleanWord(word string) string {
	indexOpenParen := strings.Index(word, "(")
	if indexOpenParen > 0 {
		return strings.TrimSpace(word[:indexOpenParen])
	}
	return strings.TrimSpace(word)
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
