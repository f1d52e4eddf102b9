package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "vocab.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestReadWordSensesExcel(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"word", "pos", "translation", "position"},
		{"go (went, gone)", "verb", "идти", 3},
		{"house", "noun", "дом", 1},
		{"", "noun", "пусто", 4},
		{"tree", "noun", "дерево", 1},
	})

	config := DefaultImportConfig()
	config.FilePath = path
	senses, result, err := ReadWordSenses(config)
	if err != nil {
		t.Fatalf("ReadWordSenses: %v", err)
	}
	if len(senses) != 2 {
		t.Fatalf("expected 2 senses, got %d: %+v", len(senses), senses)
	}
	if senses[0].Word != "go" || senses[0].PartOfSpeech != "verb" || senses[0].Position != 3 {
		t.Fatalf("unexpected first sense %+v", senses[0])
	}
	if result.TotalProcessed != 4 || result.Imported != 2 || result.Skipped != 2 || len(result.Errors) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestReadWordSensesCSVRowOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.csv")
	content := "word,pos,translation\nthe,det,\ncat,noun,кот\n\nsat,verb,сидел\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	config := DefaultImportConfig()
	config.FilePath = path
	config.PositionColumn = ""
	senses, result, err := ReadWordSenses(config)
	if err != nil {
		t.Fatalf("ReadWordSenses: %v", err)
	}
	want := []string{"the", "cat", "sat"}
	if len(senses) != len(want) {
		t.Fatalf("expected %d senses, got %d", len(want), len(senses))
	}
	for i, ws := range senses {
		if ws.Word != want[i] || ws.Position != i+1 {
			t.Fatalf("sense %d = %+v, want %s at %d", i, ws, want[i], i+1)
		}
	}
	if result.Skipped != 0 {
		t.Fatalf("unexpected skipped rows: %v", result.Errors)
	}
}

func TestReadWordSensesMissingFile(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = filepath.Join(t.TempDir(), "missing.xlsx")
	if _, _, err := ReadWordSenses(config); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestColumnToIndex(t *testing.T) {
	tests := map[string]int{"A": 0, "b": 1, "Z": 25, "AA": 26}
	for col, want := range tests {
		if got := columnToIndex(col); got != want {
			t.Errorf("columnToIndex(%q) = %d, want %d", col, got, want)
		}
	}
}
