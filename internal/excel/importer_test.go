package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/translatebot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, value := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", name, value))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func TestImportItems_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "philosophy.xlsx")
	writeWorkbook(t, path, [][]string{
		{"en", "ru"},
		{"Being and time", "Бытие и время"},
		{"", ""},
		{" The will to power ", "Воля к власти"},
	})

	config := DefaultImportConfig()
	config.FilePath = path
	items, err := ImportItems(config)
	require.NoError(t, err)

	assert.Equal(t, []models.Item{
		{Source: "Being and time", Target: "Бытие и время"},
		{Source: "The will to power", Target: "Воля к власти"},
	}, items)
}

func TestImportItems_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ethics.csv")
	content := "source,target\nvirtue,добродетель\n\"duty, obligation\",долг\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config := DefaultImportConfig()
	config.FilePath = path
	items, err := ImportItems(config)
	require.NoError(t, err)

	assert.Equal(t, []models.Item{
		{Source: "virtue", Target: "добродетель"},
		{Source: "duty, obligation", Target: "долг"},
	}, items)
}

func TestImportItems_CSVWithoutHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logic.csv")
	require.NoError(t, os.WriteFile(path, []byte("premise,посылка\n"), 0o644))

	config := DefaultImportConfig()
	config.FilePath = path
	config.StartRow = 1
	items, err := ImportItems(config)
	require.NoError(t, err)
	assert.Equal(t, []models.Item{{Source: "premise", Target: "посылка"}}, items)
}

func TestImportItems_HalfFilledRowFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv")
	require.NoError(t, os.WriteFile(path, []byte("h1,h2\nonly source,\n"), 0o644))

	config := DefaultImportConfig()
	config.FilePath = path
	_, err := ImportItems(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestImportItems_UnsupportedFormat(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = "notes.txt"
	_, err := ImportItems(config)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestColumnToIndex(t *testing.T) {
	tests := []struct {
		column string
		want   int
	}{
		{"A", 0},
		{"b", 1},
		{"Z", 25},
		{"AA", 26},
		{"1", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, columnToIndex(tt.column), tt.column)
	}
}
