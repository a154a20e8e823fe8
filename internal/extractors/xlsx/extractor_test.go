package xlsx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/ragnote/internal/core/domain"
)

func buildWorkbook(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.Equal(t, "xlsx", extractor.Name())
	assert.Contains(t, extractor.SupportedExtensions(), ".xlsx")
}

func TestExtract(t *testing.T) {
	content := buildWorkbook(t, map[string][][]any{
		"Budget": {
			{"Item", "Cost"},
			{"Laptop", 1200},
			{},
			{"Desk", 300, ""},
		},
		"Notes": {
			{"Order before March"},
		},
		"Empty": {},
	}, "Budget", "Notes", "Empty")

	text, err := New().Extract(context.Background(), content)

	require.NoError(t, err)
	assert.Equal(t, "Budget\nItem | Cost\nLaptop | 1200\nDesk | 300\n\nNotes\nOrder before March", text)
}

func TestExtract_Invalid(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("not a workbook"))
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestRenderRows(t *testing.T) {
	rows := [][]string{
		{" a ", "", "c"},
		{"", " "},
		nil,
		{"only"},
	}

	assert.Equal(t, []string{"a |  | c", "only"}, renderRows(rows))
}
