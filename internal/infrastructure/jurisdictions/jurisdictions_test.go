package jurisdictions

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDecodeYAML(t *testing.T) {
	seeds, err := DecodeYAML(strings.NewReader(`
states:
  - code: TX
    name: Texas
    counties:
      - name: Harris
        court_name: Harris County Criminal Courts at Law
      - name: Travis
  - code: LA
    name: Louisiana
    counties:
      - name: Orleans Parish
`))
	if err != nil {
		t.Fatalf("DecodeYAML() error = %v", err)
	}
	if len(seeds) != 2 || len(seeds[0].Counties) != 2 {
		t.Fatalf("unexpected seeds: %+v", seeds)
	}
	if seeds[0].Counties[0].CourtName != "Harris County Criminal Courts at Law" {
		t.Fatalf("court name not decoded: %+v", seeds[0].Counties[0])
	}
}

func TestDecodeYAMLRejectsUnknownFields(t *testing.T) {
	_, err := DecodeYAML(strings.NewReader("states:\n  - code: TX\n    nmae: Texas\n"))
	if err == nil {
		t.Fatalf("expected error for misspelled field")
	}
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName() error = %v", err)
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf
}

func TestDecodeXLSXGroupsByState(t *testing.T) {
	buf := workbook(t, [][]any{
		{"State_Code", "state_name", "county_name", "court_phone"},
		{"tx", "Texas", "Harris", "713-555-0100"},
		{"CA", "California", "Los Angeles", ""},
		{"TX", "Texas", "Travis", ""},
		{"", "", "", ""},
	})

	seeds, err := DecodeXLSX(buf)
	if err != nil {
		t.Fatalf("DecodeXLSX() error = %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("expected 2 states, got %d", len(seeds))
	}
	if seeds[0].Code != "TX" || len(seeds[0].Counties) != 2 {
		t.Fatalf("unexpected TX seed: %+v", seeds[0])
	}
	if seeds[0].Counties[0].CourtPhone != "713-555-0100" {
		t.Fatalf("court phone not read: %+v", seeds[0].Counties[0])
	}
}

func TestDecodeXLSXMissingColumn(t *testing.T) {
	buf := workbook(t, [][]any{
		{"state_code", "county_name"},
		{"TX", "Harris"},
	})
	if _, err := DecodeXLSX(buf); err == nil || !strings.Contains(err.Error(), "state_name") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestDecodeXLSXIncompleteRow(t *testing.T) {
	buf := workbook(t, [][]any{
		{"state_code", "state_name", "county_name"},
		{"TX", "Texas", ""},
	})
	if _, err := DecodeXLSX(buf); err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected row error, got %v", err)
	}
}
