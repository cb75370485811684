package jurisdictions

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/duihelp/leadgen/internal/core/domain"
)

var requiredColumns = []string{"state_code", "state_name", "county_name"}

func LoadXLSXFile(path string) ([]domain.StateSeed, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()
	return readWorkbook(f)
}

func DecodeXLSX(r io.Reader) ([]domain.StateSeed, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()
	return readWorkbook(f)
}

// readWorkbook reads the first sheet. The header row names the columns;
// rows are grouped by state code in first-seen order.
func readWorkbook(f *excelize.File) ([]domain.StateSeed, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data found in XLSX")
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []domain.StateSeed
	byCode := map[string]int{}
	for n, row := range rows[1:] {
		code := strings.ToUpper(cell(row, "state_code"))
		county := cell(row, "county_name")
		if code == "" && county == "" {
			continue
		}
		if code == "" || county == "" {
			return nil, fmt.Errorf("row %d: state_code and county_name are required", n+2)
		}

		pos, ok := byCode[code]
		if !ok {
			out = append(out, domain.StateSeed{Code: code, Name: cell(row, "state_name")})
			pos = len(out) - 1
			byCode[code] = pos
		}
		out[pos].Counties = append(out[pos].Counties, domain.CountySeed{
			Name:         county,
			CourtName:    cell(row, "court_name"),
			CourtAddress: cell(row, "court_address"),
			CourtPhone:   cell(row, "court_phone"),
			DMVOffice:    cell(row, "dmv_office"),
			Notes:        cell(row, "notes"),
		})
	}
	return out, nil
}
