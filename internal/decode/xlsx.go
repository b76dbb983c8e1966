package decode

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// parseXLSX decodes the first non-empty sheet of a workbook. Raw cell values
// are requested so date cells arrive as day-count serials instead of
// locale-formatted strings; the value normalizer handles both.
func parseXLSX(content []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			continue
		}
		table := tableFromCells(rows)
		if len(table.Headers) > 0 {
			return table, nil
		}
	}
	return nil, fmt.Errorf("workbook has no populated sheet")
}
