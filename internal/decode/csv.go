package decode

import (
	"bytes"
	"encoding/csv"
)

func parseCSV(content []byte) (*Table, error) {
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	cells, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return tableFromCells(cells), nil
}
