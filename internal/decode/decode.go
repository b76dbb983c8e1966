package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Row maps a raw header string to an untyped cell value.
type Row map[string]any

// Table is one decoded worksheet. Headers preserve the source column order;
// the row maps alone cannot, and downstream header resolution needs a stable
// iteration order.
type Table struct {
	Headers []string
	Rows    []Row
}

// Load reads a tabular export from disk, dispatching on file extension.
// Acquirer portals label HTML-table downloads ".xls", so that extension is
// sniffed rather than trusted.
func Load(path string) (*Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(filepath.Base(path), blob)
}

// FromBytes decodes an export already held in memory (mail attachments).
func FromBytes(name string, content []byte) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return parseXLSX(content)
	case ".xls":
		if table, err := parseXLSX(content); err == nil {
			return table, nil
		}
		return parseHTMLTable(content)
	case ".csv":
		return parseCSV(content)
	case ".html", ".htm":
		return parseHTMLTable(content)
	case ".pdf":
		return parseCapturePDF(content)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", name)
	}
}

// Decodable reports whether the filename looks like an export Load can read.
func Decodable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls", ".csv", ".html", ".htm", ".pdf":
		return true
	default:
		return false
	}
}

func tableFromCells(cells [][]string) *Table {
	table := &Table{}
	for _, row := range cells {
		if emptyRow(row) {
			continue
		}
		if table.Headers == nil {
			for _, h := range row {
				table.Headers = append(table.Headers, strings.TrimSpace(h))
			}
			continue
		}
		out := Row{}
		for i, header := range table.Headers {
			if header == "" {
				continue
			}
			if i < len(row) {
				out[header] = row[i]
			} else {
				out[header] = ""
			}
		}
		table.Rows = append(table.Rows, out)
	}
	if table.Headers == nil {
		table.Headers = []string{}
	}
	return table
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
