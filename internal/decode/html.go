package decode

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var reSpaces = regexp.MustCompile(`\s+`)

// parseHTMLTable decodes the first data table of an HTML document. Covers
// portal downloads that carry an .xls name but are really markup.
func parseHTMLTable(content []byte) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var table *Table
	doc.Find("table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rows := sel.Find("tr")
		if rows.Length() < 2 {
			return true
		}

		cells := make([][]string, 0, rows.Length())
		rows.Each(func(_ int, row *goquery.Selection) {
			line := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				line = append(line, collapseSpaces(cell.Text()))
			})
			cells = append(cells, line)
		})

		parsed := tableFromCells(cells)
		if len(parsed.Headers) > 0 {
			table = parsed
			return false
		}
		return true
	})

	if table == nil {
		return nil, fmt.Errorf("document has no data table")
	}
	return table, nil
}

func collapseSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}
