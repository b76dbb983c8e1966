package decode

import (
	"bytes"
	"regexp"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Synthetic headers for PDF capture statements; chosen to line up with the
// alias lists the capture schema already recognizes.
var captureHeaders = []string{"Reference", "Last 4 Digits", "Amount (Inc. Surcharge)"}

var (
	reMoneyToken = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})*\.\d{2}$`)
	reCardToken  = regexp.MustCompile(`^(?:[xX*]+\s?)?(\d{4})$`)
)

// parseCapturePDF recovers capture rows from an Opayo PDF statement. The
// statement has no cell structure, so rows are rebuilt line by line: a data
// line carries a leading transaction reference, a masked card token and a
// trailing money amount.
func parseCapturePDF(content []byte) (*Table, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	lines := []string{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		lines = append(lines, splitLines(text)...)
	}

	return parseCaptureLines(lines), nil
}

func parseCaptureLines(lines []string) *Table {
	table := &Table{Headers: captureHeaders}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}

		amount := fields[len(fields)-1]
		if !reMoneyToken.MatchString(amount) {
			continue
		}

		last4 := ""
		for _, f := range fields[1 : len(fields)-1] {
			if m := reCardToken.FindStringSubmatch(f); m != nil {
				last4 = m[1]
			}
		}
		if last4 == "" {
			continue
		}

		table.Rows = append(table.Rows, Row{
			captureHeaders[0]: fields[0],
			captureHeaders[1]: last4,
			captureHeaders[2]: amount,
		})
	}
	return table
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
