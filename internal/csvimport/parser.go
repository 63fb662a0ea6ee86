// Package csvimport reads bank exports into rows and turns mapped rows into transactions.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// MaxAnalyzeRows caps the data rows read for an analysis.
	MaxAnalyzeRows = 5000
	// MaxPreviewRows caps the rows returned to the mapping screen.
	MaxPreviewRows = 200
)

var (
	ErrEmptyFile = errors.New("csv file is empty")
	ErrMalformed = errors.New("csv file is malformed")
)

// ParseOptions controls how a file is read.
type ParseOptions struct {
	HasHeader bool
	// MaxRows limits data rows. Zero means MaxAnalyzeRows.
	MaxRows int
}

// Table is the raw cell grid read from a file.
type Table struct {
	Header    []string   `json:"header,omitempty"`
	Rows      [][]string `json:"rows"`
	Delimiter string     `json:"delimiter"`
	Truncated bool       `json:"truncated"`
}

// ColumnCount returns the widest row width seen, header included.
func (t *Table) ColumnCount() int {
	n := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// Parse reads data as a comma or semicolon separated file.
func Parse(data []byte, opts ParseOptions) (*Table, error) {
	data = stripUTF8BOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = MaxAnalyzeRows
	}

	delim := detectDelimiter(data)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	table := &Table{Delimiter: string(delim)}
	headerPending := opts.HasHeader
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if isBlankRecord(record) {
			continue
		}
		if headerPending {
			table.Header = trimCells(record)
			headerPending = false
			continue
		}
		if len(table.Rows) == maxRows {
			table.Truncated = true
			break
		}
		table.Rows = append(table.Rows, trimCells(record))
	}

	if table.Header == nil && len(table.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return table, nil
}

// Preview reads the first MaxPreviewRows rows for column mapping.
func Preview(data []byte, hasHeader bool) (*Table, error) {
	return Parse(data, ParseOptions{HasHeader: hasHeader, MaxRows: MaxPreviewRows})
}

// detectDelimiter picks ';' or ',' by counting unquoted separators on the first non-empty line.
func detectDelimiter(data []byte) rune {
	var line string
	for _, l := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	commas, semicolons := 0, 0
	inQuotes := false
	for _, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				commas++
			}
		case ';':
			if !inQuotes {
				semicolons++
			}
		}
	}
	if semicolons > commas {
		return ';'
	}
	return ','
}

func stripUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimCells(record []string) []string {
	out := make([]string, len(record))
	for i, cell := range record {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}
