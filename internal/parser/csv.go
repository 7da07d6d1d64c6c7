package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/lexquest/lexquiz/internal/doctree"
)

// CSVParser handles tabular sources such as exported case lists or
// article indexes. Rows are grouped so each node stays a readable size.
type CSVParser struct{}

const csvRowsPerNode = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".csv"),
		Pages: 1,
	}
	if len(records) == 0 {
		return tree, nil
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvRowsPerNode {
		end := i + csvRowsPerNode
		if end > len(dataRows) {
			end = len(dataRows)
		}

		var text strings.Builder
		text.WriteString("Columnas: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range dataRows[i:end] {
			for j, cell := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString("\n")
		}

		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Filas %d-%d", i+2, end+1), // 1-indexed, skip header
			Text:  text.String(),
			Page:  1,
		})
	}

	return tree, nil
}
