package parser

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/lexquest/lexquiz/internal/doctree"
)

// TextParser handles plain text files. Lines that look like statutory
// headings (Artículo 5, CAPÍTULO II, Título Tercero) open new sections;
// everything else accumulates as paragraph text.
type TextParser struct{}

var headingLineRe = regexp.MustCompile(`(?i)^\s*(artículo|articulo|capítulo|capitulo|título|titulo|sección|seccion|libro)\s+[\wIVXLC]+`)

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	outline := newOutline(strings.TrimSuffix(filename, ".txt"))
	outline.SetPage(1)

	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			outline.AddText(current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case isTextHeading(trimmed):
			flush()
			outline.AddHeading(trimmed, 1)
		default:
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{
		Title: strings.TrimSuffix(filename, ".txt"),
		Pages: 1,
	}
	tree.Children = outline.Children()
	return tree, nil
}

// isTextHeading reports whether a plain-text line reads like a section
// heading: a statutory marker or a short all-caps line.
func isTextHeading(line string) bool {
	if len(line) > 120 {
		return false
	}
	if headingLineRe.MatchString(line) {
		return true
	}
	if len([]rune(line)) > 60 {
		return false
	}
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}
