package parser

import (
	"strings"

	"github.com/lexquest/lexquiz/internal/doctree"
)

// outlineBuilder assembles a DocTree from a stream of headings and text
// blocks. Headings nest by level; text attaches to the most recent heading.
type outlineBuilder struct {
	root    *doctree.DocNode
	stack   []outlineEntry
	pending strings.Builder
	page    int
}

type outlineEntry struct {
	node  *doctree.DocNode
	level int
}

func newOutline(title string) *outlineBuilder {
	root := &doctree.DocNode{Title: title}
	return &outlineBuilder{
		root:  root,
		stack: []outlineEntry{{node: root, level: 0}},
	}
}

// SetPage records the page attributed to subsequent headings and text.
func (b *outlineBuilder) SetPage(page int) { b.page = page }

// AddHeading closes the pending text block and opens a nested section.
func (b *outlineBuilder) AddHeading(title string, level int) {
	b.flush()
	node := &doctree.DocNode{Title: title, Page: b.page}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, outlineEntry{node: node, level: level})
}

// AddText appends a text block to the current section.
func (b *outlineBuilder) AddText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if b.pending.Len() > 0 {
		b.pending.WriteString("\n\n")
	}
	b.pending.WriteString(text)
}

func (b *outlineBuilder) flush() {
	text := strings.TrimSpace(b.pending.String())
	b.pending.Reset()
	if text == "" {
		return
	}
	top := b.stack[len(b.stack)-1].node
	if top.Text != "" {
		top.Text += "\n\n" + text
	} else {
		top.Text = text
	}
	if top.Page == 0 {
		top.Page = b.page
	}
}

// Children finalizes the outline. Documents without any heading collapse to
// a single text node.
func (b *outlineBuilder) Children() []*doctree.DocNode {
	b.flush()
	if len(b.root.Children) == 0 && b.root.Text != "" {
		return []*doctree.DocNode{{Text: b.root.Text, Page: b.root.Page}}
	}
	return b.root.Children
}
