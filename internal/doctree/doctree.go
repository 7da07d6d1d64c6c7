// Package doctree is the intermediate representation between document
// parsing and section extraction: a shallow tree of titled text nodes with
// page provenance.
package doctree

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Pages    int        // Page count, 0 when the format has no pages
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Bounds   *Rect      // Placement on the page, nil when the format has no geometry
	Children []*DocNode // Subsections
}

// Rect is a bounding box in page coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Walk visits every node depth-first in document order.
func (t *DocTree) Walk(visit func(n *DocNode)) {
	var rec func(nodes []*DocNode)
	rec = func(nodes []*DocNode) {
		for _, n := range nodes {
			visit(n)
			rec(n.Children)
		}
	}
	rec(t.Children)
}

// TextNodes returns the nodes that carry text, in document order.
func (t *DocTree) TextNodes() []*DocNode {
	var out []*DocNode
	t.Walk(func(n *DocNode) {
		if n.Text != "" {
			out = append(out, n)
		}
	})
	return out
}
