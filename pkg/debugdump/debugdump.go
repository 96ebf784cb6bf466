// Package debugdump prints the document, style and box trees as indented
// text trees for debugging and test failure messages.
package debugdump

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xlab/treeprint"

	"ember/pkg/css"
	"ember/pkg/html"
	"ember/pkg/layout"
)

const maxText = 40

// Document dumps the node tree below root.
func Document(doc *html.Document) string {
	tree := treeprint.NewWithRoot("#document")
	for _, c := range doc.Children(doc.Root()) {
		addNode(tree, doc, c)
	}
	return tree.String()
}

func addNode(tree treeprint.Tree, doc *html.Document, id html.NodeID) {
	n := doc.Node(id)
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		tree.AddNode(strconv.Quote(clip(n.Text)))
		return
	}
	branch := tree.AddBranch(elementLabel(n))
	for _, c := range n.Children {
		addNode(branch, doc, c)
	}
}

func elementLabel(n *html.Node) string {
	if len(n.Attributes) == 0 {
		return "<" + n.TagName + ">"
	}
	names := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("<" + n.TagName)
	for _, k := range names {
		fmt.Fprintf(&sb, " %s=%q", k, n.Attributes[k])
	}
	sb.WriteString(">")
	return sb.String()
}

// Styles dumps each element with the computed properties that differ from
// their initial values.
func Styles(doc *html.Document, styles css.Styles) string {
	tree := treeprint.NewWithRoot("#styles")
	for _, c := range doc.Children(doc.Root()) {
		addStyled(tree, doc, styles, c)
	}
	return tree.String()
}

func addStyled(tree treeprint.Tree, doc *html.Document, styles css.Styles, id html.NodeID) {
	if !doc.IsElement(id) {
		return
	}
	branch := tree.AddMetaBranch(doc.TagName(id), styleSummary(styles.Of(id)))
	for _, c := range doc.Children(id) {
		addStyled(branch, doc, styles, c)
	}
}

func styleSummary(s *css.ComputedStyle) string {
	if s == nil {
		return ""
	}
	var parts []string
	for p := css.Property(0); p < css.NumProperties; p++ {
		if v := s.Get(p); v != p.Initial() {
			parts = append(parts, p.String()+": "+v)
		}
	}
	return strings.Join(parts, "; ")
}

// Boxes dumps the box tree with geometry. Fragments appear as leaves of
// the box that owns them.
func Boxes(doc *html.Document, root *layout.Box) string {
	if root == nil {
		return "(no boxes)\n"
	}
	tree := treeprint.New()
	addBox(tree, doc, root)
	return tree.String()
}

func addBox(tree treeprint.Tree, doc *html.Document, b *layout.Box) {
	name := "anonymous"
	if doc != nil && doc.IsElement(b.Node) {
		name = doc.TagName(b.Node)
	}
	branch := tree.AddMetaBranch(b.Kind.String(), fmt.Sprintf("%s %s", name, rect(b.Rect())))
	for _, f := range b.Fragments {
		branch.AddMetaNode(rect(f.Rect()), strconv.Quote(clip(f.Text)))
	}
	for _, c := range b.Children {
		addBox(branch, doc, c)
	}
}

func rect(r layout.Rect) string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxText {
		return s
	}
	return string(r[:maxText]) + "…"
}
