package html

import (
	"errors"
	"sort"
	"strings"
)

// NodeID addresses a node inside a Document's arena.
type NodeID int

// InvalidNode is the parent of the root and of detached nodes.
const InvalidNode NodeID = -1

type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	}
	return "unknown"
}

var (
	// ErrHierarchy is returned when an insertion would make a node its own ancestor.
	ErrHierarchy = errors.New("html: hierarchy request error")
	// ErrNotFound is returned for node ids outside the arena or children that are not children.
	ErrNotFound = errors.New("html: node not found")
)

type Node struct {
	Type       NodeType
	TagName    string
	Attributes map[string]string
	Text       string
	Parent     NodeID
	Children   []NodeID
}

// Document owns every node created for one page. Nodes are never freed;
// a removed node is simply detached.
type Document struct {
	nodes      []Node
	generation uint64
}

func NewDocument() *Document {
	d := &Document{}
	d.nodes = append(d.nodes, Node{Type: DocumentNode, Parent: InvalidNode})
	return d
}

// Root is always node 0.
func (d *Document) Root() NodeID { return 0 }

// Len returns the number of nodes ever allocated.
func (d *Document) Len() int { return len(d.nodes) }

// Generation is bumped on every mutation so callers can tell when derived
// state (styles, boxes) is stale.
func (d *Document) Generation() uint64 { return d.generation }

func (d *Document) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(d.nodes)
}

// Node returns the node for id, or nil when id is out of range. The pointer
// is invalidated by the next allocation.
func (d *Document) Node(id NodeID) *Node {
	if !d.valid(id) {
		return nil
	}
	return &d.nodes[id]
}

func (d *Document) Type(id NodeID) NodeType {
	if !d.valid(id) {
		return DocumentNode
	}
	return d.nodes[id].Type
}

func (d *Document) IsElement(id NodeID) bool {
	return d.valid(id) && d.nodes[id].Type == ElementNode
}

func (d *Document) TagName(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	return d.nodes[id].TagName
}

func (d *Document) Parent(id NodeID) NodeID {
	if !d.valid(id) {
		return InvalidNode
	}
	return d.nodes[id].Parent
}

// Children returns the child list. Callers must not modify it.
func (d *Document) Children(id NodeID) []NodeID {
	if !d.valid(id) {
		return nil
	}
	return d.nodes[id].Children
}

func (d *Document) alloc(n Node) NodeID {
	n.Parent = InvalidNode
	d.nodes = append(d.nodes, n)
	d.generation++
	return NodeID(len(d.nodes) - 1)
}

// CreateElement allocates a detached element.
func (d *Document) CreateElement(tag string) NodeID {
	return d.alloc(Node{Type: ElementNode, TagName: strings.ToLower(tag)})
}

// CreateTextNode allocates a detached text node.
func (d *Document) CreateTextNode(text string) NodeID {
	return d.alloc(Node{Type: TextNode, Text: text})
}

// Contains reports whether other is n or one of its descendants.
func (d *Document) Contains(n, other NodeID) bool {
	for cur := other; cur != InvalidNode; cur = d.Parent(cur) {
		if cur == n {
			return true
		}
	}
	return false
}

// AppendChild moves child to the end of parent's children, detaching it from
// its previous parent first.
func (d *Document) AppendChild(parent, child NodeID) error {
	if !d.valid(parent) || !d.valid(child) {
		return ErrNotFound
	}
	if d.nodes[parent].Type == TextNode || d.Contains(child, parent) || child == d.Root() {
		return ErrHierarchy
	}
	d.detach(child)
	d.nodes[parent].Children = append(d.nodes[parent].Children, child)
	d.nodes[child].Parent = parent
	d.generation++
	return nil
}

// RemoveChild detaches child from parent.
func (d *Document) RemoveChild(parent, child NodeID) error {
	if !d.valid(parent) || !d.valid(child) || d.nodes[child].Parent != parent {
		return ErrNotFound
	}
	d.detach(child)
	d.generation++
	return nil
}

func (d *Document) detach(child NodeID) {
	old := d.nodes[child].Parent
	if old == InvalidNode {
		return
	}
	kids := d.nodes[old].Children
	for i, c := range kids {
		if c == child {
			d.nodes[old].Children = append(kids[:i:i], kids[i+1:]...)
			break
		}
	}
	d.nodes[child].Parent = InvalidNode
}

func (d *Document) GetAttribute(id NodeID, name string) (string, bool) {
	if !d.IsElement(id) || d.nodes[id].Attributes == nil {
		return "", false
	}
	val, ok := d.nodes[id].Attributes[strings.ToLower(name)]
	return val, ok
}

func (d *Document) SetAttribute(id NodeID, name, value string) {
	if !d.IsElement(id) {
		return
	}
	if d.nodes[id].Attributes == nil {
		d.nodes[id].Attributes = make(map[string]string)
	}
	d.nodes[id].Attributes[strings.ToLower(name)] = value
	d.generation++
}

// AppendText adds text to the last text child of id, or creates one.
func (d *Document) AppendText(id NodeID, text string) {
	if text == "" || !d.valid(id) {
		return
	}
	kids := d.nodes[id].Children
	if n := len(kids); n > 0 && d.nodes[kids[n-1]].Type == TextNode {
		d.nodes[kids[n-1]].Text += text
		d.generation++
		return
	}
	t := d.CreateTextNode(text)
	d.nodes[id].Children = append(d.nodes[id].Children, t)
	d.nodes[t].Parent = id
}

// TextContent concatenates the text of id and all its descendants.
func (d *Document) TextContent(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	if d.nodes[id].Type == TextNode {
		return d.nodes[id].Text
	}
	var sb strings.Builder
	d.Walk(id, func(n NodeID) bool {
		if d.nodes[n].Type == TextNode {
			sb.WriteString(d.nodes[n].Text)
		}
		return true
	})
	return sb.String()
}

// SetTextContent replaces all children of id with one text node.
func (d *Document) SetTextContent(id NodeID, text string) {
	if !d.valid(id) {
		return
	}
	if d.nodes[id].Type == TextNode {
		d.nodes[id].Text = text
		d.generation++
		return
	}
	for _, c := range d.nodes[id].Children {
		d.nodes[c].Parent = InvalidNode
	}
	d.nodes[id].Children = nil
	d.generation++
	if text != "" {
		t := d.CreateTextNode(text)
		d.nodes[id].Children = []NodeID{t}
		d.nodes[t].Parent = id
	}
}

// Walk visits id and its descendants in document order. Returning false from
// fn skips the children of that node.
func (d *Document) Walk(id NodeID, fn func(NodeID) bool) {
	if !d.valid(id) {
		return
	}
	if !fn(id) {
		return
	}
	for _, c := range d.nodes[id].Children {
		d.Walk(c, fn)
	}
}

// GetElementByID returns the first attached element whose id attribute matches.
func (d *Document) GetElementByID(id string) (NodeID, bool) {
	found := InvalidNode
	d.Walk(d.Root(), func(n NodeID) bool {
		if found != InvalidNode {
			return false
		}
		if v, ok := d.GetAttribute(n, "id"); ok && v == id {
			found = n
			return false
		}
		return true
	})
	return found, found != InvalidNode
}

// ElementsByTagName returns attached elements with the given tag in document order.
func (d *Document) ElementsByTagName(tag string) []NodeID {
	tag = strings.ToLower(tag)
	var out []NodeID
	d.Walk(d.Root(), func(n NodeID) bool {
		if d.IsElement(n) && d.nodes[n].TagName == tag {
			out = append(out, n)
		}
		return true
	})
	return out
}

func (d *Document) firstChildElement(parent NodeID, tag string) NodeID {
	for _, c := range d.Children(parent) {
		if d.IsElement(c) && d.nodes[c].TagName == tag {
			return c
		}
	}
	return InvalidNode
}

// DocumentElement returns the html element, or InvalidNode.
func (d *Document) DocumentElement() NodeID {
	return d.firstChildElement(d.Root(), "html")
}

// Head returns the head element, or InvalidNode.
func (d *Document) Head() NodeID {
	return d.firstChildElement(d.DocumentElement(), "head")
}

// Body returns the body element, or InvalidNode.
func (d *Document) Body() NodeID {
	return d.firstChildElement(d.DocumentElement(), "body")
}

// Serialize returns the serialized markup of the children of id.
func (d *Document) Serialize(id NodeID) string {
	var sb strings.Builder
	for _, c := range d.Children(id) {
		d.serializeNode(&sb, c)
	}
	return sb.String()
}

// SerializeOuter returns the markup of id including its own tags.
func (d *Document) SerializeOuter(id NodeID) string {
	var sb strings.Builder
	d.serializeNode(&sb, id)
	return sb.String()
}

func (d *Document) serializeNode(sb *strings.Builder, id NodeID) {
	n := &d.nodes[id]
	switch n.Type {
	case TextNode:
		if p := n.Parent; p != InvalidNode && isRawTextElement(d.nodes[p].TagName) {
			sb.WriteString(n.Text)
		} else {
			sb.WriteString(escapeHTML(n.Text))
		}
		return
	case DocumentNode:
		for _, c := range n.Children {
			d.serializeNode(sb, c)
		}
		return
	}

	sb.WriteByte('<')
	sb.WriteString(n.TagName)

	// Sort attributes for deterministic output
	if len(n.Attributes) > 0 {
		keys := make([]string, 0, len(n.Attributes))
		for k := range n.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteByte(' ')
			sb.WriteString(k)
			sb.WriteString(`="`)
			sb.WriteString(escapeAttr(n.Attributes[k]))
			sb.WriteByte('"')
		}
	}
	sb.WriteByte('>')
	if isVoidElement(n.TagName) {
		return
	}
	for _, c := range n.Children {
		d.serializeNode(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(n.TagName)
	sb.WriteByte('>')
}

func escapeHTML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

func escapeAttr(s string) string {
	return strings.NewReplacer("&", "&amp;", `"`, "&quot;", "<", "&lt;", ">", "&gt;").Replace(s)
}

func isVoidElement(tag string) bool {
	switch tag {
	case "br", "hr", "img", "input", "meta", "link", "area", "base",
		"col", "embed", "param", "source", "track", "wbr":
		return true
	}
	return false
}

func isRawTextElement(tag string) bool {
	switch tag {
	case "script", "style", "textarea", "title":
		return true
	}
	return false
}
