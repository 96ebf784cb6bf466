package html

import (
	"errors"
	"strings"
	"testing"
)

// makeTree builds <div id="parent"><span>hello</span><p>world</p></div>
// under the document root.
func makeTree() (doc *Document, parent, span, p NodeID) {
	doc = NewDocument()
	parent = doc.CreateElement("div")
	doc.SetAttribute(parent, "id", "parent")
	span = doc.CreateElement("span")
	doc.AppendText(span, "hello")
	p = doc.CreateElement("p")
	doc.AppendText(p, "world")
	mustAppend(doc, doc.Root(), parent)
	mustAppend(doc, parent, span)
	mustAppend(doc, parent, p)
	return
}

func mustAppend(doc *Document, parent, child NodeID) {
	if err := doc.AppendChild(parent, child); err != nil {
		panic(err)
	}
}

func TestRemoveChild(t *testing.T) {
	doc, parent, span, p := makeTree()
	if err := doc.RemoveChild(parent, span); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}
	if doc.Parent(span) != InvalidNode {
		t.Error("removed child should have no parent")
	}
	kids := doc.Children(parent)
	if len(kids) != 1 || kids[0] != p {
		t.Errorf("remaining child should be <p>, got %v", kids)
	}
	if err := doc.RemoveChild(parent, span); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound removing a non-child, got %v", err)
	}
}

func TestAppendChildMovesNode(t *testing.T) {
	doc, parent, span, p := makeTree()
	if err := doc.AppendChild(p, span); err != nil {
		t.Fatalf("AppendChild: %v", err)
	}
	if doc.Parent(span) != p {
		t.Errorf("expected span to move under p")
	}
	if len(doc.Children(parent)) != 1 {
		t.Errorf("expected span to be detached from old parent")
	}
}

func TestAppendChildRejectsCycles(t *testing.T) {
	doc, parent, span, _ := makeTree()
	if err := doc.AppendChild(span, parent); !errors.Is(err, ErrHierarchy) {
		t.Errorf("expected ErrHierarchy, got %v", err)
	}
	if err := doc.AppendChild(span, span); !errors.Is(err, ErrHierarchy) {
		t.Errorf("expected ErrHierarchy for self insertion, got %v", err)
	}
	text := doc.Children(span)[0]
	if err := doc.AppendChild(text, doc.CreateElement("b")); !errors.Is(err, ErrHierarchy) {
		t.Errorf("text nodes cannot have children, got %v", err)
	}
}

func TestTextContent(t *testing.T) {
	doc, parent, span, _ := makeTree()
	if got := doc.TextContent(parent); got != "helloworld" {
		t.Errorf("expected helloworld, got %q", got)
	}
	doc.SetTextContent(span, "bye")
	if got := doc.TextContent(parent); got != "byeworld" {
		t.Errorf("expected byeworld, got %q", got)
	}
	doc.SetTextContent(span, "")
	if len(doc.Children(span)) != 0 {
		t.Error("empty text content should leave no children")
	}
}

func TestGetElementByID(t *testing.T) {
	doc, parent, _, _ := makeTree()
	got, ok := doc.GetElementByID("parent")
	if !ok || got != parent {
		t.Errorf("expected parent, got %v %v", got, ok)
	}
	detached := doc.CreateElement("i")
	doc.SetAttribute(detached, "id", "ghost")
	if _, ok := doc.GetElementByID("ghost"); ok {
		t.Error("detached elements must not be found")
	}
}

func TestGenerationChangesOnMutation(t *testing.T) {
	doc, _, span, _ := makeTree()
	g := doc.Generation()
	doc.SetAttribute(span, "class", "x")
	if doc.Generation() == g {
		t.Error("SetAttribute must bump the generation")
	}
	g = doc.Generation()
	_ = doc.TextContent(span)
	if doc.Generation() != g {
		t.Error("reads must not bump the generation")
	}
}

func TestSerialize(t *testing.T) {
	doc, parent, _, _ := makeTree()
	want := `<div id="parent"><span>hello</span><p>world</p></div>`
	if got := doc.SerializeOuter(parent); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	doc.SetAttribute(parent, "title", `a"b`)
	br := doc.CreateElement("br")
	mustAppend(doc, parent, br)
	mustAppend(doc, parent, doc.CreateTextNode("1 < 2"))
	want = `<span>hello</span><p>world</p><br>1 &lt; 2`
	if got := doc.Serialize(parent); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got := doc.SerializeOuter(parent); !strings.HasPrefix(got, `<div id="parent" title="a&quot;b"><span>`) {
		t.Errorf("unexpected attribute serialization %s", got)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	src := `<html><head><style>p > a { color: red }</style></head><body><p class="x">a &amp; b</p></body></html>`
	doc := ParseString(src)
	if got := doc.Serialize(doc.Root()); got != src {
		t.Errorf("expected %s, got %s", src, got)
	}
}
