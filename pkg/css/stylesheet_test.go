package css

import (
	"testing"

	douceur "github.com/aymerick/douceur/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStylesheet_SingleRule(t *testing.T) {
	ss := ParseStylesheet(`div { color: red; }`)
	if len(ss.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(ss.Rules))
	}
	rule := ss.Rules[0]
	if rule.Selector.Type != ElementSelector || rule.Selector.Value != "div" {
		t.Errorf("expected element selector div, got %v", rule.Selector)
	}
	if len(rule.Declarations) != 1 || rule.Declarations[0] != (Declaration{Property: "color", Value: "red"}) {
		t.Errorf("unexpected declarations %v", rule.Declarations)
	}
}

func TestParseSelector_Kinds(t *testing.T) {
	tests := []struct {
		css         string
		typ         SelectorType
		value       string
		specificity int
	}{
		{"DIV {}", ElementSelector, "div", 1},
		{".highlight {}", ClassSelector, "highlight", 10},
		{"#header {}", IDSelector, "header", 100},
	}
	for _, tt := range tests {
		t.Run(tt.css, func(t *testing.T) {
			ss := ParseStylesheet(tt.css)
			if len(ss.Rules) != 1 {
				t.Fatalf("expected 1 rule, got %d", len(ss.Rules))
			}
			sel := ss.Rules[0].Selector
			if sel.Type != tt.typ || sel.Value != tt.value || sel.Specificity != tt.specificity {
				t.Errorf("expected %v %q %d, got %v %q %d", tt.typ, tt.value, tt.specificity,
					sel.Type, sel.Value, sel.Specificity)
			}
		})
	}
}

func TestParseSelectors(t *testing.T) {
	sels, ok := ParseSelectors("p, .note,#top")
	require.True(t, ok)
	require.Len(t, sels, 3)
	assert.Equal(t, Selector{Type: ClassSelector, Value: "note", Specificity: 10}, sels[1])

	for _, bad := range []string{"", "div p", "a:hover", "p,"} {
		_, ok := ParseSelectors(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseStylesheet_SelectorGroupSharesSourceIndex(t *testing.T) {
	ss := ParseStylesheet(`h1, .title, #main { color: red } p { color: blue }`)
	require.Len(t, ss.Rules, 4)
	for _, r := range ss.Rules[:3] {
		assert.Equal(t, 0, r.SourceIndex)
	}
	assert.Equal(t, 1, ss.Rules[3].SourceIndex)
}

func TestParseStylesheet_DeclarationOrderAndImportant(t *testing.T) {
	ss := ParseStylesheet(`p { color: red !important; margin: 1px 2px; color: blue; font-family: "Times New Roman", serif }`)
	require.Len(t, ss.Rules, 1)
	var props []string
	for _, d := range ss.Rules[0].Declarations {
		props = append(props, d.Property)
	}
	assert.Equal(t, []string{"color", "margin-top", "margin-right", "margin-bottom", "margin-left", "color", "font-family"}, props)
	decls := ss.Rules[0].Declarations
	assert.Equal(t, Declaration{Property: "color", Value: "red", Important: true}, decls[0])
	assert.Equal(t, "2px", decls[2].Value)
	assert.Equal(t, `"Times New Roman", serif`, decls[6].Value)
}

func TestStylesheet_Append(t *testing.T) {
	a := ParseStylesheet(`p { color: red } div { color: red }`)
	b := ParseStylesheet(`p { color: blue }`)
	merged := &Stylesheet{}
	merged.Append(a)
	merged.Append(b)
	require.Len(t, merged.Rules, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{merged.Rules[0].SourceIndex, merged.Rules[1].SourceIndex, merged.Rules[2].SourceIndex})
}

func TestParseDeclarations_InlineStyle(t *testing.T) {
	decls := ParseDeclarations("color: red; ; padding: 1px 2px 3px; junk")
	require.Len(t, decls, 5)
	assert.Equal(t, "color", decls[0].Property)
	assert.Equal(t, Declaration{Property: "padding-left", Value: "2px"}, decls[4])
	assert.Equal(t, "3px", decls[3].Value)
}

// Well-formed sheets must produce the same rule preludes and declarations
// as an independent CSS parser.
func TestParseStylesheet_AgreesWithDouceur(t *testing.T) {
	sheets := []string{
		`p { color: red; } .a { background-color: #fff; width: 10px } #b { font-size: 2em; }`,
		`h1 { font-weight: bold } h2 { color: blue; text-decoration: underline }`,
		`div { width: 50%; height: 20px; white-space: pre }`,
	}
	for _, text := range sheets {
		ours := ParseStylesheet(text)
		theirs, err := douceur.Parse(text)
		require.NoError(t, err)
		require.Len(t, ours.Rules, len(theirs.Rules), text)
		for i, r := range theirs.Rules {
			assert.Equal(t, r.Prelude, ours.Rules[i].Selector.String())
			require.Len(t, ours.Rules[i].Declarations, len(r.Declarations))
			for j, d := range r.Declarations {
				assert.Equal(t, d.Property, ours.Rules[i].Declarations[j].Property)
				assert.Equal(t, d.Value, ours.Rules[i].Declarations[j].Value)
			}
		}
	}
}
