package css

import (
	"strings"

	"ember/pkg/html"
)

// MatchesSelector returns true if the element id matches selector.
func MatchesSelector(doc *html.Document, id html.NodeID, selector Selector) bool {
	if !doc.IsElement(id) {
		return false
	}
	switch selector.Type {
	case ElementSelector:
		return doc.TagName(id) == selector.Value
	case IDSelector:
		v, ok := doc.GetAttribute(id, "id")
		return ok && v == selector.Value
	case ClassSelector:
		classes, ok := doc.GetAttribute(id, "class")
		if !ok {
			return false
		}
		for _, c := range strings.Fields(classes) {
			if c == selector.Value {
				return true
			}
		}
	}
	return false
}

// FindMatchingRules returns the rules of stylesheet whose selector matches
// id, in source order.
func FindMatchingRules(doc *html.Document, id html.NodeID, stylesheet *Stylesheet) []Rule {
	var out []Rule
	for _, rule := range stylesheet.Rules {
		if MatchesSelector(doc, id, rule.Selector) {
			out = append(out, rule)
		}
	}
	return out
}
