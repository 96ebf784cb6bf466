package page

import (
	"ember/pkg/html"
	stdnet "ember/std/net"
)

// LinkAt returns the absolute target of the link under the point (x, y)
// in document coordinates. The innermost anchor wins.
func (p *Page) LinkAt(x, y float64) (string, bool) {
	root := p.Root()
	if root == nil {
		return "", false
	}
	hit := root.HitTest(x, y)
	if hit == nil {
		return "", false
	}
	for id := hit.Node; id != html.InvalidNode; id = p.doc.Parent(id) {
		if p.doc.TagName(id) != "a" {
			continue
		}
		href, ok := p.doc.GetAttribute(id, "href")
		if !ok {
			continue
		}
		if p.url == "" || p.url == "about:blank" {
			return href, true
		}
		return stdnet.ResolveURL(p.url, href), true
	}
	return "", false
}
