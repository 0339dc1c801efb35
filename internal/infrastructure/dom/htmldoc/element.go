package htmldoc

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"autolike/internal/domain/ports"
)

var (
	_ ports.Element    = (*Element)(nil)
	_ ports.Actionable = (*Element)(nil)
)

// Element wraps one *html.Node. Two wrappers of the same node are Equal.
type Element struct {
	doc  *Document
	node *html.Node
}

// Node exposes the wrapped node.
func (e *Element) Node() *html.Node { return e.node }

// TagName is the element's local name: lower case for HTML elements and
// the original case for foreign ones (clipPath, foreignObject).
func (e *Element) TagName() string {
	if e == nil || e.node == nil || e.node.Type != html.ElementNode {
		return ""
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	if name, ok := e.doc.localNames[e.node]; ok {
		return name
	}
	return e.node.Data
}

func (e *Element) ID() string {
	v, _ := e.Attribute("id")
	return v
}

func (e *Element) ClassList() []string {
	v, ok := e.Attribute("class")
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

func (e *Element) Attribute(name string) (string, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return attr(e.node, name)
}

func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return textContent(e.node)
}

func (e *Element) Parent() ports.Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

func (e *Element) Children() []ports.Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	var out []ports.Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

func (e *Element) IsConnected() bool {
	if e == nil || e.node == nil {
		return false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.connectedLocked()
}

func (e *Element) connectedLocked() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

// noBoxTags never generate a layout box.
var noBoxTags = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"title": true, "meta": true, "link": true, "noscript": true,
}

func (e *Element) CheckVisibility() (bool, bool) {
	if !e.doc.visibilityAPI {
		return false, false
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	if !e.connectedLocked() {
		return false, true
	}
	for n := e.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if hasNoBox(n) {
			return false, true
		}
		style := parseInlineStyle(n)
		if style["visibility"] == "hidden" || style["visibility"] == "collapse" {
			return false, true
		}
		if op, ok := style["opacity"]; ok {
			if f, err := strconv.ParseFloat(op, 64); err == nil && f <= 0 {
				return false, true
			}
		}
	}
	return true, true
}

func (e *Element) HasLayoutBox() bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	if !e.connectedLocked() {
		return false
	}
	for n := e.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if hasNoBox(n) {
			return false
		}
	}
	return true
}

func (e *Element) Equal(other ports.Element) bool {
	o, ok := other.(*Element)
	if !ok || o == nil || e == nil {
		return false
	}
	return e.node == o.node
}

func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.doc.clickMu.Lock()
	hooks := append([]func(ports.Element){}, e.doc.onClick...)
	e.doc.clickMu.Unlock()

	for _, fn := range hooks {
		fn(e)
	}
	return nil
}

// SetText replaces the element content with a single text node, the way
// setting innerText does, and reports a childList mutation.
func (e *Element) SetText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.doc.mu.Lock()
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	e.doc.mu.Unlock()

	e.doc.notify(ports.MutationBody)
	return nil
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	return ctx.Err()
}

func hasNoBox(n *html.Node) bool {
	if noBoxTags[strings.ToLower(n.Data)] {
		return true
	}
	if _, hidden := attr(n, "hidden"); hidden {
		return true
	}
	return parseInlineStyle(n)["display"] == "none"
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// parseInlineStyle reads the declarations of the style attribute. Only the
// inline declarations are considered; there is no cascade.
func parseInlineStyle(n *html.Node) map[string]string {
	raw, ok := attr(n, "style")
	if !ok || raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, decl := range strings.Split(raw, ";") {
		k, v, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "!important"))
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(v)
	}
	return out
}
