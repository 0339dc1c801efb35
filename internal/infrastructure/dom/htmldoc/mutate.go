package htmldoc

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"autolike/internal/domain/ports"
)

// AppendHTML parses fragment in the context of parent and appends the
// resulting nodes, reporting a childList mutation the way a SPA render does.
func (d *Document) AppendHTML(parent ports.Element, fragment string) ([]ports.Element, error) {
	p, ok := parent.(*Element)
	if !ok || p == nil || p.doc != d {
		return nil, fmt.Errorf("append: parent does not belong to this document")
	}

	d.mu.Lock()
	ctxName := p.node.Data
	if name, ok := d.localNames[p.node]; ok {
		ctxName = name
	}
	ctxNode := &html.Node{
		Type:      html.ElementNode,
		Data:      ctxName,
		DataAtom:  atom.Lookup([]byte(p.node.Data)),
		Namespace: p.node.Namespace,
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctxNode)
	if err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("append: parse fragment: %w", err)
	}
	var added []ports.Element
	for _, n := range nodes {
		d.foldForeignNames(n)
		p.node.AppendChild(n)
		if n.Type == html.ElementNode {
			added = append(added, d.wrap(n))
		}
	}
	inTitle := p.node.Data == "title"
	d.mu.Unlock()

	d.notifyFor(inTitle)
	return added, nil
}

// AppendToSelector is AppendHTML on the first element matching selector.
func (d *Document) AppendToSelector(selector, fragment string) ([]ports.Element, error) {
	matches, err := d.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("append: no element matches %q", selector)
	}
	return d.AppendHTML(matches[0], fragment)
}

// Remove detaches el from the tree.
func (d *Document) Remove(el ports.Element) error {
	e, ok := el.(*Element)
	if !ok || e == nil || e.doc != d {
		return fmt.Errorf("remove: element does not belong to this document")
	}

	d.mu.Lock()
	parent := e.node.Parent
	if parent == nil {
		d.mu.Unlock()
		return nil
	}
	parent.RemoveChild(e.node)
	inTitle := parent.Data == "title"
	d.mu.Unlock()

	d.notifyFor(inTitle)
	return nil
}

// SetAttribute sets or replaces an attribute. Attribute changes are not
// childList mutations, so no observer is notified.
func (d *Document) SetAttribute(el ports.Element, name, value string) error {
	e, ok := el.(*Element)
	if !ok || e == nil || e.doc != d {
		return fmt.Errorf("set attribute: element does not belong to this document")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for i, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			e.node.Attr[i].Val = value
			return nil
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

// SetTitle replaces the <title> text, notifying title observers.
func (d *Document) SetTitle(title string) error {
	d.mu.Lock()
	n := findTag(d.root, "title")
	if n == nil {
		d.mu.Unlock()
		return fmt.Errorf("set title: no <title> element")
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	d.mu.Unlock()

	d.notify(ports.MutationTitle)
	return nil
}

// SetURL changes the location without any mutation, like history.pushState.
func (d *Document) SetURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("set url: %w", err)
	}
	d.mu.Lock()
	d.loc = u
	d.mu.Unlock()
	return nil
}

// Navigate simulates a SPA route change: the URL moves first, then the title.
func (d *Document) Navigate(rawURL, title string) error {
	if err := d.SetURL(rawURL); err != nil {
		return err
	}
	return d.SetTitle(title)
}

func (d *Document) notifyFor(inTitle bool) {
	if inTitle {
		d.notify(ports.MutationTitle)
		return
	}
	d.notify(ports.MutationBody)
}
