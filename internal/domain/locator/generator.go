// Package locator generates re-playable locators for elements a user picks
// on the page.
package locator

import (
	"fmt"
	"strings"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
)

const chainSeparator = " > "

type Generator struct {
	doc     ports.Document
	classes ClassFilter
	ids     IDFilter
	logger  ports.Logger
}

type Option func(*Generator)

func WithClassFilter(f ClassFilter) Option {
	return func(g *Generator) { g.classes = f }
}

func WithIDFilter(f IDFilter) Option {
	return func(g *Generator) { g.ids = f }
}

func WithLogger(l ports.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

func NewGenerator(doc ports.Document, opts ...Option) *Generator {
	g := &Generator{
		doc:     doc,
		classes: DefaultClassPatterns,
		ids:     DefaultIDPatterns,
		logger:  ports.NopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the shortest CSS chain, walking up from el, that matches
// exactly one element of the document. When the walk reaches <body> without
// becoming unique, positional :nth-of-type indices are forced instead.
// It returns "" for nil or detached elements.
func (g *Generator) Generate(el ports.Element) entity.Locator {
	if el == nil || !el.IsConnected() {
		return ""
	}
	tag := el.TagName()
	switch tag {
	case "":
		return ""
	case "html", "body":
		return entity.Locator(tag)
	}

	path := []string{g.localSelector(el)}
	nodes := []ports.Element{el}

	if strings.HasPrefix(path[0], "#") && g.isUnique(path) {
		return join(path)
	}

	for cur := el.Parent(); cur != nil && !isRoot(cur); cur = cur.Parent() {
		path = append([]string{g.localSelector(cur)}, path...)
		nodes = append([]ports.Element{cur}, nodes...)
		if g.isUnique(path) {
			return join(path)
		}
	}

	return g.forceIndex(path, nodes)
}

// localSelector builds one chain segment: stable id, then filtered classes,
// then tag with role attribute, then bare tag.
func (g *Generator) localSelector(el ports.Element) string {
	if id := el.ID(); g.isIDStable(id) {
		return "#" + escapeIdent(id)
	}

	tag := el.TagName()
	if classes := g.stableClasses(el); len(classes) > 0 {
		var b strings.Builder
		b.WriteString(tag)
		for _, c := range classes {
			b.WriteByte('.')
			b.WriteString(escapeIdent(c))
		}
		return b.String()
	}

	if role, ok := el.Attribute("role"); ok && role != "" {
		return tag + "[role=" + quoteString(role) + "]"
	}
	return tag
}

func (g *Generator) isIDStable(id string) bool {
	if id == "" {
		return false
	}
	return !g.ids.IsVolatileID(id)
}

func (g *Generator) stableClasses(el ports.Element) []string {
	var out []string
	for _, c := range el.ClassList() {
		if c == "" || g.classes.IsVolatileClass(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (g *Generator) isUnique(path []string) bool {
	sel := strings.Join(path, chainSeparator)
	matches, err := g.doc.QuerySelectorAll(sel)
	if err != nil {
		g.logger.Warn("locator: candidate chain rejected by document", "selector", sel, "error", err)
		return false
	}
	return len(matches) == 1
}

// forceIndex disambiguates by position. The target segment is indexed first;
// if the chain is still ambiguous every segment is indexed bottom-up and the
// chain is finally anchored at the root container, which is unique by
// construction.
func (g *Generator) forceIndex(path []string, nodes []ports.Element) entity.Locator {
	indexed := make([]string, len(path))
	copy(indexed, path)

	last := len(path) - 1
	indexed[last] = path[last] + nthOfType(nodes[last])
	if g.isUnique(indexed) {
		return join(indexed)
	}

	for i := last - 1; i >= 0; i-- {
		indexed[i] = path[i] + nthOfType(nodes[i])
		if g.isUnique(indexed) {
			return join(indexed)
		}
	}

	anchor := "body"
	if p := nodes[0].Parent(); p != nil && p.TagName() != "" {
		anchor = p.TagName()
	}
	g.logger.Debug("locator: anchored positional chain", "anchor", anchor, "segments", len(indexed))
	return join(append([]string{anchor}, indexed...))
}

func nthOfType(el ports.Element) string {
	return fmt.Sprintf(":nth-of-type(%d)", indexAmongSameTag(el))
}

// indexAmongSameTag is the 1-based position of el among its parent's element
// children sharing its tag.
func indexAmongSameTag(el ports.Element) int {
	parent := el.Parent()
	if parent == nil {
		return 1
	}
	tag := el.TagName()
	idx := 1
	for _, sib := range parent.Children() {
		if sib.Equal(el) {
			return idx
		}
		if sib.TagName() == tag {
			idx++
		}
	}
	return idx
}

func isRoot(el ports.Element) bool {
	tag := el.TagName()
	return tag == "body" || tag == "html"
}

func join(path []string) entity.Locator {
	return entity.Locator(strings.Join(path, chainSeparator))
}
