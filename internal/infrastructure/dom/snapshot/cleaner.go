// Package snapshot turns a live page's HTML into a file the offline locator
// tools can load. Cleaning never removes an element that a locator could
// count: only tags that are never locator targets are dropped, and dropping
// them leaves every other tag's :nth-of-type index unchanged.
package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var ErrEmptyDocument = errors.New("snapshot: document has no <html> element")

type CleanConfig struct {
	TagsToRemove  []string
	AttrsToRemove []string
	// MaxOutputSize truncates the result; zero keeps everything.
	MaxOutputSize    int
	CustomAttrFilter func(attr html.Attribute) bool
}

var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "link", "meta", "iframe", "template",
	},
	AttrsToRemove: []string{
		"srcset", "sizes", "loading", "decoding", "fetchpriority", "nonce", "integrity",
	},
}

// Clean parses rawHTML, strips scripts, styles, comments and event
// handlers, and renders the whole document back.
func Clean(rawHTML string, cfg *CleanConfig) (string, error) {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("snapshot: parse: %w", err)
	}
	root := findNode(doc, "html")
	if root == nil {
		return "", ErrEmptyDocument
	}

	cleanNode(root, cfg)

	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", fmt.Errorf("snapshot: render: %w", err)
	}
	return truncateHTML("<!DOCTYPE html>\n"+sb.String(), cfg.MaxOutputSize), nil
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findNode(c, tag); b != nil {
			return b
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg *CleanConfig) {
	if n.Type == html.CommentNode {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}
	if n.Type != html.ElementNode {
		return
	}

	if isOneOf(n.Data, cfg.TagsToRemove...) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	n.Attr = filterAttributes(n.Attr, cfg)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}
}

func filterAttributes(attrs []html.Attribute, cfg *CleanConfig) []html.Attribute {
	var kept []html.Attribute
	for _, attr := range attrs {
		if shouldRemoveAttr(attr, cfg) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

// shouldRemoveAttr keeps id, class, role and aria-* since locators read them.
func shouldRemoveAttr(attr html.Attribute, cfg *CleanConfig) bool {
	key := attr.Key
	if isOneOf(key, cfg.AttrsToRemove...) {
		return true
	}
	if strings.HasPrefix(key, "on") {
		return true
	}
	if cfg.CustomAttrFilter != nil && cfg.CustomAttrFilter(attr) {
		return true
	}
	return false
}

func truncateHTML(htmlStr string, maxSize int) string {
	if maxSize > 0 && len(htmlStr) > maxSize {
		return htmlStr[:maxSize] + "\n<!-- snapshot truncated -->"
	}
	return htmlStr
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
