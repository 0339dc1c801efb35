package entity

import "strings"

// Locator is a persisted way of finding one element again: either a CSS
// chain ("#x > button.primary") or a structural path ("/html/body[1]/div[2]").
type Locator string

func (l Locator) String() string { return string(l) }

func (l Locator) IsEmpty() bool { return strings.TrimSpace(string(l)) == "" }

// IsXPath reports whether the locator must be evaluated as XPath rather than
// as a CSS selector.
func (l Locator) IsXPath() bool {
	trimmed := strings.TrimSpace(string(l))
	return strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "(")
}
