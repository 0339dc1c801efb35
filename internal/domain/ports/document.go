package ports

import (
	"context"
	"net/url"
)

// Element is a live node of the current document. Implementations never
// return errors from accessors: an element whose backing node is gone
// reports zero values and IsConnected() == false.
type Element interface {
	TagName() string
	ID() string
	ClassList() []string
	Attribute(name string) (string, bool)
	Text() string

	// Parent returns nil for the document element or a detached node.
	Parent() Element
	// Children returns element children in document order.
	Children() []Element

	IsConnected() bool
	// CheckVisibility reports CSS visibility (display, visibility, opacity).
	// supported is false when the backing document cannot compute it.
	CheckVisibility() (visible, supported bool)
	// HasLayoutBox reports non-zero box dimensions or at least one client rect.
	HasLayoutBox() bool

	Equal(other Element) bool
}

// Actionable is implemented by elements the orchestration layer can drive.
type Actionable interface {
	Click(ctx context.Context) error
	SetText(ctx context.Context, text string) error
	ScrollIntoView(ctx context.Context) error
}

type MutationTarget int

const (
	// MutationBody watches childList changes over the whole body subtree.
	MutationBody MutationTarget = iota
	// MutationTitle watches childList changes of the <title> node.
	MutationTitle
)

func (t MutationTarget) String() string {
	switch t {
	case MutationBody:
		return "body"
	case MutationTitle:
		return "title"
	default:
		return "unknown"
	}
}

// Document is the current page as seen by the locator engine.
type Document interface {
	QuerySelectorAll(selector string) ([]Element, error)
	EvaluateXPath(expr string) ([]Element, error)

	Body() Element
	Title() string
	Location() (*url.URL, error)

	// ObserveMutations calls fn once per batch of mutations on target until
	// the returned disconnect func is called. disconnect is idempotent.
	ObserveMutations(target MutationTarget, fn func()) (disconnect func(), err error)
}
