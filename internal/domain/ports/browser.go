package ports

import "context"

type Browser interface {
	Navigate(ctx context.Context, url string) error
	Document() Document
	CurrentURL() string
	// CaptureElement returns an encoded image of el's bounding box.
	CaptureElement(ctx context.Context, el Element) ([]byte, error)
	Close()
}

// ClickSource yields the elements a user clicks while calibrating.
type ClickSource interface {
	// NextClick blocks until the user clicks an element. It returns
	// ErrCalibrationAborted when the user presses Escape.
	NextClick(ctx context.Context) (Element, error)
	Highlight(ctx context.Context, instruction string) error
	Close() error
}
