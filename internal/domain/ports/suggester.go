package ports

import (
	"context"

	"autolike/internal/domain/entity"
)

// CommentSuggester drafts comment variants for the current video.
type CommentSuggester interface {
	Suggest(ctx context.Context, req entity.CommentRequest) ([]string, error)
}
