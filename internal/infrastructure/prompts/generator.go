// Package prompts renders the messages sent to the comment model.
package prompts

import (
	"bytes"
	"fmt"
	"strings"

	"autolike/internal/domain/entity"
)

type commentData struct {
	entity.CommentRequest
	Count int
}

// CommentUserPrompt asks for count comment variants about the video in req.
func CommentUserPrompt(req entity.CommentRequest, count int) (string, error) {
	var buf bytes.Buffer
	if err := commentUser.Execute(&buf, commentData{CommentRequest: req, Count: count}); err != nil {
		return "", fmt.Errorf("render comment prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
