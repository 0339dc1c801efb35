package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
)

const pressedClass = "style-default-active"

func (r *Resolver) LikeButton(custom entity.Locator) ports.Element {
	return r.Resolve(entity.RoleLikeButton, custom)
}

func (r *Resolver) DislikeButton(custom entity.Locator) ports.Element {
	return r.Resolve(entity.RoleDislikeButton, custom)
}

// IsPressed reports the toggle state of a like or dislike button.
func IsPressed(el ports.Element) bool {
	if el == nil {
		return false
	}
	if v, ok := el.Attribute("aria-pressed"); ok && v == "true" {
		return true
	}
	return slices.Contains(el.ClassList(), pressedClass)
}

// ChannelName waits for the channel label and returns its trimmed text.
// Labels that are empty or look like a hashtag send the lookup to the
// fallback locators.
func (r *Resolver) ChannelName(ctx context.Context, custom entity.Locator) (string, error) {
	if candidates := r.candidates(entity.RoleChannelName, custom); len(candidates) > 0 {
		el, err := r.WaitFor(ctx, candidates, r.cfg.Timeouts.ElementSearch)
		switch {
		case err == nil:
			if name := strings.TrimSpace(el.Text()); validChannelName(name) {
				return name, nil
			}
			r.log.Debug("resolver: channel label rejected, trying fallbacks", "text", el.Text())
		case errors.Is(err, ErrNavigated), ctx.Err() != nil:
			return "", err
		default:
			r.log.Debug("resolver: channel label not found, trying fallbacks", "error", err)
		}
	}

	if len(r.cfg.ChannelFallback) == 0 {
		return "", fmt.Errorf("channel name: %w", ErrElementNotFound)
	}
	el, err := r.WaitFor(ctx, r.cfg.ChannelFallback, r.cfg.Timeouts.CommentStep)
	if err != nil {
		return "", fmt.Errorf("channel name: %w", err)
	}
	name := strings.TrimSpace(el.Text())
	if !validChannelName(name) {
		return "", fmt.Errorf("channel name %q: %w", name, ErrElementNotFound)
	}
	return name, nil
}

func validChannelName(name string) bool {
	return name != "" && !strings.HasPrefix(name, "#")
}

// PrepareCommentInput scrolls to the comments, opens the editor through its
// placeholder and returns the editable input.
func (r *Resolver) PrepareCommentInput(ctx context.Context, placeholder, input entity.Locator) (ports.Element, error) {
	if !r.cfg.CommentsSection.IsEmpty() {
		if section := r.find([]entity.Locator{r.cfg.CommentsSection}); section != nil {
			if act, ok := section.(ports.Actionable); ok {
				if err := act.ScrollIntoView(ctx); err != nil {
					r.log.Debug("resolver: scroll to comments failed", "error", err)
				}
			}
		}
	}

	trigger, err := r.WaitFor(ctx, r.candidates(entity.RoleCommentPlaceholder, placeholder), r.cfg.Timeouts.CommentStep)
	switch {
	case err == nil:
		if IsVisible(trigger) {
			if err := Click(ctx, trigger); err != nil {
				return nil, fmt.Errorf("open comment editor: %w", err)
			}
		}
	case errors.Is(err, ErrNavigated), ctx.Err() != nil:
		return nil, err
	default:
		r.log.Debug("resolver: comment placeholder not found", "error", err)
	}

	field, err := r.WaitFor(ctx, r.candidates(entity.RoleCommentInput, input), r.cfg.Timeouts.CommentStep)
	if err != nil {
		return nil, fmt.Errorf("comment input: %w", err)
	}
	return field, nil
}

// FillCommentInput replaces the editor content with text.
func (r *Resolver) FillCommentInput(ctx context.Context, field ports.Element, text string) error {
	act, ok := field.(ports.Actionable)
	if !ok {
		return ErrNotActionable
	}
	if err := act.SetText(ctx, text); err != nil {
		return fmt.Errorf("fill comment: %w", err)
	}
	return nil
}

// SubmitCommentButton waits briefly for the submit button. A disabled
// button is still returned.
func (r *Resolver) SubmitCommentButton(ctx context.Context, custom entity.Locator) (ports.Element, error) {
	btn, err := r.WaitFor(ctx, r.candidates(entity.RoleCommentSubmit, custom), r.cfg.Timeouts.SubmitWait)
	if err != nil {
		return nil, fmt.Errorf("comment submit: %w", err)
	}
	if _, disabled := btn.Attribute("disabled"); disabled {
		r.log.Warn("resolver: comment submit button is disabled")
	}
	return btn, nil
}

// Click drives el when the document supports it.
func Click(ctx context.Context, el ports.Element) error {
	act, ok := el.(ports.Actionable)
	if !ok {
		return ErrNotActionable
	}
	return act.Click(ctx)
}
