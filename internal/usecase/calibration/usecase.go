// Package calibration walks the user through clicking each page element the
// watcher needs and stores a locator for every one of them.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/locator"
	"autolike/internal/domain/ports"
)

type Step struct {
	Role        entity.Role
	Instruction string
}

// Steps is the capture order.
var Steps = []Step{
	{entity.RoleLikeButton, "Click the LIKE button"},
	{entity.RoleDislikeButton, "Click the DISLIKE button"},
	{entity.RoleChannelName, "Click the CHANNEL NAME"},
	{entity.RoleCommentPlaceholder, `Click "Add a comment..."`},
	{entity.RoleCommentInput, "Click inside the comment input"},
	{entity.RoleCommentSubmit, `Click the "Comment" button`},
}

// ClickSourceFactory opens a capture session on the current page.
type ClickSourceFactory func(ctx context.Context) (ports.ClickSource, error)

type UseCase struct {
	doc       ports.Document
	openClick ClickSourceFactory
	store     ports.Store
	ui        ports.UserInteraction
	logger    ports.Logger
	genOpts   []locator.Option
}

func New(
	doc ports.Document,
	openClick ClickSourceFactory,
	store ports.Store,
	ui ports.UserInteraction,
	logger ports.Logger,
	genOpts ...locator.Option,
) *UseCase {
	if logger == nil {
		logger = ports.NopLogger()
	}
	return &UseCase{
		doc:       doc,
		openClick: openClick,
		store:     store,
		ui:        ui,
		logger:    logger,
		genOpts:   append(slices.Clone(genOpts), locator.WithLogger(logger)),
	}
}

// Run captures every step and saves the set only once all of them are
// done. Escape or a cancelled context leaves the stored selectors untouched.
func (uc *UseCase) Run(ctx context.Context) (entity.SelectorSet, error) {
	clicks, err := uc.openClick(ctx)
	if err != nil {
		return entity.SelectorSet{}, fmt.Errorf("open click source: %w", err)
	}
	defer func() {
		if err := clicks.Close(); err != nil {
			uc.logger.Warn("Click source close failed", "error", err)
		}
	}()

	uc.logger.Info("Calibration started")
	gen := locator.NewGenerator(uc.doc, uc.genOpts...)
	captured := entity.NewSelectorSet()

	for i := 0; i < len(Steps); {
		step := Steps[i]
		instruction := fmt.Sprintf("STEP %d/%d: %s", i+1, len(Steps), step.Instruction)
		uc.ui.ShowStep(ctx, i+1, len(Steps), step.Instruction)
		if err := clicks.Highlight(ctx, instruction); err != nil {
			uc.logger.Warn("Instruction banner failed", "error", err)
		}

		el, err := clicks.NextClick(ctx)
		if err != nil {
			if errors.Is(err, ports.ErrCalibrationAborted) || ctx.Err() != nil {
				uc.ui.ShowResult(ctx, "Calibration cancelled", true)
				uc.logger.Info("Calibration aborted", "step", i+1)
				return entity.SelectorSet{}, ports.ErrCalibrationAborted
			}
			return entity.SelectorSet{}, fmt.Errorf("step %d: %w", i+1, err)
		}

		loc := gen.Generate(InteractiveTarget(el))
		if loc.IsEmpty() {
			uc.ui.ShowResult(ctx, "Could not build a locator for that element, try again", true)
			continue
		}
		captured.Set(step.Role, loc)
		uc.logger.Info("Locator captured", "role", step.Role, "locator", loc)
		uc.ui.ShowResult(ctx, fmt.Sprintf("%s captured: %s", step.Role, loc), false)
		i++
	}

	merged, err := uc.store.SaveCustomSelectors(ctx, captured)
	if err != nil {
		uc.ui.ShowResult(ctx, "Saving selectors failed", true)
		return entity.SelectorSet{}, fmt.Errorf("save selectors: %w", err)
	}
	uc.ui.ShowResult(ctx, "Configuration saved", false)
	return merged, nil
}

// InteractiveTarget climbs from a clicked node (often an icon inside the
// real control) to the closest button, link or element with a button or
// link role. It returns el when there is none.
func InteractiveTarget(el ports.Element) ports.Element {
	for cur := el; cur != nil; cur = cur.Parent() {
		switch cur.TagName() {
		case "button", "a":
			return cur
		}
		if role, ok := cur.Attribute("role"); ok && (role == "button" || role == "link") {
			return cur
		}
	}
	return el
}
