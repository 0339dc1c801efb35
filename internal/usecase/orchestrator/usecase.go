// Package orchestrator reacts to every video the watcher lands on: it reads
// the channel, decides, waits and then likes, dislikes or asks.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"autolike/internal/domain/decision"
	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
	"autolike/internal/domain/resolver"
)

const (
	consentPause = 500 * time.Millisecond
	commentPause = time.Second
	fillSettle   = 600 * time.Millisecond
	titleSuffix  = " - YouTube"
)

// ErrVideoChanged aborts the work for a video the user already left.
var ErrVideoChanged = errors.New("video changed")

// Calibrator runs the guided selector capture.
type Calibrator interface {
	Run(ctx context.Context) (entity.SelectorSet, error)
}

// SuggesterFactory builds a comment suggester from the stored AI settings.
type SuggesterFactory func(cfg entity.AIConfig) (ports.CommentSuggester, error)

type UseCase struct {
	resolver   *resolver.Resolver
	doc        ports.Document
	store      ports.Store
	ui         ports.UserInteraction
	calibrator Calibrator
	suggester  SuggesterFactory
	logger     ports.Logger
	rng        *rand.Rand
	sleep      func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	current string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type Option func(*UseCase)

func WithCalibrator(c Calibrator) Option { return func(uc *UseCase) { uc.calibrator = c } }

func WithSuggester(f SuggesterFactory) Option { return func(uc *UseCase) { uc.suggester = f } }

func WithRand(r *rand.Rand) Option { return func(uc *UseCase) { uc.rng = r } }

// WithSleep replaces the context-aware wait between steps.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(uc *UseCase) { uc.sleep = fn }
}

func New(
	res *resolver.Resolver,
	doc ports.Document,
	store ports.Store,
	ui ports.UserInteraction,
	logger ports.Logger,
	opts ...Option,
) *UseCase {
	if logger == nil {
		logger = ports.NopLogger()
	}
	uc := &UseCase{
		resolver: res,
		doc:      doc,
		store:    store,
		ui:       ui,
		logger:   logger,
		sleep:    sleep,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Watch handles every video until ctx is done. A new video cancels the
// work still running for the previous one.
func (uc *UseCase) Watch(ctx context.Context) error {
	uc.logger.Info("Watcher starting")
	err := uc.resolver.Start(func(videoID string) {
		uc.dispatch(ctx, videoID)
	})
	if err != nil {
		return fmt.Errorf("start navigation observer: %w", err)
	}

	<-ctx.Done()
	uc.resolver.Stop()

	uc.mu.Lock()
	if uc.cancel != nil {
		uc.cancel()
	}
	uc.mu.Unlock()
	uc.wg.Wait()

	uc.logger.Info("Watcher stopped")
	return nil
}

func (uc *UseCase) dispatch(parent context.Context, videoID string) {
	ctx, cancel := context.WithCancel(parent)

	uc.mu.Lock()
	if uc.cancel != nil {
		uc.cancel()
	}
	uc.cancel = cancel
	uc.mu.Unlock()

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		defer cancel()
		if err := uc.HandleVideo(ctx, videoID); err != nil && !isAbort(err) {
			uc.logger.Error("Video handling failed", "video_id", videoID, "error", err)
		}
	}()
}

func isAbort(err error) bool {
	return errors.Is(err, ErrVideoChanged) ||
		errors.Is(err, resolver.ErrNavigated) ||
		errors.Is(err, context.Canceled)
}

// HandleVideo runs the whole flow for one video.
func (uc *UseCase) HandleVideo(ctx context.Context, videoID string) error {
	uc.mu.Lock()
	uc.current = videoID
	uc.mu.Unlock()

	log := uc.logger.With("video_id", videoID)
	log.Info("New video detected")

	cfg, err := uc.store.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.IsEnabled {
		log.Debug("Watcher disabled in config")
		return nil
	}

	if !cfg.CustomSelectors.Has(entity.RequiredRoles...) {
		return uc.onboard(ctx, log)
	}

	channelLoc, _ := cfg.CustomSelectors.Get(entity.RoleChannelName)
	channel, err := uc.resolver.ChannelName(ctx, channelLoc)
	if err != nil {
		if isAbort(err) {
			return err
		}
		log.Warn("Channel name not found", "error", err)
		return nil
	}
	if err := uc.checkCurrent(ctx, videoID); err != nil {
		return err
	}

	engine := decision.NewEngine(cfg)
	d := engine.Decide(channel)
	wait := engine.ComputeDelay(uc.rng)
	log = log.With("channel", channel)
	log.Info("Decision made", "decision", d.String(), "wait", wait)

	v := video{id: videoID, channel: channel, cfg: cfg, log: log}
	switch d {
	case decision.Like:
		if err := uc.sleep(ctx, wait); err != nil {
			return err
		}
		if err := uc.checkCurrent(ctx, videoID); err != nil {
			return err
		}
		return uc.likeAndComment(ctx, v, entity.StatAuto, entity.ActionAutoLike)

	case decision.Skip:
		if err := uc.store.IncrementStat(ctx, entity.StatSkipped); err != nil {
			return fmt.Errorf("count skip: %w", err)
		}
		log.Info("Video skipped (blacklist)")
		return nil

	case decision.AskConsent:
		return uc.askConsent(ctx, v)
	}
	return nil
}

type video struct {
	id      string
	channel string
	cfg     entity.AppConfig
	log     ports.Logger
}

func (uc *UseCase) onboard(ctx context.Context, log ports.Logger) error {
	log.Info("Required selectors missing, starting calibration")
	if uc.calibrator == nil {
		uc.ui.ShowResult(ctx, "Calibration required: run the calibrate command", true)
		return nil
	}
	uc.ui.ShowResult(ctx, "Configuration required: click LIKE, DISLIKE, the channel name and the comment areas", false)
	if _, err := uc.calibrator.Run(ctx); err != nil {
		if errors.Is(err, ports.ErrCalibrationAborted) {
			log.Warn("Calibration aborted")
			return nil
		}
		return fmt.Errorf("calibration: %w", err)
	}
	return nil
}

func (uc *UseCase) askConsent(ctx context.Context, v video) error {
	answer, err := uc.ui.AskConsent(ctx, v.channel)
	if err != nil {
		return fmt.Errorf("ask consent: %w", err)
	}
	if err := uc.checkCurrent(ctx, v.id); err != nil {
		return err
	}

	if answer.Like {
		if answer.Remember {
			if err := uc.remember(ctx, v.channel, true); err != nil {
				return err
			}
			uc.ui.ShowResult(ctx, "Added to whitelist", false)
		}
		if err := uc.pause(ctx, v.id, consentPause); err != nil {
			return err
		}
		return uc.likeAndComment(ctx, v, entity.StatManual, entity.ActionManualLike)
	}

	if answer.Remember {
		if err := uc.remember(ctx, v.channel, false); err != nil {
			return err
		}
		uc.ui.ShowResult(ctx, "Channel blacklisted and disliked", false)
	}
	if err := uc.pause(ctx, v.id, consentPause); err != nil {
		return err
	}
	return uc.dislike(ctx, v)
}

func (uc *UseCase) likeAndComment(ctx context.Context, v video, stat entity.StatKind, action entity.HistoryAction) error {
	custom, _ := v.cfg.CustomSelectors.Get(entity.RoleLikeButton)
	btn := uc.resolver.LikeButton(custom)
	if btn == nil {
		v.log.Warn("Like button not found")
		return nil
	}

	if resolver.IsPressed(btn) {
		v.log.Info("Video already liked")
	} else {
		if err := resolver.Click(ctx, btn); err != nil {
			uc.ui.ShowResult(ctx, "Like failed: "+err.Error(), true)
			return fmt.Errorf("click like: %w", err)
		}
		if err := uc.record(ctx, v, stat, action); err != nil {
			return err
		}
		uc.ui.ShowResult(ctx, "Liked "+v.channel, false)
		v.log.Info("Like done")
	}

	return uc.commentFlow(ctx, v)
}

func (uc *UseCase) dislike(ctx context.Context, v video) error {
	custom, _ := v.cfg.CustomSelectors.Get(entity.RoleDislikeButton)
	btn := uc.resolver.DislikeButton(custom)
	if btn == nil || resolver.IsPressed(btn) {
		return nil
	}
	if err := resolver.Click(ctx, btn); err != nil {
		return fmt.Errorf("click dislike: %w", err)
	}
	if err := uc.record(ctx, v, entity.StatSkipped, entity.ActionDislike); err != nil {
		return err
	}
	v.log.Info("Dislike done")
	return nil
}

func (uc *UseCase) commentFlow(ctx context.Context, v video) error {
	if uc.suggester == nil {
		return nil
	}
	aiCfg, err := uc.store.LoadAIConfig(ctx)
	if err != nil {
		return fmt.Errorf("load ai config: %w", err)
	}
	if !aiCfg.IsEnabled {
		return nil
	}

	if err := uc.pause(ctx, v.id, commentPause); err != nil {
		return err
	}

	suggester, err := uc.suggester(aiCfg)
	if err != nil {
		uc.ui.ShowResult(ctx, "AI error: "+err.Error(), true)
		return nil
	}
	suggestions, err := suggester.Suggest(ctx, entity.CommentRequest{
		VideoTitle:  uc.videoTitle(),
		ChannelName: v.channel,
	})
	if err := uc.checkCurrent(ctx, v.id); err != nil {
		return err
	}
	if err != nil {
		v.log.Error("Comment suggestions failed", "error", err)
		uc.ui.ShowResult(ctx, "AI error: "+err.Error(), true)
		return nil
	}

	text, ok, err := uc.ui.ChooseComment(ctx, suggestions)
	if err != nil {
		return fmt.Errorf("choose comment: %w", err)
	}
	if !ok || strings.TrimSpace(text) == "" {
		uc.ui.ShowResult(ctx, "Comment cancelled", false)
		return nil
	}
	if err := uc.checkCurrent(ctx, v.id); err != nil {
		return err
	}

	if err := uc.postComment(ctx, v, text); err != nil {
		if isAbort(err) {
			return err
		}
		v.log.Error("Comment flow failed", "error", err)
		uc.ui.ShowResult(ctx, "AI error: "+err.Error(), true)
		return nil
	}
	uc.ui.ShowResult(ctx, "Comment posted", false)
	v.log.Info("Comment posted")
	return nil
}

func (uc *UseCase) postComment(ctx context.Context, v video, text string) error {
	placeholder, _ := v.cfg.CustomSelectors.Get(entity.RoleCommentPlaceholder)
	input, _ := v.cfg.CustomSelectors.Get(entity.RoleCommentInput)
	submit, _ := v.cfg.CustomSelectors.Get(entity.RoleCommentSubmit)

	field, err := uc.resolver.PrepareCommentInput(ctx, placeholder, input)
	if err != nil {
		return err
	}
	if err := uc.resolver.FillCommentInput(ctx, field, text); err != nil {
		return err
	}
	if err := uc.pause(ctx, v.id, fillSettle); err != nil {
		return err
	}
	btn, err := uc.resolver.SubmitCommentButton(ctx, submit)
	if err != nil {
		return err
	}
	if err := resolver.Click(ctx, btn); err != nil {
		return fmt.Errorf("click submit: %w", err)
	}
	return uc.store.AddHistory(ctx, uc.entry(v, entity.ActionComment))
}

func (uc *UseCase) record(ctx context.Context, v video, stat entity.StatKind, action entity.HistoryAction) error {
	if err := uc.store.IncrementStat(ctx, stat); err != nil {
		return fmt.Errorf("increment stat: %w", err)
	}
	if err := uc.store.AddHistory(ctx, uc.entry(v, action)); err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	return nil
}

func (uc *UseCase) entry(v video, action entity.HistoryAction) entity.HistoryEntry {
	return entity.HistoryEntry{
		VideoID:     v.id,
		ChannelName: v.channel,
		VideoTitle:  uc.videoTitle(),
		Timestamp:   time.Now(),
		Action:      action,
	}
}

// remember adds channel to the whitelist (like) or blacklist, once.
func (uc *UseCase) remember(ctx context.Context, channel string, like bool) error {
	cfg, err := uc.store.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	list := &cfg.Blacklist
	if like {
		list = &cfg.Whitelist
	}
	if slices.Contains(*list, channel) {
		return nil
	}
	*list = append(*list, channel)
	if err := uc.store.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

func (uc *UseCase) videoTitle() string {
	if uc.doc == nil {
		return ""
	}
	return strings.TrimSuffix(uc.doc.Title(), titleSuffix)
}

func (uc *UseCase) pause(ctx context.Context, videoID string, d time.Duration) error {
	if err := uc.sleep(ctx, d); err != nil {
		return err
	}
	return uc.checkCurrent(ctx, videoID)
}

func (uc *UseCase) checkCurrent(ctx context.Context, videoID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.current != videoID {
		return ErrVideoChanged
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
