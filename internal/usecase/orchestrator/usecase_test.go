package orchestrator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
	"autolike/internal/domain/resolver"
	"autolike/internal/infrastructure/dom/htmldoc"
	"autolike/internal/infrastructure/storage/sqlite"
)

const watchPage = `<html><head><title>Great video - YouTube</title></head><body>
<div id="owner"><ytd-channel-name><a href="/@good">Good Channel</a></ytd-channel-name></div>
<div id="top-level-buttons">
	<button class="like" aria-pressed="false">Like</button>
	<button class="dislike" aria-pressed="false">Dislike</button>
</div>
<ytd-comments>
	<div id="placeholder-area">Add a comment...</div>
	<div id="editor"></div>
</ytd-comments>
</body></html>`

func domConfig() entity.DOMConfig {
	return entity.DOMConfig{
		Timeouts: entity.Timeouts{
			ElementSearch: 300 * time.Millisecond,
			CacheTTL:      2 * time.Second,
			URLPolling:    20 * time.Millisecond,
			CommentStep:   300 * time.Millisecond,
			SubmitWait:    200 * time.Millisecond,
		},
		Selectors: entity.SelectorTable{
			entity.RoleCommentPlaceholder: {"#placeholder-area"},
			entity.RoleCommentInput:       {"#contenteditable-root"},
			entity.RoleCommentSubmit:      {"#submit-button button"},
		},
		CommentsSection: "ytd-comments",
		WatchPath:       "/watch",
		VideoParam:      "v",
	}
}

type fakeUI struct {
	mu       sync.Mutex
	consent  ports.Consent
	choice   string
	asked    []string
	offered  [][]string
	messages []string
}

func (f *fakeUI) AskConsent(_ context.Context, channel string) (ports.Consent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, channel)
	return f.consent, nil
}

func (f *fakeUI) ChooseComment(_ context.Context, suggestions []string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offered = append(f.offered, suggestions)
	return f.choice, f.choice != "", nil
}

func (f *fakeUI) WaitForUserAction(context.Context, string) error { return nil }
func (f *fakeUI) ShowStep(context.Context, int, int, string) {}
func (f *fakeUI) ShowReport(context.Context, []entity.RoleReport) {}

func (f *fakeUI) ShowResult(_ context.Context, msg string, _ bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

type fakeSuggester struct {
	got  entity.CommentRequest
	list []string
}

func (f *fakeSuggester) Suggest(_ context.Context, req entity.CommentRequest) ([]string, error) {
	f.got = req
	return f.list, nil
}

type fakeCalibrator struct{ runs int }

func (f *fakeCalibrator) Run(context.Context) (entity.SelectorSet, error) {
	f.runs++
	return entity.NewSelectorSet(), nil
}

type harness struct {
	doc    *htmldoc.Document
	store  *sqlite.Store
	ui     *fakeUI
	uc     *UseCase
	clicks []string
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	doc, err := htmldoc.ParseString(watchPage, "https://www.youtube.com/watch?v=vid1")
	require.NoError(t, err)
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "autolike.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{doc: doc, store: store, ui: &fakeUI{}}
	doc.OnClick(func(el ports.Element) {
		h.clicks = append(h.clicks, el.Text())
	})

	res := resolver.New(doc, domConfig(), nil)
	opts = append([]Option{WithSleep(func(ctx context.Context, _ time.Duration) error { return ctx.Err() })}, opts...)
	h.uc = New(res, doc, store, h.ui, nil, opts...)
	return h
}

func (h *harness) configure(t *testing.T, mutate func(cfg *entity.AppConfig)) {
	t.Helper()
	ctx := context.Background()
	cfg, err := h.store.LoadConfig(ctx)
	require.NoError(t, err)
	cfg.CustomSelectors.Set(entity.RoleLikeButton, "#top-level-buttons > button.like")
	cfg.CustomSelectors.Set(entity.RoleDislikeButton, "#top-level-buttons > button.dislike")
	cfg.CustomSelectors.Set(entity.RoleChannelName, "ytd-channel-name > a")
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, h.store.SaveConfig(ctx, cfg))
}

func (h *harness) stats(t *testing.T) entity.Stats {
	t.Helper()
	s, err := h.store.Stats(context.Background())
	require.NoError(t, err)
	return s
}

func (h *harness) history(t *testing.T) []entity.HistoryEntry {
	t.Helper()
	list, err := h.store.History(context.Background())
	require.NoError(t, err)
	return list
}

func TestHandleVideo_WhitelistedLikes(t *testing.T) {
	h := newHarness(t)
	h.configure(t, func(cfg *entity.AppConfig) { cfg.Whitelist = []string{"good channel"} })

	require.NoError(t, h.uc.HandleVideo(context.Background(), "vid1"))

	assert.Equal(t, []string{"Like"}, h.clicks)
	assert.Equal(t, 1, h.stats(t).Auto)
	hist := h.history(t)
	require.Len(t, hist, 1)
	assert.Equal(t, entity.ActionAutoLike, hist[0].Action)
	assert.Equal(t, "Great video", hist[0].VideoTitle)
	assert.Equal(t, "Good Channel", hist[0].ChannelName)
}

func TestHandleVideo_AlreadyLiked(t *testing.T) {
	h := newHarness(t)
	h.configure(t, func(cfg *entity.AppConfig) { cfg.Whitelist = []string{"Good Channel"} })
	like, err := h.doc.QuerySelectorAll("button.like")
	require.NoError(t, err)
	require.NoError(t, h.doc.SetAttribute(like[0], "aria-pressed", "true"))

	require.NoError(t, h.uc.HandleVideo(context.Background(), "vid1"))

	assert.Empty(t, h.clicks)
	assert.Zero(t, h.stats(t).Total)
}

func TestHandleVideo_BlacklistedSkips(t *testing.T) {
	h := newHarness(t)
	h.configure(t, func(cfg *entity.AppConfig) {
		cfg.Whitelist = []string{"Good Channel"}
		cfg.Blacklist = []string{"GOOD  channel"}
	})

	require.NoError(t, h.uc.HandleVideo(context.Background(), "vid1"))

	assert.Empty(t, h.clicks)
	assert.Equal(t, 1, h.stats(t).Skipped)
	assert.Empty(t, h.history(t))
}

func TestHandleVideo_ConsentLikeAndRemember(t *testing.T) {
	h := newHarness(t)
	h.configure(t, nil)
	h.ui.consent = ports.Consent{Like: true, Remember: true}

	require.NoError(t, h.uc.HandleVideo(context.Background(), "vid1"))

	assert.Equal(t, []string{"Good Channel"}, h.ui.asked)
	assert.Equal(t, []string{"Like"}, h.clicks)
	assert.Equal(t, 1, h.stats(t).Manual)
	cfg, err := h.store.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Good Channel"}, cfg.Whitelist)
	assert.Equal(t, entity.ActionManualLike, h.history(t)[0].Action)
}

func TestHandleVideo_ConsentRefusedDislikes(t *testing.T) {
	h := newHarness(t)
	h.configure(t, nil)
	h.ui.consent = ports.Consent{Like: false, Remember: true}

	require.NoError(t, h.uc.HandleVideo(context.Background(), "vid1"))

	assert.Equal(t, []string{"Dislike"}, h.clicks)
	assert.Equal(t, 1, h.stats(t).Skipped)
	cfg, err := h.store.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Good Channel"}, cfg.Blacklist)
	assert.Empty(t, cfg.Whitelist)
	assert.Equal(t, entity.ActionDislike, h.history(t)[0].Action)
}

func TestHandleVideo_Disabled(t *testing.T) {
	h := newHarness(t)
	h.configure(t, func(cfg *entity.AppConfig) {
		cfg.IsEnabled = false
		cfg.Whitelist = []string{"Good Channel"}
	})

	require.NoError(t, h.uc.HandleVideo(context.Background(), "vid1"))

	assert.Empty(t, h.clicks)
	assert.Empty(t, h.ui.asked)
}

func TestHandleVideo_MissingSelectorsStartsCalibration(t *testing.T) {
	cal := &fakeCalibrator{}
	h := newHarness(t, WithCalibrator(cal))

	require.NoError(t, h.uc.HandleVideo(context.Background(), "vid1"))

	assert.Equal(t, 1, cal.runs)
	assert.Empty(t, h.clicks)
}

func TestHandleVideo_VideoChangedDuringDelay(t *testing.T) {
	var h *harness
	h = newHarness(t, WithSleep(func(ctx context.Context, _ time.Duration) error {
		h.uc.mu.Lock()
		h.uc.current = "vid2"
		h.uc.mu.Unlock()
		return nil
	}))
	h.configure(t, func(cfg *entity.AppConfig) { cfg.Whitelist = []string{"Good Channel"} })

	err := h.uc.HandleVideo(context.Background(), "vid1")

	assert.ErrorIs(t, err, ErrVideoChanged)
	assert.Empty(t, h.clicks)
}

func TestHandleVideo_CommentFlow(t *testing.T) {
	sug := &fakeSuggester{list: []string{"Nice one", "Loved the editing"}}
	h := newHarness(t, WithSuggester(func(entity.AIConfig) (ports.CommentSuggester, error) { return sug, nil }))
	h.configure(t, func(cfg *entity.AppConfig) { cfg.Whitelist = []string{"Good Channel"} })
	ai := entity.DefaultAIConfig()
	ai.IsEnabled = true
	ai.APIKey = "k"
	require.NoError(t, h.store.SaveAIConfig(context.Background(), ai))
	h.ui.choice = "Loved the editing"

	h.doc.OnClick(func(el ports.Element) {
		if el.ID() != "placeholder-area" {
			return
		}
		_, err := h.doc.AppendToSelector("#editor", `
			<div id="contenteditable-root" contenteditable="true"></div>
			<div id="submit-button"><button>Comment</button></div>`)
		assert.NoError(t, err)
	})

	require.NoError(t, h.uc.HandleVideo(context.Background(), "vid1"))

	assert.Equal(t, "Great video", sug.got.VideoTitle)
	assert.Equal(t, "Good Channel", sug.got.ChannelName)
	assert.Equal(t, []string{"Like", "Add a comment...", "Comment"}, h.clicks)
	field, err := h.doc.QuerySelectorAll("#contenteditable-root")
	require.NoError(t, err)
	assert.Equal(t, "Loved the editing", field[0].Text())
	hist := h.history(t)
	require.Len(t, hist, 2)
	assert.Equal(t, entity.ActionComment, hist[0].Action)
	assert.Contains(t, h.ui.messages, "Comment posted")
}

func TestHandleVideo_CommentCancelled(t *testing.T) {
	sug := &fakeSuggester{list: []string{"Nice one"}}
	h := newHarness(t, WithSuggester(func(entity.AIConfig) (ports.CommentSuggester, error) { return sug, nil }))
	h.configure(t, func(cfg *entity.AppConfig) { cfg.Whitelist = []string{"Good Channel"} })
	ai := entity.DefaultAIConfig()
	ai.IsEnabled = true
	require.NoError(t, h.store.SaveAIConfig(context.Background(), ai))

	require.NoError(t, h.uc.HandleVideo(context.Background(), "vid1"))

	assert.Equal(t, []string{"Like"}, h.clicks)
	assert.Contains(t, h.ui.messages, "Comment cancelled")
}

func TestWatch_HandlesCurrentVideoAndStops(t *testing.T) {
	h := newHarness(t)
	h.configure(t, func(cfg *entity.AppConfig) { cfg.Whitelist = []string{"Good Channel"} })
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.uc.Watch(ctx) }()

	require.Eventually(t, func() bool { return h.stats(t).Auto == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleep(context.Background(), time.Millisecond))
}
