package navigation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autolike/internal/domain/navigation"
	"autolike/internal/domain/ports"
	"autolike/internal/infrastructure/dom/htmldoc"
)

const pageHTML = `<html><head><title>First</title></head><body><div id="player"></div></body></html>`

func newDoc(t *testing.T, rawURL string) *htmldoc.Document {
	t.Helper()
	doc, err := htmldoc.ParseString(pageHTML, rawURL)
	require.NoError(t, err)
	return doc
}

func collect() (func(string), <-chan string) {
	ch := make(chan string, 16)
	return func(id string) { ch <- id }, ch
}

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("no navigation reported")
		return ""
	}
}

func assertQuiet(t *testing.T, ch <-chan string, wait time.Duration) {
	t.Helper()
	select {
	case id := <-ch:
		t.Fatalf("unexpected navigation to %q", id)
	case <-time.After(wait):
	}
}

func TestStart_NilCallback(t *testing.T) {
	obs := navigation.New(newDoc(t, "https://www.youtube.com/watch?v=a"), navigation.Config{}, nil)
	assert.ErrorIs(t, obs.Start(nil), navigation.ErrNilCallback)
}

func TestStart_ReportsCurrentVideo(t *testing.T) {
	obs := navigation.New(newDoc(t, "https://www.youtube.com/watch?v=first"), navigation.Config{PollInterval: time.Hour}, ports.NopLogger())
	cb, ids := collect()

	require.NoError(t, obs.Start(cb))
	defer obs.Stop()

	assert.Equal(t, "first", next(t, ids))
	assert.Equal(t, "first", obs.CurrentVideoID())
}

func TestTitleMutationTriggersCheck(t *testing.T) {
	doc := newDoc(t, "https://www.youtube.com/watch?v=first")
	obs := navigation.New(doc, navigation.Config{PollInterval: time.Hour}, nil)
	cb, ids := collect()
	require.NoError(t, obs.Start(cb))
	defer obs.Stop()
	require.Equal(t, "first", next(t, ids))

	require.NoError(t, doc.Navigate("https://www.youtube.com/watch?v=second&t=10s", "Second"))

	assert.Equal(t, "second", next(t, ids))
	assert.Equal(t, "second", obs.CurrentVideoID())
}

func TestPollingCatchesSilentURLChange(t *testing.T) {
	doc := newDoc(t, "https://www.youtube.com/watch?v=first")
	obs := navigation.New(doc, navigation.Config{PollInterval: 20 * time.Millisecond}, nil)
	cb, ids := collect()
	require.NoError(t, obs.Start(cb))
	defer obs.Stop()
	require.Equal(t, "first", next(t, ids))

	require.NoError(t, doc.SetURL("https://www.youtube.com/watch?v=second"))

	assert.Equal(t, "second", next(t, ids))
}

func TestIgnoresNonWatchPagesAndRepeats(t *testing.T) {
	doc := newDoc(t, "https://www.youtube.com/results?search_query=go")
	obs := navigation.New(doc, navigation.Config{PollInterval: 10 * time.Millisecond}, nil)
	cb, ids := collect()
	require.NoError(t, obs.Start(cb))
	defer obs.Stop()

	assertQuiet(t, ids, 60*time.Millisecond)
	assert.Empty(t, obs.CurrentVideoID())

	require.NoError(t, doc.Navigate("https://www.youtube.com/watch", "No id"))
	assertQuiet(t, ids, 60*time.Millisecond)

	require.NoError(t, doc.Navigate("https://www.youtube.com/watch?v=x", "X"))
	assert.Equal(t, "x", next(t, ids))

	require.NoError(t, doc.SetTitle("X (1)"))
	assertQuiet(t, ids, 60*time.Millisecond)
}

func TestStop(t *testing.T) {
	doc := newDoc(t, "https://www.youtube.com/watch?v=first")
	obs := navigation.New(doc, navigation.Config{PollInterval: 10 * time.Millisecond}, nil)
	cb, ids := collect()
	require.NoError(t, obs.Start(cb))
	require.Equal(t, "first", next(t, ids))

	obs.Stop()
	obs.Stop()

	assert.Equal(t, 0, doc.ObserverCount())
	require.NoError(t, doc.Navigate("https://www.youtube.com/watch?v=second", "Second"))
	assertQuiet(t, ids, 60*time.Millisecond)
}

func TestStop_Idle(t *testing.T) {
	obs := navigation.New(newDoc(t, "https://www.youtube.com/"), navigation.Config{}, nil)
	assert.NotPanics(t, obs.Stop)
}

func TestStop_FromCallback(t *testing.T) {
	doc := newDoc(t, "https://www.youtube.com/watch?v=first")
	obs := navigation.New(doc, navigation.Config{PollInterval: 10 * time.Millisecond}, nil)
	returned := make(chan string, 1)
	require.NoError(t, obs.Start(func(id string) {
		obs.Stop()
		returned <- id
	}))

	select {
	case id := <-returned:
		assert.Equal(t, "first", id)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop inside the callback did not return")
	}
	assert.Eventually(t, func() bool { return doc.ObserverCount() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, doc.Navigate("https://www.youtube.com/watch?v=second", "Second"))
	assertQuiet(t, returned, 60*time.Millisecond)
	assert.NotPanics(t, obs.Stop)
}

func TestStart_FromCallback(t *testing.T) {
	doc := newDoc(t, "https://www.youtube.com/watch?v=first")
	obs := navigation.New(doc, navigation.Config{PollInterval: 10 * time.Millisecond}, nil)
	restarted, ids := collect()
	defer obs.Stop()

	require.NoError(t, obs.Start(func(id string) {
		assert.NoError(t, obs.Start(restarted))
	}))

	assert.Eventually(t, func() bool { return doc.ObserverCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, doc.Navigate("https://www.youtube.com/watch?v=second", "Second"))
	assert.Equal(t, "second", next(t, ids))
}

func TestRestartReplacesCallback(t *testing.T) {
	doc := newDoc(t, "https://www.youtube.com/watch?v=first")
	obs := navigation.New(doc, navigation.Config{PollInterval: time.Hour}, nil)
	firstCb, firstIDs := collect()
	require.NoError(t, obs.Start(firstCb))
	require.Equal(t, "first", next(t, firstIDs))

	secondCb, secondIDs := collect()
	require.NoError(t, obs.Start(secondCb))
	defer obs.Stop()
	assert.Equal(t, 1, doc.ObserverCount())

	require.NoError(t, doc.Navigate("https://www.youtube.com/watch?v=second", "Second"))
	assert.Equal(t, "second", next(t, secondIDs))
	assertQuiet(t, firstIDs, 30*time.Millisecond)
}

func TestWithoutTitleFallsBackToPolling(t *testing.T) {
	doc, err := htmldoc.ParseString("<p>no title</p>", "https://www.youtube.com/watch?v=first")
	require.NoError(t, err)
	obs := navigation.New(doc, navigation.Config{PollInterval: 10 * time.Millisecond}, nil)
	cb, ids := collect()

	require.NoError(t, obs.Start(cb))
	defer obs.Stop()

	assert.Equal(t, "first", next(t, ids))
	require.NoError(t, doc.SetURL("https://www.youtube.com/watch?v=second"))
	assert.Equal(t, "second", next(t, ids))
}
