package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
	"autolike/internal/domain/resolver"
)

func TestIsPressed(t *testing.T) {
	doc := newDoc(t, `<html><head><title>t</title></head><body>
		<button id="a" aria-pressed="true">a</button>
		<button id="b" class="x style-default-active">b</button>
		<button id="c" aria-pressed="false">c</button>
	</body></html>`)

	for id, want := range map[string]bool{"#a": true, "#b": true, "#c": false} {
		found, err := doc.QuerySelectorAll(id)
		require.NoError(t, err)
		assert.Equal(t, want, resolver.IsPressed(found[0]), id)
	}
	assert.False(t, resolver.IsPressed(nil))
}

func TestChannelName(t *testing.T) {
	doc := newDoc(t, watchPage)
	r := resolver.New(doc, testConfig(), nil)

	name, err := r.ChannelName(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "Some Channel", name)
}

func TestChannelName_HashtagUsesFallback(t *testing.T) {
	doc := newDoc(t, `<html><head><title>t</title></head><body>
		<div id="tags"><a class="tag">#music</a></div>
		<div id="owner"><div id="channel-name"><a>Real Channel</a></div></div>
	</body></html>`)
	r := resolver.New(doc, testConfig(), nil)

	name, err := r.ChannelName(context.Background(), "a.tag")

	require.NoError(t, err)
	assert.Equal(t, "Real Channel", name)
}

func TestChannelName_NotFound(t *testing.T) {
	doc := newDoc(t, `<html><head><title>t</title></head><body><p>empty</p></body></html>`)
	cfg := testConfig()
	cfg.Timeouts.ElementSearch = 30 * time.Millisecond
	cfg.Timeouts.CommentStep = 30 * time.Millisecond
	r := resolver.New(doc, cfg, nil)

	_, err := r.ChannelName(context.Background(), "")

	assert.ErrorIs(t, err, resolver.ErrElementNotFound)

	cfg.ChannelFallback = nil
	cfg.Selectors[entity.RoleChannelName] = nil
	r = resolver.New(doc, cfg, nil)
	_, err = r.ChannelName(context.Background(), "")
	assert.ErrorIs(t, err, resolver.ErrElementNotFound)
}

const commentPage = `<html><head><title>t</title></head><body>
<ytd-comments id="comments">
	<div id="simple-box"><div id="placeholder-area">Add a comment...</div></div>
	<div id="editor"></div>
</ytd-comments>
</body></html>`

func TestCommentFlow(t *testing.T) {
	doc := newDoc(t, commentPage)
	r := resolver.New(doc, testConfig(), nil)
	doc.OnClick(func(el ports.Element) {
		if el.ID() != "placeholder-area" {
			return
		}
		_, err := doc.AppendToSelector("#editor", `
			<div id="contenteditable-root" contenteditable="true"></div>
			<div id="submit-button"><button disabled>Comment</button></div>`)
		assert.NoError(t, err)
	})
	ctx := context.Background()

	field, err := r.PrepareCommentInput(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "contenteditable-root", field.ID())

	require.NoError(t, r.FillCommentInput(ctx, field, "Great video"))
	assert.Equal(t, "Great video", field.Text())

	btn, err := r.SubmitCommentButton(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Comment", btn.Text())
}

func TestPrepareCommentInput_EditorNeverOpens(t *testing.T) {
	doc := newDoc(t, commentPage)
	r := resolver.New(doc, testConfig(), nil)

	_, err := r.PrepareCommentInput(context.Background(), "", "")

	assert.ErrorIs(t, err, resolver.ErrElementNotFound)
	assert.Equal(t, 0, doc.ObserverCount())
}

type inertElement struct{ ports.Element }

func TestFillCommentInput_NotActionable(t *testing.T) {
	r := resolver.New(newDoc(t, commentPage), testConfig(), nil)

	err := r.FillCommentInput(context.Background(), inertElement{}, "x")

	assert.ErrorIs(t, err, resolver.ErrNotActionable)
	assert.ErrorIs(t, resolver.Click(context.Background(), inertElement{}), resolver.ErrNotActionable)
}
