package htmlview

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/panel"
	"tradyfit/backend/internal/urls"
)

type staticFetcher struct {
	resp *domain.MessageListResponse
	err  error
}

func (f *staticFetcher) Fetch(context.Context, string) (*domain.MessageListResponse, error) {
	return f.resp, f.err
}

func TestDocument_RefreshInboxScenario(t *testing.T) {
	doc := New()
	fetcher := &staticFetcher{resp: &domain.MessageListResponse{
		Type: "inbox",
		Messages: []domain.MessageSummary{
			{ID: 7, Subject: "Hello"},
			{ID: 9, Subject: "Re: Order"},
		},
		MessageCounts: domain.MessageCounts{Unread: 1, Sent: 0, Received: 2},
	}}
	r, err := panel.NewRefresher(fetcher, urls.NewGenerator(""),
		panel.View{Container: doc, Summary: doc}, panel.Options{UpdateSummaryFields: true}, nil)
	require.NoError(t, err)

	_, err = r.RefreshSync(context.Background(), "inbox")
	require.NoError(t, err)

	assert.Equal(t, []panel.Row{
		{Key: "msg-7", Class: "msg", Text: "Hello", Href: "/msg/7"},
		{Key: "msg-9", Class: "msg", Text: "Re: Order", Href: "/msg/9"},
	}, doc.Rows())
	assert.Equal(t, "inbox", doc.Text(DefaultIDs.Title))
	assert.Equal(t, "1", doc.Text(DefaultIDs.Unread))
	assert.Equal(t, "0", doc.Text(DefaultIDs.Sent))
	assert.Equal(t, "2", doc.Text(DefaultIDs.Received))

	var out bytes.Buffer
	require.NoError(t, doc.RenderPanel(&out))
	assert.Equal(t,
		`<ul id="msgs"><li id="msg-7" class="msg"><a href="/msg/7">Hello</a></li><li id="msg-9" class="msg"><a href="/msg/9">Re: Order</a></li></ul>`,
		out.String())
}

func TestDocument_FailureShowsIndicator(t *testing.T) {
	doc := New()
	doc.AppendRow(panel.Row{Key: "msg-1", Class: "msg", Text: "kept", Href: "/msg/1"})

	fetcher := &staticFetcher{err: panel.ErrDecode}
	r, err := panel.NewRefresher(fetcher, urls.NewGenerator(""), panel.View{Container: doc}, panel.Options{}, nil)
	require.NoError(t, err)

	_, err = r.RefreshSync(context.Background(), "inbox")
	assert.True(t, errors.Is(err, panel.ErrDecode))

	require.Len(t, doc.Rows(), 1)
	assert.Equal(t, "kept", doc.Rows()[0].Text)
	assert.True(t, doc.ErrorVisible())
	assert.Contains(t, doc.Text(DefaultIDs.Error), "malformed response")

	fetcher.err = nil
	fetcher.resp = &domain.MessageListResponse{Type: "inbox"}
	_, err = r.RefreshSync(context.Background(), "inbox")
	require.NoError(t, err)
	assert.Empty(t, doc.Rows())
	assert.False(t, doc.ErrorVisible())
}

func TestDocument_EscapesSubject(t *testing.T) {
	doc := New()
	doc.AppendRow(panel.Row{Key: "msg-2", Class: "msg", Text: "<script>x</script> & co", Href: "/msg/2?a=1&b=2"})

	var out bytes.Buffer
	require.NoError(t, doc.RenderPanel(&out))
	assert.Contains(t, out.String(), "&lt;script&gt;x&lt;/script&gt; &amp; co")
	assert.Contains(t, out.String(), `href="/msg/2?a=1&amp;b=2"`)
}

func TestParse(t *testing.T) {
	_, err := Parse(strings.NewReader(`<div><p>no list</p></div>`), DefaultIDs)
	assert.Error(t, err)

	doc, err := Parse(strings.NewReader(`<ol id="inbox"><li>stale</li></ol>`), IDs{List: "inbox"})
	require.NoError(t, err)
	doc.SetTitle("ignored")
	doc.ShowError(errors.New("ignored"))
	doc.Clear()
	assert.Empty(t, doc.Rows())

	var out bytes.Buffer
	require.NoError(t, doc.Render(&out))
	assert.Contains(t, out.String(), `<ol id="inbox"></ol>`)
}
