package panel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_RefreshesOnEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, event := range []string{
			`{"type":"ping"}`,
			`not json`,
			`{"type":"new_message","data":{"id":4,"subject":"Hi"}}`,
			`{"type":"counts","data":{"num-unread":1,"num-sent":0,"num-received":1}}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(event)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer server.Close()

	fetcher := newStubFetcher()
	fetcher.responses["unread"] = listOf("unread", 4)
	view := &fakeView{}
	r := newTestRefresher(t, fetcher, view, Options{})

	w, err := NewWatcher(server.URL, "tok", r, func() string { return "unread" }, nil)
	require.NoError(t, err)

	refreshed := make(chan *Pending, 4)
	w.OnRefresh(func(p *Pending) { refreshed <- p })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Run(ctx))

	require.Len(t, refreshed, 2)
	for i := 0; i < 2; i++ {
		_, err := (<-refreshed).Wait(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"msg-4"}, keys(view.snapshot()))
}

func TestWatcher_ReturnsOnDroppedConnection(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// 不发关闭帧直接断开
		_ = conn.UnderlyingConn().Close()
	}))
	defer server.Close()

	w, err := NewWatcher(server.URL, "", nil, func() string { return "unread" }, nil)
	require.NoError(t, err)

	// ctx 从不取消，Run 仍需在连接断开后返回，且不留下关闭协程
	result := make(chan error, 1)
	go func() { result <- w.Run(context.Background()) }()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrTransport)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the connection dropped")
	}
}

func TestWatcher_DialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	w, err := NewWatcher(server.URL, "", nil, func() string { return "unread" }, nil)
	require.NoError(t, err)

	err = w.Run(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestWebsocketURL(t *testing.T) {
	got, err := websocketURL("http://localhost:5000/")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:5000/ws", got)

	got, err = websocketURL("https://tradyfit.example/app")
	require.NoError(t, err)
	assert.Equal(t, "wss://tradyfit.example/app/ws", got)

	_, err = websocketURL("ftp://example.com")
	assert.Error(t, err)
}
