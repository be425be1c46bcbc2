package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireFrame struct {
	Type    string `json:"type"`
	Message *struct {
		ID      uint   `json:"id"`
		Content string `json:"content"`
		UserID  uint   `json:"userId"`
		User    *struct {
			ID uint `json:"id"`
		} `json:"user"`
	} `json:"message"`
	Users []struct {
		ID uint `json:"id"`
	} `json:"users"`
}

func (f wireFrame) onlineIDs() []uint {
	ids := make([]uint, 0, len(f.Users))
	for _, u := range f.Users {
		ids = append(ids, u.ID)
	}
	return ids
}

func startServer(t *testing.T) (*httptest.Server, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	hub := NewHub(fakeDirectory{}, store)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.URL.Query().Get("userId"), 10, 64)
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}
		ServeWS(hub, w, r, uint(id))
	}))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return server, store
}

func dial(t *testing.T, server *httptest.Server, userID int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?userId=" + strconv.Itoa(userID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// waitFor reads frames until match accepts one.
func waitFor(t *testing.T, conn *websocket.Conn, match func(wireFrame) bool) wireFrame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var f wireFrame
		require.NoError(t, json.Unmarshal(data, &f))
		if match(f) {
			return f
		}
	}
}

func presenceOf(ids ...uint) func(wireFrame) bool {
	return func(f wireFrame) bool {
		if f.Type != FrameOnlineUsers {
			return false
		}
		got := f.onlineIDs()
		if len(got) != len(ids) {
			return false
		}
		for i := range ids {
			if got[i] != ids[i] {
				return false
			}
		}
		return true
	}
}

func messageWith(content string) func(wireFrame) bool {
	return func(f wireFrame) bool {
		return f.Type == FrameNewMessage && f.Message != nil && f.Message.Content == content
	}
}

func send(t *testing.T, conn *websocket.Conn, frame map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func TestBroadcastReachesEveryoneIncludingSender(t *testing.T) {
	server, store := startServer(t)
	alice := dial(t, server, 1)
	waitFor(t, alice, presenceOf(1))
	bob := dial(t, server, 2)
	waitFor(t, alice, presenceOf(1, 2))
	waitFor(t, bob, presenceOf(1, 2))

	send(t, alice, map[string]any{"type": "chat_message", "content": "hi", "userId": 1, "roomId": "general"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		f := waitFor(t, conn, messageWith("hi"))
		assert.Equal(t, uint(1), f.Message.UserID)
		require.NotNil(t, f.Message.User)
		assert.Equal(t, uint(1), f.Message.User.ID)
	}
	assert.Equal(t, 1, store.count())
}

func TestForeignOrUnknownFramesAreDropped(t *testing.T) {
	server, store := startServer(t)
	alice := dial(t, server, 1)
	waitFor(t, alice, presenceOf(1))

	send(t, alice, map[string]any{"type": "chat_message", "content": "spoofed", "userId": 2})
	send(t, alice, map[string]any{"type": "typing"})
	send(t, alice, map[string]any{"type": "chat_message", "content": ""})
	send(t, alice, map[string]any{"type": "chat_message", "content": "real", "userId": 1})

	f := waitFor(t, alice, func(f wireFrame) bool { return f.Type == FrameNewMessage })
	assert.Equal(t, "real", f.Message.Content)
	assert.Equal(t, 1, store.count())
}

func TestDisconnectUpdatesPresence(t *testing.T) {
	server, _ := startServer(t)
	alice := dial(t, server, 1)
	bob := dial(t, server, 2)
	waitFor(t, alice, presenceOf(1, 2))

	require.NoError(t, bob.Close())
	waitFor(t, alice, presenceOf(1))
}

func TestSecondSocketReplacesFirst(t *testing.T) {
	server, _ := startServer(t)
	first := dial(t, server, 1)
	waitFor(t, first, presenceOf(1))

	second := dial(t, server, 1)
	waitFor(t, second, presenceOf(1))

	require.NoError(t, first.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			var closeErr *websocket.CloseError
			assert.ErrorAs(t, err, &closeErr)
			break
		}
	}

	send(t, second, map[string]any{"type": "chat_message", "content": "still here", "userId": 1})
	waitFor(t, second, messageWith("still here"))
}
