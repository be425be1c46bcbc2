package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"codeloom/internal/models"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct{}

func (fakeDirectory) UsersByIDs(ids []uint) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, models.User{
			ID:       id,
			Username: fmt.Sprintf("user%d", id),
			Email:    fmt.Sprintf("user%d@codeloom.dev", id),
		})
	}
	return users, nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved []models.ChatMessage
}

func (s *fakeStore) Create(userID uint, roomID, content string) (*models.ChatMessageWithUser, error) {
	if content == "" {
		return nil, errors.NewNotValid(nil, "message content is required")
	}
	if roomID == "" {
		roomID = models.DefaultRoomID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := models.ChatMessage{
		ID:        uint(len(s.saved) + 1),
		Content:   content,
		UserID:    userID,
		RoomID:    roomID,
		CreatedAt: time.Now().UTC(),
	}
	s.saved = append(s.saved, msg)
	return &models.ChatMessageWithUser{
		ChatMessage: msg,
		User:        &models.PublicUser{ID: userID, Username: fmt.Sprintf("user%d", userID)},
	}, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func TestDecodeFrame(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"type":"chat_message","content":"hi","userId":3,"roomId":"general"}`))
	require.NoError(t, err)
	assert.Equal(t, ChatMessageFrame{Content: "hi", UserID: 3, RoomID: "general"}, frame)

	_, err = DecodeFrame([]byte(`{"type":"typing"}`))
	assert.True(t, errors.Is(err, errors.NotSupported))

	_, err = DecodeFrame([]byte(`not json`))
	assert.True(t, errors.Is(err, errors.NotValid))

	_, err = DecodeFrame([]byte(`{"type":"chat_message","userId":"three"}`))
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestEncodeFrames(t *testing.T) {
	data, err := encodeOnlineUsers(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"online_users","users":[]}`, string(data))

	data, err = encodeNewMessage(&models.ChatMessageWithUser{
		ChatMessage: models.ChatMessage{ID: 1, Content: "oi", UserID: 2, RoomID: "general"},
		User:        &models.PublicUser{ID: 2, Username: "ana"},
	})
	require.NoError(t, err)
	var decoded struct {
		Type    string `json:"type"`
		Message struct {
			Content string `json:"content"`
			User    struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, FrameNewMessage, decoded.Type)
	assert.Equal(t, "oi", decoded.Message.Content)
	assert.Equal(t, "ana", decoded.Message.User.Username)
}

// The registry helpers run synchronously here; Run is not started.
func TestHubReplacesSocketForSameUser(t *testing.T) {
	h := NewHub(fakeDirectory{}, &fakeStore{})
	first := newClient(h, nil, 7)
	second := newClient(h, nil, 7)

	h.add(first)
	h.add(second)

	_, open := <-first.send
	assert.False(t, open, "replaced client is closed")
	assert.Equal(t, []uint{7}, h.onlineIDs())

	assert.False(t, h.remove(first), "stale unregister is ignored")
	assert.Equal(t, []uint{7}, h.onlineIDs())

	assert.True(t, h.remove(second))
	assert.Empty(t, h.onlineIDs())
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub(fakeDirectory{}, &fakeStore{})
	fast := newClient(h, nil, 1)
	slow := &Client{hub: h, userID: 2, send: make(chan []byte, 1)}
	h.add(fast)
	h.add(slow)

	assert.False(t, h.fanout(outbound{kind: FrameNewMessage, data: []byte("one")}))
	assert.True(t, h.fanout(outbound{kind: FrameNewMessage, data: []byte("two")}))

	assert.Equal(t, []uint{1}, h.onlineIDs())
	assert.Equal(t, "one", string(<-slow.send))
	_, open := <-slow.send
	assert.False(t, open)
	assert.Len(t, fast.send, 2)
}

func TestHubPresenceIsSortedSnapshot(t *testing.T) {
	h := NewHub(fakeDirectory{}, &fakeStore{})
	a := newClient(h, nil, 9)
	b := newClient(h, nil, 3)
	h.add(a)
	h.add(b)
	h.pushPresence()

	for _, c := range []*Client{a, b} {
		data := <-c.send
		assert.NotContains(t, string(data), "@codeloom.dev", "presence never carries emails")
		var frame onlineUsersFrame
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, FrameOnlineUsers, frame.Type)
		require.Len(t, frame.Users, 2)
		assert.Equal(t, uint(3), frame.Users[0].ID)
		assert.Equal(t, uint(9), frame.Users[1].ID)
	}
}

func TestHubStopsClosingClients(t *testing.T) {
	h := NewHub(fakeDirectory{}, &fakeStore{})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	c := newClient(h, nil, 5)
	require.True(t, h.Register(c))
	assert.Equal(t, []uint{5}, h.Online())

	cancel()
	<-stopped

	for range c.send {
		// drain presence until the hub closes the channel
	}
	assert.False(t, h.Register(newClient(h, nil, 6)))
	assert.Nil(t, h.Online())
}
