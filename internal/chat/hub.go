// Package chat fans chat messages and presence out to connected sockets.
package chat

import (
	"context"
	"sort"

	"codeloom/internal/log"
	"codeloom/internal/metrics"
	"codeloom/internal/models"

	"github.com/juju/errors"
	"github.com/rs/zerolog"
)

// Directory resolves the users shown in presence snapshots.
type Directory interface {
	UsersByIDs(ids []uint) ([]models.User, error)
}

// MessageStore persists messages posted over a socket.
type MessageStore interface {
	Create(userID uint, roomID, content string) (*models.ChatMessageWithUser, error)
}

type outbound struct {
	kind string
	data []byte
}

// Hub owns the registry of connected clients, one per user. Only the Run
// goroutine touches the registry.
type Hub struct {
	clients map[uint]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	online     chan chan []uint
	done       chan struct{}

	users    Directory
	messages MessageStore
	logger   zerolog.Logger
}

func NewHub(users Directory, messages MessageStore) *Hub {
	return &Hub{
		clients:    make(map[uint]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 64),
		online:     make(chan chan []uint),
		done:       make(chan struct{}),
		users:      users,
		messages:   messages,
		logger:     log.WithComponent("chat"),
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			metrics.ChatConnectedClients.Set(0)
			h.logger.Info().Msg("Chat hub stopped")
			return

		case c := <-h.register:
			h.add(c)
			h.pushPresence()

		case c := <-h.unregister:
			if h.remove(c) {
				h.pushPresence()
			}

		case out := <-h.broadcast:
			if h.fanout(out) {
				h.pushPresence()
			}

		case reply := <-h.online:
			reply <- h.onlineIDs()
		}
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues an encoded frame for every client.
func (h *Hub) Broadcast(kind string, data []byte) {
	select {
	case h.broadcast <- outbound{kind: kind, data: data}:
	case <-h.done:
	}
}

// Online returns the ids of connected users in ascending order.
func (h *Hub) Online() []uint {
	reply := make(chan []uint, 1)
	select {
	case h.online <- reply:
		return <-reply
	case <-h.done:
		return nil
	}
}

// add registers c, closing any socket the same user had open before.
func (h *Hub) add(c *Client) {
	if old, ok := h.clients[c.userID]; ok && old != c {
		close(old.send)
		h.logger.Debug().Uint("user_id", c.userID).Msg("Replacing existing chat socket")
	}
	h.clients[c.userID] = c
	metrics.ChatConnectedClients.Set(float64(len(h.clients)))
}

// remove drops c if it is still the registered socket for its user.
func (h *Hub) remove(c *Client) bool {
	current, ok := h.clients[c.userID]
	if !ok || current != c {
		return false
	}
	delete(h.clients, c.userID)
	close(c.send)
	metrics.ChatConnectedClients.Set(float64(len(h.clients)))
	return true
}

// fanout delivers a frame to every client. Clients with a full buffer are
// dropped; it reports whether any were.
func (h *Hub) fanout(out outbound) bool {
	dropped := false
	for id, c := range h.clients {
		select {
		case c.send <- out.data:
		default:
			delete(h.clients, id)
			close(c.send)
			dropped = true
			metrics.ChatClientsDropped.Inc()
			h.logger.Warn().Uint("user_id", id).Msg("Dropping slow chat client")
		}
	}
	metrics.ChatFramesBroadcast.WithLabelValues(out.kind).Inc()
	if dropped {
		metrics.ChatConnectedClients.Set(float64(len(h.clients)))
	}
	return dropped
}

func (h *Hub) onlineIDs() []uint {
	ids := make([]uint, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// pushPresence sends the online user list to everyone.
func (h *Hub) pushPresence() {
	for {
		users, err := h.users.UsersByIDs(h.onlineIDs())
		if err != nil {
			h.logger.Error().Err(err).Msg("Loading online users failed")
			return
		}
		data, err := encodeOnlineUsers(users)
		if err != nil {
			h.logger.Error().Err(err).Msg("Encoding presence failed")
			return
		}
		if !h.fanout(outbound{kind: FrameOnlineUsers, data: data}) {
			return
		}
	}
}

// handleFrame runs on the sender's read goroutine.
func (h *Hub) handleFrame(c *Client, data []byte) {
	frame, err := DecodeFrame(data)
	if err != nil {
		h.logger.Warn().Err(err).Uint("user_id", c.userID).Msg("Ignoring chat frame")
		return
	}

	switch f := frame.(type) {
	case ChatMessageFrame:
		if f.UserID != 0 && f.UserID != c.userID {
			h.logger.Warn().
				Uint("user_id", c.userID).
				Uint("frame_user_id", f.UserID).
				Msg("Dropping chat frame for another user")
			return
		}
		msg, err := h.messages.Create(c.userID, f.RoomID, f.Content)
		if err != nil {
			level := zerolog.ErrorLevel
			if errors.Is(err, errors.NotValid) {
				level = zerolog.WarnLevel
			}
			h.logger.WithLevel(level).Err(err).Uint("user_id", c.userID).Msg("Saving chat message failed")
			return
		}
		out, err := encodeNewMessage(msg)
		if err != nil {
			h.logger.Error().Err(err).Msg("Encoding chat message failed")
			return
		}
		h.Broadcast(FrameNewMessage, out)
	}
}
