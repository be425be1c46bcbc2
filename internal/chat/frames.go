package chat

import (
	"encoding/json"

	"codeloom/internal/models"

	"github.com/juju/errors"
)

// Frame types on the wire.
const (
	FrameChatMessage = "chat_message"
	FrameNewMessage  = "new_message"
	FrameOnlineUsers = "online_users"
)

// InboundFrame is implemented by every frame a client may send.
type InboundFrame interface {
	inbound()
}

// ChatMessageFrame asks the server to post a message to a room.
type ChatMessageFrame struct {
	Content string `json:"content"`
	UserID  uint   `json:"userId"`
	RoomID  string `json:"roomId"`
}

func (ChatMessageFrame) inbound() {}

// DecodeFrame parses a client frame. Unknown types are NotSupported.
func DecodeFrame(data []byte) (InboundFrame, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, errors.NewNotValid(err, "malformed frame")
	}

	switch envelope.Type {
	case FrameChatMessage:
		var f ChatMessageFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, errors.NewNotValid(err, "malformed chat_message frame")
		}
		return f, nil
	default:
		return nil, errors.NotSupportedf("frame type %q", envelope.Type)
	}
}

type newMessageFrame struct {
	Type    string                      `json:"type"`
	Message *models.ChatMessageWithUser `json:"message"`
}

type onlineUsersFrame struct {
	Type  string        `json:"type"`
	Users []*models.PublicUser `json:"users"`
}

func encodeNewMessage(msg *models.ChatMessageWithUser) ([]byte, error) {
	data, err := json.Marshal(newMessageFrame{Type: FrameNewMessage, Message: msg})
	return data, errors.Trace(err)
}

func encodeOnlineUsers(users []models.User) ([]byte, error) {
	public := make([]*models.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	data, err := json.Marshal(onlineUsersFrame{Type: FrameOnlineUsers, Users: public})
	return data, errors.Trace(err)
}
