package models

import (
	"time"
)

const DefaultRoomID = "general"

type ChatMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"size:500;not null" json:"content"`
	UserID     uint      `gorm:"not null;index" json:"userId"`
	RoomID     string    `gorm:"size:64;not null;default:'general';index:idx_chat_room_created" json:"roomId"`
	IsReported bool      `gorm:"default:false;not null" json:"isReported"`
	CreatedAt  time.Time `gorm:"index:idx_chat_room_created" json:"createdAt"`
}

// ChatMessageWithUser is the wire shape pushed to clients and returned by history.
type ChatMessageWithUser struct {
	ChatMessage
	User *PublicUser `json:"user"`
}
