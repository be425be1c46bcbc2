package models

import (
	"fmt"
	"time"
)

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// Connection is a directed friend request from UserID to TargetUserID.
// PairKey is the same for both orderings; the partial unique index keeps at
// most one pending or accepted record per pair.
type Connection struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	UserID       uint             `gorm:"not null;index" json:"userId"`
	TargetUserID uint             `gorm:"not null;index" json:"targetUserId"`
	Status       ConnectionStatus `gorm:"size:10;not null;index" json:"status"`
	PairKey      string           `gorm:"size:41;not null;uniqueIndex:idx_connections_live_pair,where:status <> 'rejected'" json:"-"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// PairKeyFor returns the order-independent key for two user ids.
func PairKeyFor(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// Involves reports whether userID is either party of the connection.
func (c *Connection) Involves(userID uint) bool {
	return c.UserID == userID || c.TargetUserID == userID
}
