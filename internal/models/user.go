package models

import (
	"time"
)

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusBusy    PresenceStatus = "busy"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

// Valid reports whether s is one of the known presence values.
func (s PresenceStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusBusy, StatusAway, StatusOffline:
		return true
	}
	return false
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	Email                 string         `gorm:"uniqueIndex;not null" json:"email"`
	Username              string         `gorm:"uniqueIndex;size:30;not null" json:"username"`
	DisplayName           string         `gorm:"not null" json:"displayName"`
	Password              *string        `json:"-"` // bcrypt hash, nil for external sign-in
	Avatar                string         `json:"avatar"`
	Bio                   string         `gorm:"size:500" json:"bio"`
	Website               string         `json:"website"`
	Github                string         `json:"github"`
	Linkedin              string         `json:"linkedin"`
	IsPremium             bool           `gorm:"default:false;not null" json:"isPremium"`
	Status                PresenceStatus `gorm:"size:10;default:'online';not null" json:"status"`
	Role                  string         `gorm:"size:20;default:'user';not null" json:"role"`
	PreferredLanguage     string         `gorm:"size:8;default:'pt'" json:"preferredLanguage"`
	Theme                 string         `gorm:"size:16;default:'dark'" json:"theme"`
	ExternalUID           *string        `gorm:"uniqueIndex" json:"-"`
	BillingCustomerID     *string        `gorm:"index" json:"-"`
	BillingSubscriptionID *string        `gorm:"index" json:"-"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

// PublicUser is the profile subset shown to other chat participants.
type PublicUser struct {
	ID          uint           `json:"id"`
	Username    string         `json:"username"`
	DisplayName string         `json:"displayName"`
	Avatar      string         `json:"avatar"`
	IsPremium   bool           `json:"isPremium"`
	Status      PresenceStatus `json:"status"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		IsPremium:   u.IsPremium,
		Status:      u.Status,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPassword is false for accounts created through external sign-in.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}
