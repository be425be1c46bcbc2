package services

import (
	"strings"
	"unicode/utf8"

	"codeloom/internal/models"

	"github.com/juju/errors"
	"gorm.io/gorm"
)

const (
	MaxChatMessageLength = 500
	DefaultHistoryLimit  = 50
	MaxHistoryLimit      = 100
)

// ChatMessageService persists room messages and serves history.
type ChatMessageService struct {
	db *gorm.DB
}

func NewChatMessageService(db *gorm.DB) *ChatMessageService {
	return &ChatMessageService{db: db}
}

// Create stores a message and returns it with its author attached.
func (s *ChatMessageService) Create(userID uint, roomID, content string) (*models.ChatMessageWithUser, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalidf("message content is required")
	}
	if utf8.RuneCountInString(content) > MaxChatMessageLength {
		return nil, invalidf("message longer than %d characters", MaxChatMessageLength)
	}
	if roomID == "" {
		roomID = models.DefaultRoomID
	}

	var author models.User
	if err := s.db.First(&author, userID).Error; err != nil {
		return nil, notFound(err, "user %d", userID)
	}

	msg := models.ChatMessage{Content: content, UserID: userID, RoomID: roomID}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return &models.ChatMessageWithUser{ChatMessage: msg, User: author.Public()}, nil
}

// History returns the newest limit non-reported messages of a room in
// chronological order.
func (s *ChatMessageService) History(roomID string, limit int) ([]models.ChatMessageWithUser, error) {
	if roomID == "" {
		roomID = models.DefaultRoomID
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var msgs []models.ChatMessage
	err := s.db.
		Where("room_id = ? AND is_reported = ?", roomID, false).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return s.withAuthors(msgs)
}

// Get returns a message by id, reported or not.
func (s *ChatMessageService) Get(id uint) (*models.ChatMessageWithUser, error) {
	var msg models.ChatMessage
	if err := s.db.First(&msg, id).Error; err != nil {
		return nil, notFound(err, "message %d", id)
	}
	out, err := s.withAuthors([]models.ChatMessage{msg})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Report flags a message so history no longer returns it.
func (s *ChatMessageService) Report(id uint) error {
	res := s.db.Model(&models.ChatMessage{}).Where("id = ?", id).Update("is_reported", true)
	if res.Error != nil {
		return errors.Trace(res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.db.Model(&models.ChatMessage{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return errors.Trace(err)
		}
		if n == 0 {
			return errors.NotFoundf("message %d", id)
		}
	}
	return nil
}

func (s *ChatMessageService) withAuthors(msgs []models.ChatMessage) ([]models.ChatMessageWithUser, error) {
	out := make([]models.ChatMessageWithUser, 0, len(msgs))
	if len(msgs) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(msgs))
	seen := map[uint]bool{}
	for _, m := range msgs {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}
	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.Trace(err)
	}
	byID := make(map[uint]*models.PublicUser, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Public()
	}

	for _, m := range msgs {
		out = append(out, models.ChatMessageWithUser{ChatMessage: m, User: byID[m.UserID]})
	}
	return out, nil
}
