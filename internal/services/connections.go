package services

import (
	"codeloom/internal/models"

	"github.com/juju/errors"
	"gorm.io/gorm"
)

// Values returned by ConnectionStatus.
const (
	StatusNone            = "none"
	StatusPendingOutgoing = "pending_outgoing"
	StatusPendingIncoming = "pending_incoming"
	StatusConnected       = "connected"
)

// ConnectionService manages friend requests between users.
type ConnectionService struct {
	db *gorm.DB
}

func NewConnectionService(db *gorm.DB) *ConnectionService {
	return &ConnectionService{db: db}
}

// Request creates a pending connection from userID to targetUserID.
func (s *ConnectionService) Request(userID, targetUserID uint) (*models.Connection, error) {
	if userID == 0 || targetUserID == 0 {
		return nil, invalidf("userId and targetUserId are required")
	}
	if userID == targetUserID {
		return nil, invalidf("cannot connect to yourself")
	}

	conn := &models.Connection{
		UserID:       userID,
		TargetUserID: targetUserID,
		Status:       models.ConnectionPending,
		PairKey:      models.PairKeyFor(userID, targetUserID),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var target int64
		if err := tx.Model(&models.User{}).Where("id = ?", targetUserID).Count(&target).Error; err != nil {
			return err
		}
		if target == 0 {
			return errors.NotFoundf("user %d", targetUserID)
		}

		var live int64
		if err := tx.Model(&models.Connection{}).
			Where("pair_key = ? AND status IN ?", conn.PairKey,
				[]models.ConnectionStatus{models.ConnectionPending, models.ConnectionAccepted}).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return errors.AlreadyExistsf("connection request")
		}
		return tx.Create(conn).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errors.AlreadyExistsf("connection request")
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return conn, nil
}

func (s *ConnectionService) Accept(callerID, connectionID uint) (*models.Connection, error) {
	return s.resolve(callerID, connectionID, models.ConnectionAccepted)
}

func (s *ConnectionService) Reject(callerID, connectionID uint) (*models.Connection, error) {
	return s.resolve(callerID, connectionID, models.ConnectionRejected)
}

// resolve moves a pending request to a terminal status. Only the target may
// answer. The status guard in the UPDATE keeps concurrent answers from both
// succeeding.
func (s *ConnectionService) resolve(callerID, connectionID uint, to models.ConnectionStatus) (*models.Connection, error) {
	var conn models.Connection
	if err := s.db.First(&conn, connectionID).Error; err != nil {
		return nil, notFound(err, "connection %d", connectionID)
	}
	if conn.TargetUserID != callerID {
		return nil, errors.Forbiddenf("only the requested user can answer this request")
	}
	if conn.Status != models.ConnectionPending {
		return nil, invalidf("connection is already %s", conn.Status)
	}

	res := s.db.Model(&models.Connection{}).
		Where("id = ? AND status = ?", conn.ID, models.ConnectionPending).
		Update("status", to)
	if res.Error != nil {
		return nil, errors.Trace(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, invalidf("connection is no longer pending")
	}

	if err := s.db.First(&conn, connectionID).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return &conn, nil
}

// List returns the accepted connections involving userID, newest first.
func (s *ConnectionService) List(userID uint) ([]models.Connection, error) {
	conns := []models.Connection{}
	err := s.db.
		Where("status = ? AND (user_id = ? OR target_user_id = ?)", models.ConnectionAccepted, userID, userID).
		Order("created_at DESC, id DESC").
		Find(&conns).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return conns, nil
}

// ListPending returns requests waiting on userID's answer.
func (s *ConnectionService) ListPending(userID uint) ([]models.Connection, error) {
	conns := []models.Connection{}
	err := s.db.
		Where("status = ? AND target_user_id = ?", models.ConnectionPending, userID).
		Order("created_at DESC, id DESC").
		Find(&conns).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	return conns, nil
}

// Status describes the live relationship between userID and otherID from
// userID's point of view.
func (s *ConnectionService) Status(userID, otherID uint) (string, error) {
	var conn models.Connection
	err := s.db.
		Where("pair_key = ? AND status IN ?", models.PairKeyFor(userID, otherID),
			[]models.ConnectionStatus{models.ConnectionPending, models.ConnectionAccepted}).
		First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StatusNone, nil
	}
	if err != nil {
		return "", errors.Trace(err)
	}

	switch {
	case conn.Status == models.ConnectionAccepted:
		return StatusConnected, nil
	case conn.UserID == userID:
		return StatusPendingOutgoing, nil
	default:
		return StatusPendingIncoming, nil
	}
}
