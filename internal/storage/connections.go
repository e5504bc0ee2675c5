package storage

import (
	"context"
	"fmt"

	"babelbye/backend/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

// RequestConnection creates a pending request from requester to addressee.
// Re-requesting an existing pair resets it to pending.
func (s *Service) RequestConnection(ctx context.Context, requesterID, addresseeID string) (*models.Connection, error) {
	conn := models.Connection{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.ConnectionPending,
	}

	err := s.DB.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "requester_id"}, {Name: "addressee_id"}},
				DoUpdates: clause.Assignments(map[string]any{"status": models.ConnectionPending}),
			},
			clause.Returning{},
		).
		Create(&conn).Error
	if err != nil {
		return nil, fmt.Errorf("requesting connection: %w", err)
	}

	return &conn, nil
}

// RespondConnection moves the request from requester to addressee to status.
func (s *Service) RespondConnection(ctx context.Context, requesterID, addresseeID string, status models.ConnectionStatus) (*models.Connection, error) {
	var conn models.Connection
	res := s.DB.WithContext(ctx).
		Model(&conn).
		Clauses(clause.Returning{}).
		Where("requester_id = ? AND addressee_id = ?", requesterID, addresseeID).
		Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("responding to connection: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	if status == models.ConnectionAccepted && s.Cache != nil {
		if err := s.Cache.Forget(ctx, requesterID, addresseeID); err != nil {
			s.Log.Warn("refusal cache invalidation failed", "error", err)
		}
	}
	return &conn, nil
}

// ListConnections returns every connection the user takes part in, newest first.
func (s *Service) ListConnections(ctx context.Context, userID string) ([]models.Connection, error) {
	var conns []models.Connection
	err := s.DB.WithContext(ctx).
		Where("requester_id = ? OR addressee_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	return conns, nil
}

// ListPending returns requests waiting for the user's answer, newest first.
func (s *Service) ListPending(ctx context.Context, userID string) ([]models.Connection, error) {
	var conns []models.Connection
	err := s.DB.WithContext(ctx).
		Where("addressee_id = ? AND status = ?", userID, models.ConnectionPending).
		Order("created_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, fmt.Errorf("listing pending connections: %w", err)
	}
	return conns, nil
}

// AcceptedPeers returns the ids of every user with an accepted connection to userID.
func (s *Service) AcceptedPeers(ctx context.Context, userID string) ([]string, error) {
	var conns []models.Connection
	err := s.DB.WithContext(ctx).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, models.ConnectionAccepted).
		Find(&conns).Error
	if err != nil {
		return nil, fmt.Errorf("listing accepted peers: %w", err)
	}
	return lo.Map(conns, func(c models.Connection, _ int) string { return c.Peer(userID) }), nil
}

// IsConnected reports whether a and b share an accepted connection in
// either direction. Refusals are cached when a cache is configured; a positive
// answer always comes from the database.
func (s *Service) IsConnected(ctx context.Context, a, b string) (bool, error) {
	if s.Cache != nil {
		refused, err := s.Cache.Refused(ctx, a, b)
		if err != nil {
			s.Log.Warn("refusal cache read failed", "error", err)
		} else if refused {
			return false, nil
		}
	}

	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.Connection{}).
		Where("((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)) AND status = ?",
			a, b, b, a, models.ConnectionAccepted).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking connection: %w", err)
	}

	connected := count > 0
	if !connected && s.Cache != nil {
		if err := s.Cache.Remember(ctx, a, b); err != nil {
			s.Log.Warn("refusal cache write failed", "error", err)
		}
	}
	return connected, nil
}
