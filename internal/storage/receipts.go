package storage

import (
	"context"
	"fmt"

	"babelbye/backend/internal/models"

	sq "github.com/Masterminds/squirrel"
)

// RecordReceipt persists a delivery receipt.
func (s *Service) RecordReceipt(ctx context.Context, receipt models.MessageReceipt) error {
	if err := s.DB.WithContext(ctx).Create(&receipt).Error; err != nil {
		s.Log.Error("failed to record receipt",
			"sender_id", receipt.SenderID, "recipient_id", receipt.RecipientID, "error", err)
		return fmt.Errorf("recording receipt: %w", err)
	}
	return nil
}

// DeleteHistory removes receipts involving userID, restricted to the pair
// (userID, peerID) when peerID is set. It returns the number of rows removed.
func (s *Service) DeleteHistory(ctx context.Context, userID string, peerID *string) (int64, error) {
	var where sq.Sqlizer = sq.Or{sq.Eq{"sender_id": userID}, sq.Eq{"recipient_id": userID}}
	if peerID != nil {
		where = sq.Or{
			sq.Eq{"sender_id": userID, "recipient_id": *peerID},
			sq.Eq{"sender_id": *peerID, "recipient_id": userID},
		}
	}

	stmt, args, err := qb.Delete("message_receipts").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building history delete: %w", err)
	}

	res := s.DB.WithContext(ctx).Exec(stmt, args...)
	if res.Error != nil {
		return 0, fmt.Errorf("deleting history: %w", res.Error)
	}
	return res.RowsAffected, nil
}
