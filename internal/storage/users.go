package storage

import (
	"context"
	"errors"
	"fmt"

	"babelbye/backend/internal/models"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const searchLimit = 50

// UpsertProfile creates the caller's profile or overwrites its editable fields.
// The translation quota of an existing profile is left untouched.
func (s *Service) UpsertProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	user := models.User{
		ID:                        userID,
		Email:                     update.Email,
		Phone:                     update.Phone,
		Nickname:                  update.Nickname,
		Tagline:                   update.Tagline,
		NativeLanguage:            update.NativeLanguage,
		IsSearchable:              update.IsSearchable,
		TranslationQuotaRemaining: models.DefaultTranslationQuota,
	}

	err := s.DB.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"email", "phone", "nickname", "tagline", "native_language", "is_searchable",
				}),
			},
			clause.Returning{},
		).
		Create(&user).Error
	if err != nil {
		s.Log.Error("failed to upsert profile", "user_id", userID, "error", err)
		return nil, fmt.Errorf("upserting profile: %w", err)
	}
	return &user, nil
}

// GetProfile returns the profile of userID, or (nil, nil) when it does not exist.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", userID, err)
	}
	return &user, nil
}

// SearchUsers matches an exact email or phone, or a nickname/tagline
// substring among users who opted into search.
func (s *Service) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	like := "%" + query + "%"
	stmt, args, err := qb.
		Select("id", "nickname", "tagline", "native_language").
		From("users").
		Where(sq.Or{
			sq.Eq{"email": query},
			sq.Eq{"phone": query},
			sq.And{
				sq.Eq{"is_searchable": true},
				sq.Or{sq.ILike{"nickname": like}, sq.ILike{"tagline": like}},
			},
		}).
		OrderBy("nickname").
		Limit(searchLimit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building search query: %w", err)
	}

	var results []models.UserSummary
	if err := s.DB.WithContext(ctx).Raw(stmt, args...).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return results, nil
}

// UpdateQuota adds delta to the user's translation quota, flooring at zero,
// and returns the new value. The read-modify-write happens in one statement.
func (s *Service) UpdateQuota(ctx context.Context, userID string, delta int) (int, error) {
	var quota []int
	err := s.DB.WithContext(ctx).Raw(
		`UPDATE users
		SET translation_quota_remaining = GREATEST(translation_quota_remaining + ?, 0)
		WHERE id = ?
		RETURNING translation_quota_remaining`,
		delta, userID,
	).Scan(&quota).Error
	if err != nil {
		return 0, fmt.Errorf("updating quota for %s: %w", userID, err)
	}
	if len(quota) == 0 {
		return 0, fmt.Errorf("updating quota for %s: %w", userID, ErrNotFound)
	}
	return quota[0], nil
}

// SpendQuota takes one translation unit from userID if any is left and
// reports whether it did. Concurrent callers cannot spend the same unit.
func (s *Service) SpendQuota(ctx context.Context, userID string) (bool, error) {
	var quota []int
	err := s.DB.WithContext(ctx).Raw(
		`UPDATE users
		SET translation_quota_remaining = translation_quota_remaining - 1
		WHERE id = ? AND translation_quota_remaining > 0
		RETURNING translation_quota_remaining`,
		userID,
	).Scan(&quota).Error
	if err != nil {
		return false, fmt.Errorf("spending quota for %s: %w", userID, err)
	}
	return len(quota) > 0, nil
}
