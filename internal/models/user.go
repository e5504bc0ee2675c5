package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTranslationQuota is granted to every newly created profile.
const DefaultTranslationQuota = 100

// User is a chat participant's profile, including the translation budget
// consumed whenever an inbound message is machine-translated for them.
type User struct {
	ID                        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email                     *string   `gorm:"uniqueIndex" json:"email"`
	Phone                     *string   `gorm:"uniqueIndex" json:"phone"`
	Nickname                  string    `gorm:"not null" json:"nickname"`
	Tagline                   *string   `json:"tagline"`
	NativeLanguage            string    `gorm:"not null" json:"native_language"`
	IsSearchable              bool      `gorm:"not null" json:"is_searchable"`
	TranslationQuotaRemaining int       `gorm:"not null" json:"translation_quota_remaining"`
	CreatedAt                 time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID for the user when the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// CanTranslate reports whether the user still has translation budget.
func (u *User) CanTranslate() bool {
	return u.TranslationQuotaRemaining > 0
}

// UserSummary is the public projection returned by search.
type UserSummary struct {
	ID             string  `json:"id"`
	Nickname       string  `json:"nickname"`
	Tagline        *string `json:"tagline"`
	NativeLanguage string  `json:"native_language"`
}

// Summary projects the profile to its public fields.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Nickname:       u.Nickname,
		Tagline:        u.Tagline,
		NativeLanguage: u.NativeLanguage,
	}
}

// ProfileUpdate is the body of PUT /api/profile.
type ProfileUpdate struct {
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone" binding:"omitempty,e164"`
	Nickname       string  `json:"nickname" binding:"required,max=64"`
	Tagline        *string `json:"tagline" binding:"omitempty,max=160"`
	NativeLanguage string  `json:"native_language" binding:"required,locale"`
	IsSearchable   bool    `json:"is_searchable"`
}
