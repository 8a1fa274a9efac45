package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// AppUser is an authenticated account as exposed by the identity provider.
type AppUser struct {
	ID           string            `gorm:"primaryKey;size:64" json:"id"`
	Email        string            `gorm:"size:320" json:"email"`
	UserMetadata datatypes.JSONMap `gorm:"column:user_metadata;type:json" json:"user_metadata"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TableName maps users onto the app_user table.
func (AppUser) TableName() string {
	return "app_user"
}

// FullName returns the full_name metadata entry, or an empty string when it is absent or blank.
func (u AppUser) FullName() string {
	name, ok := u.UserMetadata["full_name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return ""
	}
	return name
}

// TalentProfile holds the candidate's self-reported profile data.
type TalentProfile struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	UserID    string    `gorm:"size:64;uniqueIndex;not null" json:"user_id"`
	FirstName string    `gorm:"size:255" json:"first_name"`
	LastName  string    `gorm:"size:255" json:"last_name"`
	Email     string    `gorm:"size:320" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName maps profiles onto the talent_profiles table.
func (TalentProfile) TableName() string {
	return "talent_profiles"
}

// DisplayName joins the non-blank name parts, unmodified, with a single space.
func (p TalentProfile) DisplayName() string {
	parts := make([]string, 0, 2)
	for _, part := range []string{p.FirstName, p.LastName} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}
