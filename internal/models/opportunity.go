package models

import (
	"strings"
	"time"
)

// Opportunity is an internal posting on the congrats side.
type Opportunity struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	Slug            string    `gorm:"size:255;index" json:"slug"`
	Title           string    `gorm:"size:255" json:"title"`
	VettedProjectID *string   `gorm:"size:64;index" json:"vetted_project_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName maps opportunities onto the opportunities table.
func (Opportunity) TableName() string {
	return "opportunities"
}

// LinkedProjectID returns the external project id, or an empty string when unset or blank.
func (o Opportunity) LinkedProjectID() string {
	if o.VettedProjectID == nil || strings.TrimSpace(*o.VettedProjectID) == "" {
		return ""
	}
	return *o.VettedProjectID
}

// Project is a client project on the vetted side.
type Project struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Title       string    `gorm:"size:255" json:"title"`
	RecruiterID *string   `gorm:"size:64;index" json:"recruiter_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName maps projects onto the vetted projects table.
func (Project) TableName() string {
	return "projects"
}
