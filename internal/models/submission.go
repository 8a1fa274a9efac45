package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is a candidate's recorded attempt at an audition for an opportunity.
type Submission struct {
	ID            string         `gorm:"primaryKey;size:64" json:"id"`
	UserID        string         `gorm:"size:64;index;not null" json:"user_id"`
	OpportunityID string         `gorm:"size:64;index;not null" json:"opportunity_id"`
	Status        string         `gorm:"size:32;not null" json:"status"`
	SubmittedAt   *time.Time     `json:"submitted_at"`
	Questions     datatypes.JSON `gorm:"type:json" json:"questions,omitempty"`
	AudioURLs     datatypes.JSON `gorm:"column:audio_urls;type:json" json:"audio_urls,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName maps submissions onto the shared audition table.
func (Submission) TableName() string {
	return "audition_submissions"
}

const (
	// SubmissionStatusInProgress marks an audition that is still being recorded.
	SubmissionStatusInProgress = "in_progress"
	// SubmissionStatusSubmitted marks a completed audition.
	SubmissionStatusSubmitted = "submitted"
)

// IsSubmitted reports whether the candidate finished the audition.
func (s Submission) IsSubmitted() bool {
	return s.Status == SubmissionStatusSubmitted
}

// Answer is a single recorded response belonging to a submission.
type Answer struct {
	ID           string     `gorm:"primaryKey;size:64" json:"id"`
	SubmissionID string     `gorm:"size:64;index;not null" json:"submission_id"`
	QuestionID   string     `gorm:"size:64" json:"question_id"`
	QuestionText string     `gorm:"type:text" json:"question_text"`
	Transcript   string     `gorm:"type:text" json:"transcript"`
	AudioURL     string     `gorm:"size:1024" json:"audio_url"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName maps answers onto the shared audition answer table.
func (Answer) TableName() string {
	return "audition_answers"
}
