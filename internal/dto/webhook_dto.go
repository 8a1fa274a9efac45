package dto

import (
	"time"

	"github.com/noah-isme/vetted-notifier/internal/models"
)

// Identity is the resolved candidate name and email used in notifications.
type Identity struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	NameSource  string `json:"name_source"`
	EmailSource string `json:"email_source"`
}

// WebhookPayload is the document posted to the vetted webhook for a submission.
type WebhookPayload struct {
	SubmissionID string          `json:"submission_id" validate:"required"`
	ProjectID    string          `json:"project_id" validate:"required"`
	Email        string          `json:"email" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Answers      []WebhookAnswer `json:"answers" validate:"dive"`
}

// WebhookAnswer is one recorded answer inside a WebhookPayload.
type WebhookAnswer struct {
	QuestionID   string     `json:"question_id"`
	QuestionText string     `json:"question_text"`
	Transcript   string     `json:"transcript"`
	AudioURL     string     `json:"audio_url"`
	SubmittedAt  *time.Time `json:"submitted_at"`
}

// NotifyRequest carries the options of a manual notification trigger.
type NotifyRequest struct {
	Force  bool `json:"force"`
	DryRun bool `json:"dry_run"`
}

// NotifyResponse reports the outcome of a notification.
type NotifyResponse struct {
	SubmissionID string         `json:"submission_id"`
	DeliveryID   string         `json:"delivery_id,omitempty"`
	Status       string         `json:"status"`
	Attempts     int            `json:"attempts"`
	StatusCode   int            `json:"status_code,omitempty"`
	DryRun       bool           `json:"dry_run"`
	Warnings     []string       `json:"warnings,omitempty"`
	Payload      WebhookPayload `json:"payload"`
}

// DeliveryResponse is the serialized form of a webhook delivery record.
type DeliveryResponse struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	ProjectID    string    `json:"project_id"`
	Status       string    `json:"status"`
	Attempts     int       `json:"attempts"`
	StatusCode   int       `json:"status_code"`
	LastError    string    `json:"last_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewDeliveryResponse converts a delivery model into a DTO.
func NewDeliveryResponse(model models.WebhookDelivery) DeliveryResponse {
	return DeliveryResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		ProjectID:    model.ProjectID,
		Status:       model.Status,
		Attempts:     model.Attempts,
		StatusCode:   model.StatusCode,
		LastError:    model.LastError,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewDeliveryResponseSlice converts delivery models into DTOs.
func NewDeliveryResponseSlice(items []models.WebhookDelivery) []DeliveryResponse {
	out := make([]DeliveryResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewDeliveryResponse(item))
	}
	return out
}
