package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookDelivery records one attempt to notify the vetted webhook about a submission.
type WebhookDelivery struct {
	ID           string         `gorm:"primaryKey;size:64" json:"id"`
	SubmissionID string         `gorm:"size:64;index;not null" json:"submission_id"`
	ProjectID    string         `gorm:"size:64;index" json:"project_id"`
	Status       string         `gorm:"size:16;not null" json:"status"`
	Attempts     int            `json:"attempts"`
	StatusCode   int            `json:"status_code"`
	LastError    string         `gorm:"type:text" json:"last_error"`
	Payload      datatypes.JSON `gorm:"type:json" json:"payload"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TableName maps deliveries onto the webhook_deliveries table.
func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}

const (
	// DeliveryStatusQueued marks a delivery that has not completed yet.
	DeliveryStatusQueued = "queued"
	// DeliveryStatusSent marks a delivery acknowledged with a 2xx response.
	DeliveryStatusSent = "sent"
	// DeliveryStatusFailed marks a dead-lettered delivery.
	DeliveryStatusFailed = "failed"
)
