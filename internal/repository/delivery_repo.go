package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/vetted-notifier/internal/models"
)

type deliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository constructs a delivery log backed by GORM.
func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, delivery *models.WebhookDelivery) error {
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *deliveryRepository) Update(ctx context.Context, delivery *models.WebhookDelivery) error {
	return r.db.WithContext(ctx).
		Model(&models.WebhookDelivery{}).
		Where("id = ?", delivery.ID).
		Updates(map[string]interface{}{
			"status":      delivery.Status,
			"attempts":    delivery.Attempts,
			"status_code": delivery.StatusCode,
			"last_error":  delivery.LastError,
		}).
		Error
}

func (r *deliveryRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.WebhookDelivery, error) {
	var deliveries []models.WebhookDelivery
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

// NewGormCongratsStore wires every candidate-side repository to db.
func NewGormCongratsStore(db *gorm.DB) CongratsStore {
	return CongratsStore{
		Submissions:   NewSubmissionRepository(db),
		Answers:       NewAnswerRepository(db),
		Users:         NewUserRepository(db),
		Profiles:      NewProfileRepository(db),
		Opportunities: NewOpportunityRepository(db),
		Deliveries:    NewDeliveryRepository(db),
	}
}

// NewGormVettedStore wires the client-side repositories to db.
func NewGormVettedStore(db *gorm.DB) VettedStore {
	return VettedStore{Projects: NewProjectRepository(db)}
}
