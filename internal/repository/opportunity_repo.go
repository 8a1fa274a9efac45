package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/vetted-notifier/internal/models"
)

type opportunityRepository struct {
	db *gorm.DB
}

// NewOpportunityRepository instantiates the GORM-backed repository.
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

func (r *opportunityRepository) GetByID(ctx context.Context, id string) (models.Opportunity, error) {
	var opportunity models.Opportunity
	if err := r.db.WithContext(ctx).First(&opportunity, "id = ?", id).Error; err != nil {
		return models.Opportunity{}, translate(err)
	}
	return opportunity, nil
}

func (r *opportunityRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Opportunity, error) {
	if len(ids) == 0 {
		return []models.Opportunity{}, nil
	}

	var opportunities []models.Opportunity
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&opportunities).Error; err != nil {
		return nil, err
	}
	return opportunities, nil
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository instantiates the GORM-backed repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Project, error) {
	if len(ids) == 0 {
		return []models.Project{}, nil
	}

	var projects []models.Project
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}
