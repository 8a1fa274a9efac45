package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/vetted-notifier/internal/models"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (models.AppUser, error) {
	var user models.AppUser
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return models.AppUser{}, translate(err)
	}
	return user, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]models.AppUser, error) {
	if len(ids) == 0 {
		return []models.AppUser{}, nil
	}

	var users []models.AppUser
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository instantiates the GORM-backed repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (models.TalentProfile, error) {
	var profile models.TalentProfile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return models.TalentProfile{}, translate(err)
	}
	return profile, nil
}
