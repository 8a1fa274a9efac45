package repository

import (
	"context"
	"errors"

	"github.com/noah-isme/vetted-notifier/internal/models"
)

// ErrNotFound is returned by every store when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	Status string
	Limit  int
}

// SubmissionRepository reads audition submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id string) (models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
}

// AnswerRepository reads the answers recorded during an audition.
type AnswerRepository interface {
	ListBySubmission(ctx context.Context, submissionID string) ([]models.Answer, error)
}

// UserRepository reads identity provider accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (models.AppUser, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.AppUser, error)
}

// ProfileRepository reads candidate profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (models.TalentProfile, error)
}

// OpportunityRepository reads congrats opportunities.
type OpportunityRepository interface {
	GetByID(ctx context.Context, id string) (models.Opportunity, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Opportunity, error)
}

// ProjectRepository reads vetted projects.
type ProjectRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Project, error)
}

// DeliveryRepository persists webhook delivery records.
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *models.WebhookDelivery) error
	Update(ctx context.Context, delivery *models.WebhookDelivery) error
	ListBySubmission(ctx context.Context, submissionID string) ([]models.WebhookDelivery, error)
}

// CongratsStore groups the candidate-side repositories.
type CongratsStore struct {
	Submissions   SubmissionRepository
	Answers       AnswerRepository
	Users         UserRepository
	Profiles      ProfileRepository
	Opportunities OpportunityRepository
	Deliveries    DeliveryRepository
}

// VettedStore groups the client-side repositories.
type VettedStore struct {
	Projects ProjectRepository
}
