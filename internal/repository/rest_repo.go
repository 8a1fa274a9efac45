package repository

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/vetted-notifier/internal/models"
	"github.com/noah-isme/vetted-notifier/pkg/postgrest"
)

// NewRESTCongratsStore wires every candidate-side repository to the hosted data API.
func NewRESTCongratsStore(client *postgrest.Client) CongratsStore {
	return CongratsStore{
		Submissions:   &restSubmissionRepository{client: client},
		Answers:       &restAnswerRepository{client: client},
		Users:         &restUserRepository{client: client},
		Profiles:      &restProfileRepository{client: client},
		Opportunities: &restOpportunityRepository{client: client},
		Deliveries:    &restDeliveryRepository{client: client, now: time.Now},
	}
}

// NewRESTVettedStore wires the client-side repositories to the hosted data API.
func NewRESTVettedStore(client *postgrest.Client) VettedStore {
	return VettedStore{Projects: &restProjectRepository{client: client}}
}

func translateREST(err error) error {
	if errors.Is(err, postgrest.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

type restSubmissionRepository struct {
	client *postgrest.Client
}

func (r *restSubmissionRepository) GetByID(ctx context.Context, id string) (models.Submission, error) {
	var submission models.Submission
	query := postgrest.NewQuery().Eq("id", id)
	if err := r.client.SelectOne(ctx, models.Submission{}.TableName(), query.Values(), &submission); err != nil {
		return models.Submission{}, translateREST(err)
	}
	return submission, nil
}

func (r *restSubmissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := postgrest.NewQuery().Order("created_at", true).Limit(filter.Limit)
	if filter.Status != "" {
		query.Eq("status", filter.Status)
	}

	var submissions []models.Submission
	if err := r.client.Select(ctx, models.Submission{}.TableName(), query.Values(), &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

type restAnswerRepository struct {
	client *postgrest.Client
}

func (r *restAnswerRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.Answer, error) {
	query := postgrest.NewQuery().Eq("submission_id", submissionID).Order("submitted_at", false)

	var answers []models.Answer
	if err := r.client.Select(ctx, models.Answer{}.TableName(), query.Values(), &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

type restUserRepository struct {
	client *postgrest.Client
}

func (r *restUserRepository) GetByID(ctx context.Context, id string) (models.AppUser, error) {
	var user models.AppUser
	query := postgrest.NewQuery().Eq("id", id)
	if err := r.client.SelectOne(ctx, models.AppUser{}.TableName(), query.Values(), &user); err != nil {
		return models.AppUser{}, translateREST(err)
	}
	return user, nil
}

func (r *restUserRepository) ListByIDs(ctx context.Context, ids []string) ([]models.AppUser, error) {
	if len(ids) == 0 {
		return []models.AppUser{}, nil
	}

	var users []models.AppUser
	query := postgrest.NewQuery().In("id", ids...)
	if err := r.client.Select(ctx, models.AppUser{}.TableName(), query.Values(), &users); err != nil {
		return nil, err
	}
	return users, nil
}

type restProfileRepository struct {
	client *postgrest.Client
}

func (r *restProfileRepository) GetByUserID(ctx context.Context, userID string) (models.TalentProfile, error) {
	var profile models.TalentProfile
	query := postgrest.NewQuery().Eq("user_id", userID)
	if err := r.client.SelectOne(ctx, models.TalentProfile{}.TableName(), query.Values(), &profile); err != nil {
		return models.TalentProfile{}, translateREST(err)
	}
	return profile, nil
}

type restOpportunityRepository struct {
	client *postgrest.Client
}

func (r *restOpportunityRepository) GetByID(ctx context.Context, id string) (models.Opportunity, error) {
	var opportunity models.Opportunity
	query := postgrest.NewQuery().Eq("id", id)
	if err := r.client.SelectOne(ctx, models.Opportunity{}.TableName(), query.Values(), &opportunity); err != nil {
		return models.Opportunity{}, translateREST(err)
	}
	return opportunity, nil
}

func (r *restOpportunityRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Opportunity, error) {
	if len(ids) == 0 {
		return []models.Opportunity{}, nil
	}

	var opportunities []models.Opportunity
	query := postgrest.NewQuery().In("id", ids...)
	if err := r.client.Select(ctx, models.Opportunity{}.TableName(), query.Values(), &opportunities); err != nil {
		return nil, err
	}
	return opportunities, nil
}

type restProjectRepository struct {
	client *postgrest.Client
}

func (r *restProjectRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Project, error) {
	if len(ids) == 0 {
		return []models.Project{}, nil
	}

	var projects []models.Project
	query := postgrest.NewQuery().Select("id", "title", "recruiter_id").In("id", ids...)
	if err := r.client.Select(ctx, models.Project{}.TableName(), query.Values(), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

type restDeliveryRepository struct {
	client *postgrest.Client
	now    func() time.Time
}

func (r *restDeliveryRepository) Create(ctx context.Context, delivery *models.WebhookDelivery) error {
	now := r.now().UTC()
	delivery.CreatedAt = now
	delivery.UpdatedAt = now
	return r.client.Insert(ctx, models.WebhookDelivery{}.TableName(), delivery, nil)
}

func (r *restDeliveryRepository) Update(ctx context.Context, delivery *models.WebhookDelivery) error {
	delivery.UpdatedAt = r.now().UTC()
	patch := map[string]interface{}{
		"status":      delivery.Status,
		"attempts":    delivery.Attempts,
		"status_code": delivery.StatusCode,
		"last_error":  delivery.LastError,
		"updated_at":  delivery.UpdatedAt,
	}
	query := postgrest.NewQuery().Eq("id", delivery.ID)
	return r.client.Update(ctx, models.WebhookDelivery{}.TableName(), query.Values(), patch, nil)
}

func (r *restDeliveryRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.WebhookDelivery, error) {
	query := postgrest.NewQuery().Eq("submission_id", submissionID).Order("created_at", true)

	var deliveries []models.WebhookDelivery
	if err := r.client.Select(ctx, models.WebhookDelivery{}.TableName(), query.Values(), &deliveries); err != nil {
		return nil, err
	}
	return deliveries, nil
}
