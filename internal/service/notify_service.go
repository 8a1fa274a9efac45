package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/vetted-notifier/internal/dto"
	"github.com/noah-isme/vetted-notifier/internal/models"
	"github.com/noah-isme/vetted-notifier/internal/observability"
	"github.com/noah-isme/vetted-notifier/internal/repository"
	"github.com/noah-isme/vetted-notifier/pkg/webhook"
)

var (
	// ErrSubmissionNotFound indicates the submission id does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrDuplicateDelivery indicates the submission was notified within the dedupe window.
	ErrDuplicateDelivery = errors.New("submission already notified recently")
	// ErrInvalidPayload indicates the built payload failed validation.
	ErrInvalidPayload = errors.New("webhook payload invalid")
	// ErrDeliveryFailed indicates the webhook did not acknowledge the payload.
	ErrDeliveryFailed = errors.New("webhook delivery failed")
)

// WebhookSender posts a payload to the vetted webhook.
type WebhookSender interface {
	Send(ctx context.Context, payload interface{}) (webhook.Result, error)
}

// EventPublisher fans delivery events out to other services. *nats.Conn satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// NotifyConfig tunes the notification workflow.
type NotifyConfig struct {
	DedupeTTL    time.Duration
	EventSubject string
	Resolver     *IdentityResolver
}

// NotifyService builds and delivers submission notifications.
type NotifyService interface {
	Preview(ctx context.Context, submissionID string) (dto.NotifyResponse, error)
	Notify(ctx context.Context, submissionID string, req dto.NotifyRequest) (dto.NotifyResponse, error)
	Deliveries(ctx context.Context, submissionID string) ([]dto.DeliveryResponse, error)
}

type notifyService struct {
	store     repository.CongratsStore
	sender    WebhookSender
	cache     *redis.Client
	events    EventPublisher
	validator *validator.Validate
	resolver  IdentityResolver
	cfg       NotifyConfig
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

type deliveryEvent struct {
	DeliveryID   string    `json:"delivery_id"`
	SubmissionID string    `json:"submission_id"`
	ProjectID    string    `json:"project_id"`
	Status       string    `json:"status"`
	Attempts     int       `json:"attempts"`
	StatusCode   int       `json:"status_code"`
	SentAt       time.Time `json:"sent_at"`
}

// NewNotifyService constructs the notification workflow. cache and events are optional.
func NewNotifyService(store repository.CongratsStore, sender WebhookSender, cache *redis.Client, events EventPublisher, validate *validator.Validate, cfg NotifyConfig, logger zerolog.Logger) NotifyService {
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 10 * time.Minute
	}

	resolver := DefaultIdentityResolver()
	if cfg.Resolver != nil {
		resolver = *cfg.Resolver
	}

	return &notifyService{
		store:     store,
		sender:    sender,
		cache:     cache,
		events:    events,
		validator: validate,
		resolver:  resolver,
		cfg:       cfg,
		logger:    logger.With().Str("component", "notify_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/vetted-notifier/internal/service/notify"),
		now:       time.Now,
	}
}

func (s *notifyService) Preview(ctx context.Context, submissionID string) (dto.NotifyResponse, error) {
	return s.Notify(ctx, submissionID, dto.NotifyRequest{DryRun: true})
}

func (s *notifyService) Notify(ctx context.Context, submissionID string, req dto.NotifyRequest) (dto.NotifyResponse, error) {
	ctx, span := s.tracer.Start(ctx, "notify.submission", trace.WithAttributes(
		attribute.String("submission.id", submissionID),
		attribute.Bool("notify.dry_run", req.DryRun),
		attribute.Bool("notify.force", req.Force),
	))
	defer span.End()

	payload, warnings, err := s.assemble(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assemble failed")
		if errors.Is(err, ErrSubmissionNotFound) {
			observability.Notifications().WithLabelValues("not_found").Inc()
		}
		return dto.NotifyResponse{}, err
	}
	span.SetAttributes(attribute.String("project.id", payload.ProjectID), attribute.Int("payload.answers", len(payload.Answers)))

	response := dto.NotifyResponse{
		SubmissionID: submissionID,
		DryRun:       req.DryRun,
		Warnings:     warnings,
		Payload:      payload,
	}

	if req.DryRun {
		response.Status = "preview"
		observability.Notifications().WithLabelValues("preview").Inc()
		return response, nil
	}

	dedupeKey := fmt.Sprintf("webhook:dedupe:%s", submissionID)
	acquired := false
	if s.cache != nil && !req.Force {
		ok, err := s.cache.SetNX(ctx, dedupeKey, s.now().UTC().Format(time.RFC3339), s.cfg.DedupeTTL).Result()
		if err != nil {
			span.RecordError(err)
			return dto.NotifyResponse{}, fmt.Errorf("dedupe check: %w", err)
		}
		if !ok {
			span.SetStatus(codes.Error, "duplicate delivery")
			observability.Notifications().WithLabelValues("duplicate").Inc()
			return dto.NotifyResponse{}, ErrDuplicateDelivery
		}
		acquired = true
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		if acquired {
			s.releaseDedupe(ctx, dedupeKey)
		}
		return dto.NotifyResponse{}, fmt.Errorf("encode payload: %w", err)
	}

	delivery := models.WebhookDelivery{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		ProjectID:    payload.ProjectID,
		Status:       models.DeliveryStatusQueued,
		Payload:      datatypes.JSON(encoded),
	}
	if err := s.store.Deliveries.Create(ctx, &delivery); err != nil {
		if acquired {
			s.releaseDedupe(ctx, dedupeKey)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		observability.Notifications().WithLabelValues("error").Inc()
		return dto.NotifyResponse{}, fmt.Errorf("record delivery: %w", err)
	}
	response.DeliveryID = delivery.ID

	result, sendErr := s.sender.Send(ctx, payload)
	delivery.Attempts = result.Attempts
	delivery.StatusCode = result.StatusCode
	response.Attempts = result.Attempts
	response.StatusCode = result.StatusCode

	if sendErr != nil {
		delivery.Status = models.DeliveryStatusFailed
		delivery.LastError = sendErr.Error()
	} else {
		delivery.Status = models.DeliveryStatusSent
	}
	response.Status = delivery.Status

	if err := s.store.Deliveries.Update(ctx, &delivery); err != nil {
		s.logger.Error().Err(err).Str("delivery_id", delivery.ID).Msg("failed to record delivery outcome")
	}
	s.publish(delivery)

	logger := s.logger.With().
		Str("submission_id", submissionID).
		Str("delivery_id", delivery.ID).
		Str("project_id", payload.ProjectID).
		Str("email", maskEmailAddress(payload.Email)).
		Int("attempts", result.Attempts).
		Logger()

	if sendErr != nil {
		// A forced resend keeps the marker left by the earlier delivery.
		if acquired {
			s.releaseDedupe(ctx, dedupeKey)
		}
		span.RecordError(sendErr)
		span.SetStatus(codes.Error, "delivery failed")
		observability.Notifications().WithLabelValues("failed").Inc()
		logger.Error().Err(sendErr).Int("status_code", result.StatusCode).Msg("webhook delivery dead-lettered")
		return response, fmt.Errorf("%w: %w", ErrDeliveryFailed, sendErr)
	}

	if s.cache != nil && req.Force {
		if err := s.cache.Set(ctx, dedupeKey, s.now().UTC().Format(time.RFC3339), s.cfg.DedupeTTL).Err(); err != nil {
			logger.Warn().Err(err).Msg("failed to refresh dedupe marker")
		}
	}

	observability.Notifications().WithLabelValues("sent").Inc()
	span.SetStatus(codes.Ok, "delivered")
	logger.Info().Int("status_code", result.StatusCode).Msg("submission notification delivered")

	return response, nil
}

func (s *notifyService) Deliveries(ctx context.Context, submissionID string) ([]dto.DeliveryResponse, error) {
	if _, err := s.store.Submissions.GetByID(ctx, submissionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	deliveries, err := s.store.Deliveries.ListBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	return dto.NewDeliveryResponseSlice(deliveries), nil
}

// assemble loads every row the payload depends on. Missing user, profile,
// opportunity or answers are tolerated and reported as warnings.
func (s *notifyService) assemble(ctx context.Context, submissionID string) (dto.WebhookPayload, []string, error) {
	submission, err := s.store.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.WebhookPayload{}, nil, ErrSubmissionNotFound
		}
		return dto.WebhookPayload{}, nil, fmt.Errorf("load submission: %w", err)
	}

	var warnings []string

	var user *models.AppUser
	if submission.UserID != "" {
		found, err := s.store.Users.GetByID(ctx, submission.UserID)
		switch {
		case err == nil:
			user = &found
		case errors.Is(err, repository.ErrNotFound):
			warnings = append(warnings, fmt.Sprintf("user %s not found", submission.UserID))
		default:
			return dto.WebhookPayload{}, nil, fmt.Errorf("load user: %w", err)
		}
	} else {
		warnings = append(warnings, "submission has no user_id")
	}
	if submission.OpportunityID == "" {
		warnings = append(warnings, "submission has no opportunity_id")
	}

	var profile *models.TalentProfile
	if submission.UserID != "" {
		found, err := s.store.Profiles.GetByUserID(ctx, submission.UserID)
		switch {
		case err == nil:
			profile = &found
		case errors.Is(err, repository.ErrNotFound):
		default:
			return dto.WebhookPayload{}, nil, fmt.Errorf("load profile: %w", err)
		}
	}

	var opportunity *models.Opportunity
	if submission.OpportunityID != "" {
		found, err := s.store.Opportunities.GetByID(ctx, submission.OpportunityID)
		switch {
		case err == nil:
			opportunity = &found
			if found.LinkedProjectID() == "" {
				warnings = append(warnings, fmt.Sprintf("opportunity %s has no vetted_project_id", found.ID))
			}
		case errors.Is(err, repository.ErrNotFound):
			warnings = append(warnings, fmt.Sprintf("opportunity %s not found", submission.OpportunityID))
		default:
			return dto.WebhookPayload{}, nil, fmt.Errorf("load opportunity: %w", err)
		}
	}

	answers, err := s.store.Answers.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return dto.WebhookPayload{}, nil, fmt.Errorf("load answers: %w", err)
	}
	if len(answers) == 0 {
		warnings = append(warnings, "submission has no answers")
	}

	identity := s.resolver.Resolve(user, profile)
	payload := BuildPayload(submission, identity, opportunity, answers)

	if err := s.validator.Struct(payload); err != nil {
		return dto.WebhookPayload{}, nil, invalidPayload(err, warnings)
	}
	if err := ValidatePayloadSchema(payload); err != nil {
		return dto.WebhookPayload{}, nil, invalidPayload(err, warnings)
	}

	if len(warnings) > 0 {
		s.logger.Warn().
			Str("submission_id", submission.ID).
			Strs("warnings", warnings).
			Str("name_source", identity.NameSource).
			Str("email_source", identity.EmailSource).
			Msg("submission references incomplete")
	}

	return payload, warnings, nil
}

func invalidPayload(err error, warnings []string) error {
	if len(warnings) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return fmt.Errorf("%w: %w (%s)", ErrInvalidPayload, err, strings.Join(warnings, "; "))
}

func (s *notifyService) releaseDedupe(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to release dedupe marker")
	}
}

func (s *notifyService) publish(delivery models.WebhookDelivery) {
	if s.events == nil || s.cfg.EventSubject == "" {
		return
	}

	payload, err := json.Marshal(deliveryEvent{
		DeliveryID:   delivery.ID,
		SubmissionID: delivery.SubmissionID,
		ProjectID:    delivery.ProjectID,
		Status:       delivery.Status,
		Attempts:     delivery.Attempts,
		StatusCode:   delivery.StatusCode,
		SentAt:       s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode delivery event")
		return
	}

	if err := s.events.Publish(s.cfg.EventSubject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.cfg.EventSubject).Msg("failed to publish delivery event")
	}
}
