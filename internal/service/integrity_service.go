package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vetted-notifier/internal/dto"
	"github.com/noah-isme/vetted-notifier/internal/observability"
	"github.com/noah-isme/vetted-notifier/internal/repository"
)

const defaultIntegrityScanLimit = 500

// IntegrityService reports submissions and opportunities whose references do
// not resolve. References between the linked databases are eventually
// consistent, so this is a read-only report; nothing is repaired.
type IntegrityService interface {
	Report(ctx context.Context, filter dto.IntegrityFilter) (dto.IntegrityReport, error)
}

type integrityService struct {
	congrats  repository.CongratsStore
	projects  repository.ProjectRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewIntegrityService constructs the report. projects may be nil when the vetted
// backend is not configured, in which case project links are not checked.
func NewIntegrityService(congrats repository.CongratsStore, projects repository.ProjectRepository, validate *validator.Validate, logger zerolog.Logger) IntegrityService {
	return &integrityService{
		congrats:  congrats,
		projects:  projects,
		validator: validate,
		logger:    logger.With().Str("component", "integrity_service").Logger(),
		now:       time.Now,
	}
}

func (s *integrityService) Report(ctx context.Context, filter dto.IntegrityFilter) (dto.IntegrityReport, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.IntegrityReport{}, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultIntegrityScanLimit
	}

	submissions, err := s.congrats.Submissions.List(ctx, repository.SubmissionFilter{Status: filter.Status, Limit: limit})
	if err != nil {
		return dto.IntegrityReport{}, fmt.Errorf("list submissions: %w", err)
	}

	userIDs := make([]string, 0, len(submissions))
	opportunityIDs := make([]string, 0, len(submissions))
	for _, submission := range submissions {
		userIDs = append(userIDs, submission.UserID)
		opportunityIDs = append(opportunityIDs, submission.OpportunityID)
	}
	userIDs = uniqueSorted(userIDs)
	opportunityIDs = uniqueSorted(opportunityIDs)

	users, err := s.congrats.Users.ListByIDs(ctx, userIDs)
	if err != nil {
		return dto.IntegrityReport{}, fmt.Errorf("list users: %w", err)
	}
	knownUsers := make(map[string]struct{}, len(users))
	for _, user := range users {
		knownUsers[user.ID] = struct{}{}
	}

	opportunities, err := s.congrats.Opportunities.ListByIDs(ctx, opportunityIDs)
	if err != nil {
		return dto.IntegrityReport{}, fmt.Errorf("list opportunities: %w", err)
	}
	knownOpportunities := make(map[string]struct{}, len(opportunities))
	for _, opportunity := range opportunities {
		knownOpportunities[opportunity.ID] = struct{}{}
	}

	report := dto.IntegrityReport{
		ScannedSubmissions:    len(submissions),
		OrphanSubmissions:     []dto.OrphanSubmission{},
		UnlinkedOpportunities: []dto.UnlinkedOpportunity{},
		GeneratedAt:           s.now().UTC(),
	}

	for _, submission := range submissions {
		_, hasUser := knownUsers[submission.UserID]
		_, hasOpportunity := knownOpportunities[submission.OpportunityID]
		if hasUser && hasOpportunity {
			continue
		}
		report.OrphanSubmissions = append(report.OrphanSubmissions, dto.OrphanSubmission{
			SubmissionID:       submission.ID,
			UserID:             submission.UserID,
			OpportunityID:      submission.OpportunityID,
			MissingUser:        !hasUser,
			MissingOpportunity: !hasOpportunity,
		})
	}

	linked := make(map[string][]string)
	for _, opportunity := range opportunities {
		projectID := opportunity.LinkedProjectID()
		if projectID == "" {
			report.UnlinkedOpportunities = append(report.UnlinkedOpportunities, dto.UnlinkedOpportunity{
				OpportunityID: opportunity.ID,
				Reason:        dto.UnlinkedReasonMissingLink,
			})
			continue
		}
		linked[projectID] = append(linked[projectID], opportunity.ID)
	}

	if s.projects != nil && len(linked) > 0 {
		projectIDs := make([]string, 0, len(linked))
		for id := range linked {
			projectIDs = append(projectIDs, id)
		}
		sort.Strings(projectIDs)

		projects, err := s.projects.ListByIDs(ctx, projectIDs)
		if err != nil {
			return dto.IntegrityReport{}, fmt.Errorf("list vetted projects: %w", err)
		}
		for _, project := range projects {
			delete(linked, project.ID)
		}
		for projectID, owners := range linked {
			for _, opportunityID := range owners {
				report.UnlinkedOpportunities = append(report.UnlinkedOpportunities, dto.UnlinkedOpportunity{
					OpportunityID:   opportunityID,
					VettedProjectID: projectID,
					Reason:          dto.UnlinkedReasonUnknownProject,
				})
			}
		}
	}

	sort.Slice(report.OrphanSubmissions, func(i, j int) bool {
		return report.OrphanSubmissions[i].SubmissionID < report.OrphanSubmissions[j].SubmissionID
	})
	sort.Slice(report.UnlinkedOpportunities, func(i, j int) bool {
		return report.UnlinkedOpportunities[i].OpportunityID < report.UnlinkedOpportunities[j].OpportunityID
	})

	observability.IntegrityFindings().WithLabelValues("orphan_submission").Set(float64(len(report.OrphanSubmissions)))
	observability.IntegrityFindings().WithLabelValues("unlinked_opportunity").Set(float64(len(report.UnlinkedOpportunities)))

	s.logger.Info().
		Int("scanned", report.ScannedSubmissions).
		Int("orphans", len(report.OrphanSubmissions)).
		Int("unlinked", len(report.UnlinkedOpportunities)).
		Msg("integrity report generated")

	return report, nil
}
