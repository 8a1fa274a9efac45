package service

import (
	"github.com/noah-isme/vetted-notifier/internal/dto"
	"github.com/noah-isme/vetted-notifier/internal/models"
)

// BuildPayload maps a submission and its related rows into the webhook document.
// project_id prefers the opportunity's vetted project and falls back to the
// internal opportunity id. A nil answer list yields an empty array.
func BuildPayload(submission models.Submission, identity dto.Identity, opportunity *models.Opportunity, answers []models.Answer) dto.WebhookPayload {
	projectID := submission.OpportunityID
	if opportunity != nil {
		if linked := opportunity.LinkedProjectID(); linked != "" {
			projectID = linked
		}
	}

	items := make([]dto.WebhookAnswer, 0, len(answers))
	for _, answer := range answers {
		item := dto.WebhookAnswer{
			QuestionID:   answer.QuestionID,
			QuestionText: answer.QuestionText,
			Transcript:   answer.Transcript,
			AudioURL:     answer.AudioURL,
		}
		if answer.SubmittedAt != nil {
			submittedAt := *answer.SubmittedAt
			item.SubmittedAt = &submittedAt
		}
		items = append(items, item)
	}

	return dto.WebhookPayload{
		SubmissionID: submission.ID,
		ProjectID:    projectID,
		Email:        identity.Email,
		Name:         identity.Name,
		Answers:      items,
	}
}
