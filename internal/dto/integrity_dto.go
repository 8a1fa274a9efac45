package dto

import "time"

// IntegrityFilter narrows the submissions scanned by an integrity report.
type IntegrityFilter struct {
	Status string `query:"status" validate:"omitempty,oneof=in_progress submitted"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=5000"`
}

// OrphanSubmission is a submission whose user or opportunity reference is dangling.
type OrphanSubmission struct {
	SubmissionID       string `json:"submission_id"`
	UserID             string `json:"user_id"`
	OpportunityID      string `json:"opportunity_id"`
	MissingUser        bool   `json:"missing_user"`
	MissingOpportunity bool   `json:"missing_opportunity"`
}

// UnlinkedOpportunity is an opportunity that does not resolve to a vetted project.
type UnlinkedOpportunity struct {
	OpportunityID   string `json:"opportunity_id"`
	VettedProjectID string `json:"vetted_project_id,omitempty"`
	Reason          string `json:"reason"`
}

// IntegrityReport summarises dangling references between the linked databases.
type IntegrityReport struct {
	ScannedSubmissions    int                   `json:"scanned_submissions"`
	OrphanSubmissions     []OrphanSubmission    `json:"orphan_submissions"`
	UnlinkedOpportunities []UnlinkedOpportunity `json:"unlinked_opportunities"`
	GeneratedAt           time.Time             `json:"generated_at"`
}

const (
	// UnlinkedReasonMissingLink marks an opportunity without vetted_project_id.
	UnlinkedReasonMissingLink = "no_vetted_project_id"
	// UnlinkedReasonUnknownProject marks a vetted_project_id with no matching project.
	UnlinkedReasonUnknownProject = "unknown_vetted_project"
)
