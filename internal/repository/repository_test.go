package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/vetted-notifier/internal/models"
	"github.com/noah-isme/vetted-notifier/pkg/postgrest"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Submission{},
		&models.Answer{},
		&models.AppUser{},
		&models.TalentProfile{},
		&models.Opportunity{},
		&models.Project{},
		&models.WebhookDelivery{},
	))
	return db
}

func TestSubmissionRepositoryGetByIDAndNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	require.NoError(t, db.Create(&models.Submission{ID: "sub-1", UserID: "u-1", OpportunityID: "op-1", Status: models.SubmissionStatusSubmitted}).Error)

	found, err := repo.GetByID(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, "u-1", found.UserID)
	require.True(t, found.IsSubmitted())

	_, err = repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubmissionRepositoryListFiltersAndLimits(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	now := time.Now()
	rows := []models.Submission{
		{ID: "a", UserID: "u", OpportunityID: "o", Status: models.SubmissionStatusSubmitted, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "b", UserID: "u", OpportunityID: "o", Status: models.SubmissionStatusInProgress, CreatedAt: now.Add(-time.Hour)},
		{ID: "c", UserID: "u", OpportunityID: "o", Status: models.SubmissionStatusSubmitted, CreatedAt: now},
	}
	require.NoError(t, db.Create(&rows).Error)

	submitted, err := repo.List(context.Background(), SubmissionFilter{Status: models.SubmissionStatusSubmitted})
	require.NoError(t, err)
	require.Len(t, submitted, 2)
	require.Equal(t, "c", submitted[0].ID, "newest first")

	limited, err := repo.List(context.Background(), SubmissionFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestAnswerRepositoryOrdersBySubmittedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAnswerRepository(db)

	early := time.Now().Add(-time.Minute)
	late := time.Now()
	require.NoError(t, db.Create(&models.Answer{ID: "a2", SubmissionID: "sub-1", QuestionID: "q2", SubmittedAt: &late}).Error)
	require.NoError(t, db.Create(&models.Answer{ID: "a1", SubmissionID: "sub-1", QuestionID: "q1", SubmittedAt: &early}).Error)
	require.NoError(t, db.Create(&models.Answer{ID: "x", SubmissionID: "sub-2", QuestionID: "q1"}).Error)

	answers, err := repo.ListBySubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, answers, 2)
	require.Equal(t, "q1", answers[0].QuestionID)
	require.Equal(t, "q2", answers[1].QuestionID)
}

func TestUserAndProfileRepositories(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	profiles := NewProfileRepository(db)

	require.NoError(t, db.Create(&models.AppUser{ID: "u-1", Email: "a@x.com", UserMetadata: datatypes.JSONMap{"full_name": "Ada Lovelace"}}).Error)
	require.NoError(t, db.Create(&models.AppUser{ID: "u-2", Email: "b@x.com"}).Error)
	require.NoError(t, db.Create(&models.TalentProfile{ID: "p-1", UserID: "u-2", FirstName: "John", LastName: "Doe"}).Error)

	user, err := users.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", user.FullName())

	listed, err := users.ListByIDs(context.Background(), []string{"u-1", "u-2", "u-3"})
	require.NoError(t, err)
	require.Len(t, listed, 2)

	empty, err := users.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	profile, err := profiles.GetByUserID(context.Background(), "u-2")
	require.NoError(t, err)
	require.Equal(t, "John Doe", profile.DisplayName())

	_, err = profiles.GetByUserID(context.Background(), "u-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpportunityAndProjectRepositories(t *testing.T) {
	db := setupTestDB(t)
	opportunities := NewOpportunityRepository(db)
	projects := NewProjectRepository(db)

	projectID := "proj-1"
	require.NoError(t, db.Create(&models.Opportunity{ID: "op-1", Slug: "voice-actor", VettedProjectID: &projectID}).Error)
	require.NoError(t, db.Create(&models.Opportunity{ID: "op-2", Slug: "narrator"}).Error)
	require.NoError(t, db.Create(&models.Project{ID: "proj-1", Title: "Audiobook"}).Error)

	opportunity, err := opportunities.GetByID(context.Background(), "op-1")
	require.NoError(t, err)
	require.Equal(t, "proj-1", opportunity.LinkedProjectID())

	unlinked, err := opportunities.GetByID(context.Background(), "op-2")
	require.NoError(t, err)
	require.Empty(t, unlinked.LinkedProjectID())

	listed, err := opportunities.ListByIDs(context.Background(), []string{"op-1", "op-2"})
	require.NoError(t, err)
	require.Len(t, listed, 2)

	found, err := projects.ListByIDs(context.Background(), []string{"proj-1", "proj-404"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Audiobook", found[0].Title)
}

func TestDeliveryRepositoryCreateUpdateList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeliveryRepository(db)

	delivery := models.WebhookDelivery{ID: "d-1", SubmissionID: "sub-1", ProjectID: "proj-1", Status: models.DeliveryStatusQueued, Payload: datatypes.JSON(`{"submission_id":"sub-1"}`)}
	require.NoError(t, repo.Create(context.Background(), &delivery))

	delivery.Status = models.DeliveryStatusFailed
	delivery.Attempts = 5
	delivery.StatusCode = 503
	delivery.LastError = "webhook responded with status 503"
	require.NoError(t, repo.Update(context.Background(), &delivery))

	history, err := repo.ListBySubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.DeliveryStatusFailed, history[0].Status)
	require.Equal(t, 5, history[0].Attempts)
	require.Equal(t, 503, history[0].StatusCode)
}

func newRESTClient(t *testing.T, handler http.HandlerFunc) *postgrest.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := postgrest.New(postgrest.Config{URL: server.URL, APIKey: "key"}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestRESTCongratsStoreReadsTables(t *testing.T) {
	client := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/v1/audition_submissions":
			require.Equal(t, "eq.sub-1", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(`[{"id":"sub-1","user_id":"u-1","opportunity_id":"op-1","status":"submitted","submitted_at":"2024-05-01T10:00:00Z","questions":[{"id":"q1"}]}]`))
		case "/rest/v1/app_user":
			_, _ = w.Write([]byte(`[{"id":"u-1","email":"a@x.com","user_metadata":{"full_name":"Ada"}}]`))
		case "/rest/v1/talent_profiles":
			_, _ = w.Write([]byte(`[]`))
		case "/rest/v1/audition_answers":
			require.Equal(t, "submitted_at.asc", r.URL.Query().Get("order"))
			_, _ = w.Write([]byte(`[{"question_id":"q1","question_text":"Intro?","transcript":"hi","audio_url":"https://cdn/x.webm"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	store := NewRESTCongratsStore(client)
	ctx := context.Background()

	submission, err := store.Submissions.GetByID(ctx, "sub-1")
	require.NoError(t, err)
	require.Equal(t, "op-1", submission.OpportunityID)
	require.NotNil(t, submission.SubmittedAt)
	require.JSONEq(t, `[{"id":"q1"}]`, string(submission.Questions))

	user, err := store.Users.GetByID(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, "Ada", user.FullName())

	_, err = store.Profiles.GetByUserID(ctx, "u-1")
	require.ErrorIs(t, err, ErrNotFound)

	answers, err := store.Answers.ListBySubmission(ctx, "sub-1")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.Equal(t, "hi", answers[0].Transcript)
}

func TestRESTDeliveryRepositoryWrites(t *testing.T) {
	var methods []string
	client := newRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/webhook_deliveries", r.URL.Path)
		methods = append(methods, r.Method)
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		case http.MethodPatch:
			require.Equal(t, "eq.d-1", r.URL.Query().Get("id"))
			w.WriteHeader(http.StatusNoContent)
		}
	})
	store := NewRESTCongratsStore(client)

	delivery := models.WebhookDelivery{ID: "d-1", SubmissionID: "sub-1", Status: models.DeliveryStatusQueued}
	require.NoError(t, store.Deliveries.Create(context.Background(), &delivery))
	require.False(t, delivery.CreatedAt.IsZero())

	delivery.Status = models.DeliveryStatusSent
	require.NoError(t, store.Deliveries.Update(context.Background(), &delivery))
	require.Equal(t, []string{http.MethodPost, http.MethodPatch}, methods)
}
