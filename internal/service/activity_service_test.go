package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peibanapp/peiban-api/internal/dto"
	"github.com/peibanapp/peiban-api/internal/models"
	"github.com/peibanapp/peiban-api/internal/repository"
)

func newActivityFixture(t *testing.T) (repository.ActivityRepository, ActivityService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Activity{}, &models.ActivityParticipant{}))

	repo := repository.NewActivityRepository(db)
	validate := validator.New(validator.WithRequiredStructEnabled())
	return repo, NewActivityService(repo, validate, testLogger())
}

func createActivity(t *testing.T, svc ActivityService, organizer Actor, maxParticipants *int) dto.ActivityResponse {
	t.Helper()
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(2 * time.Hour)
	activity, err := svc.Create(context.Background(), organizer, dto.ActivityCreateRequest{
		Title:           "社区象棋比赛",
		Category:        "entertainment",
		StartTime:       start.Format(time.RFC3339),
		EndTime:         end.Format(time.RFC3339),
		MaxParticipants: maxParticipants,
	})
	require.NoError(t, err)
	return activity
}

func TestActivityCreateValidatesTimeRange(t *testing.T) {
	_, svc := newActivityFixture(t)
	start := time.Now().Add(24 * time.Hour)

	_, err := svc.Create(context.Background(), Actor{ID: 1, Role: models.RoleUser}, dto.ActivityCreateRequest{
		Title:     "时间颠倒的活动",
		StartTime: start.Format(time.RFC3339),
		EndTime:   start.Add(-time.Hour).Format(time.RFC3339),
	})
	require.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestActivityJoinLifecycle(t *testing.T) {
	_, svc := newActivityFixture(t)
	organizer := Actor{ID: 1, Role: models.RoleUser}
	member := Actor{ID: 2, Role: models.RoleUser}

	activity := createActivity(t, svc, organizer, nil)

	participant, err := svc.Join(context.Background(), member, activity.ID)
	require.NoError(t, err)
	require.Equal(t, models.ParticipantStatusRegistered, participant.Status)

	// A second join while the first is live is rejected.
	_, err = svc.Join(context.Background(), member, activity.ID)
	require.ErrorIs(t, err, ErrAlreadyJoined)

	require.NoError(t, svc.Leave(context.Background(), member, activity.ID))

	// Leaving twice has nothing left to cancel.
	err = svc.Leave(context.Background(), member, activity.ID)
	require.ErrorIs(t, err, ErrNotParticipant)

	// After cancelling, the member may join again.
	rejoined, err := svc.Join(context.Background(), member, activity.ID)
	require.NoError(t, err)
	require.NotEqual(t, participant.ID, rejoined.ID)
}

func TestActivityJoinFullActivity(t *testing.T) {
	_, svc := newActivityFixture(t)
	organizer := Actor{ID: 1, Role: models.RoleUser}

	activity := createActivity(t, svc, organizer, ptrInt(1))

	_, err := svc.Join(context.Background(), Actor{ID: 2, Role: models.RoleUser}, activity.ID)
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), Actor{ID: 3, Role: models.RoleUser}, activity.ID)
	require.ErrorIs(t, err, ErrActivityFull)
}

func TestActivityJoinRequiresScheduledStatus(t *testing.T) {
	_, svc := newActivityFixture(t)
	organizer := Actor{ID: 1, Role: models.RoleUser}

	activity := createActivity(t, svc, organizer, nil)

	status := models.ActivityStatusCancelled
	_, err := svc.Update(context.Background(), organizer, activity.ID, dto.ActivityUpdateRequest{Status: &status})
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), Actor{ID: 2, Role: models.RoleUser}, activity.ID)
	require.ErrorIs(t, err, ErrActivityNotJoinable)
}

func TestActivityJoinUnknownActivity(t *testing.T) {
	_, svc := newActivityFixture(t)

	_, err := svc.Join(context.Background(), Actor{ID: 2, Role: models.RoleUser}, 999999)
	require.ErrorIs(t, err, ErrActivityNotFound)
}

func TestActivityUpdateOnlyOrganizerOrAdmin(t *testing.T) {
	_, svc := newActivityFixture(t)
	organizer := Actor{ID: 1, Role: models.RoleUser}
	stranger := Actor{ID: 9, Role: models.RoleUser}
	admin := Actor{ID: 10, Role: models.RoleAdmin}

	activity := createActivity(t, svc, organizer, nil)

	title := "改名后的活动"
	_, err := svc.Update(context.Background(), stranger, activity.ID, dto.ActivityUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrActivityAccessDenied)

	updated, err := svc.Update(context.Background(), admin, activity.ID, dto.ActivityUpdateRequest{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
}

func TestActivityParticipantsListsCancelledRows(t *testing.T) {
	_, svc := newActivityFixture(t)
	organizer := Actor{ID: 1, Role: models.RoleUser}
	member := Actor{ID: 2, Role: models.RoleUser}

	activity := createActivity(t, svc, organizer, nil)

	_, err := svc.Join(context.Background(), member, activity.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Leave(context.Background(), member, activity.ID))
	_, err = svc.Join(context.Background(), member, activity.ID)
	require.NoError(t, err)

	participants, err := svc.Participants(context.Background(), activity.ID)
	require.NoError(t, err)

	var cancelled, registered int
	for _, p := range participants {
		if p.UserID != member.ID {
			continue
		}
		switch p.Status {
		case models.ParticipantStatusCancelled:
			cancelled++
		case models.ParticipantStatusRegistered:
			registered++
		}
	}
	require.Equal(t, 1, cancelled)
	require.Equal(t, 1, registered)
}
