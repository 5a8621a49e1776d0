package repositories

import (
	"context"
	"testing"
	"time"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/applications/requests"
	"homestay-registration-backend/applications/workflow"
	"homestay-registration-backend/config"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/internal/testdb"
	settingsRepositories "homestay-registration-backend/settings/repositories"
	settingsServices "homestay-registration-backend/settings/services"
	userRepositories "homestay-registration-backend/users/repositories"
	"homestay-registration-backend/utils/apperrors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var _ workflow.Storage = (*applicationRepository)(nil)

func newApplication(ownerID uuid.UUID, status models.ApplicationStatus) *models.Application {
	return &models.Application{
		Kind:      models.KindNewRegistration,
		Status:    status,
		OwnerID:   ownerID,
		OwnerName: "Asha Verma",
		CreatedBy: ownerID.String(),
	}
}

func strPtr(s string) *string { return &s }

func TestGuardedWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository(testdb.Open(t))

	app := newApplication(uuid.New(), models.StatusDraft)
	require.NoError(t, repo.CreateApplication(ctx, app))

	app.PropertyName = "Pine View"
	require.NoError(t, repo.UpdateApplication(ctx, app, models.StatusDraft))

	app.Status = models.StatusSubmitted
	app.TotalFee = decimal.NewFromInt(2850)
	require.NoError(t, repo.TransitionApplication(ctx, app, models.StatusDraft))

	stored, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, stored.Status)
	assert.Equal(t, "Pine View", stored.PropertyName)
	assert.True(t, stored.TotalFee.Equal(decimal.NewFromInt(2850)))

	// A second writer still expecting draft loses.
	app.Status = models.StatusUnderScrutiny
	err = repo.TransitionApplication(ctx, app, models.StatusDraft)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	missing := newApplication(uuid.New(), models.StatusDraft)
	missing.ID = uuid.New()
	err = repo.TransitionApplication(ctx, missing, models.StatusDraft)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = repo.GetApplication(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNextSequence(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository(testdb.Open(t))

	n, err := repo.NextSequence(ctx, "HS/SHI/2026/")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	first := newApplication(uuid.New(), models.StatusApproved)
	first.ApplicationNumber = strPtr("HS/SHI/2026/00003")
	first.CertificateNumber = strPtr("HSC/SHI/2026/00007")
	require.NoError(t, repo.CreateApplication(ctx, first))

	second := newApplication(uuid.New(), models.StatusSubmitted)
	second.ApplicationNumber = strPtr("HS/KUL/2026/00010")
	require.NoError(t, repo.CreateApplication(ctx, second))

	tests := map[string]int{
		"HS/SHI/2026/":  4,
		"HSC/SHI/2026/": 8,
		"HS/KUL/2026/":  11,
		"HS/SHI/2027/":  1,
	}
	for prefix, want := range tests {
		got, err := repo.NextSequence(ctx, prefix)
		require.NoError(t, err)
		assert.Equal(t, want, got, prefix)
	}
}

func TestDuplicateNumbersAndInFlightIndex(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	require.NoError(t, config.CreateInFlightApplicationIndex(db))
	repo := NewApplicationRepository(db)

	first := newApplication(uuid.New(), models.StatusSubmitted)
	first.ApplicationNumber = strPtr("HS/SHI/2026/00001")
	require.NoError(t, repo.CreateApplication(ctx, first))

	clash := newApplication(uuid.New(), models.StatusSubmitted)
	clash.ApplicationNumber = strPtr("HS/SHI/2026/00001")
	assert.ErrorIs(t, repo.CreateApplication(ctx, clash), apperrors.ErrDuplicateKey)

	sameOwner := newApplication(first.OwnerID, models.StatusSubmitted)
	sameOwner.ApplicationNumber = strPtr("HS/SHI/2026/00002")
	assert.ErrorIs(t, repo.CreateApplication(ctx, sameOwner), apperrors.ErrDuplicateKey)

	// Drafts do not occupy the slot.
	draft := newApplication(first.OwnerID, models.StatusDraft)
	require.NoError(t, repo.CreateApplication(ctx, draft))
}

func TestFindInFlightApplication(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository(testdb.Open(t))
	owner := uuid.New()

	draft := newApplication(owner, models.StatusDraft)
	require.NoError(t, repo.CreateApplication(ctx, draft))
	done := newApplication(owner, models.StatusApproved)
	require.NoError(t, repo.CreateApplication(ctx, done))

	found, err := repo.FindInFlightApplication(ctx, owner, draft.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	live := newApplication(owner, models.StatusDTDOReview)
	require.NoError(t, repo.CreateApplication(ctx, live))

	found, err = repo.FindInFlightApplication(ctx, owner, draft.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, live.ID, found.ID)

	found, err = repo.FindInFlightApplication(ctx, owner, live.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	other := uuid.New()
	require.NoError(t, repo.CreateApplication(ctx, newApplication(other, models.StatusRejected)))
	found, err = repo.FindInFlightApplication(ctx, other, uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, found)

	correcting := newApplication(other, models.StatusObjectionRaised)
	require.NoError(t, repo.CreateApplication(ctx, correcting))
	found, err = repo.FindInFlightApplication(ctx, other, uuid.Nil)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, correcting.ID, found.ID)
}

func TestInFlightStatuses(t *testing.T) {
	statuses := models.InFlightStatuses()
	assert.NotContains(t, statuses, models.StatusDraft)
	assert.NotContains(t, statuses, models.StatusApproved)
	assert.NotContains(t, statuses, models.StatusRejected)
	assert.Contains(t, statuses, models.StatusRevertedToApplicant)
	assert.Len(t, statuses, len(models.AllStatuses)-3)
}

func TestListSubmittedApplications(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository(testdb.Open(t))

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	statuses := []models.ApplicationStatus{models.StatusSubmitted, models.StatusDraft, models.StatusApproved, models.StatusUnderScrutiny}
	var want []uuid.UUID
	for i, status := range statuses {
		app := newApplication(uuid.New(), status)
		app.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.CreateApplication(ctx, app))
		if status != models.StatusDraft {
			want = append(want, app.ID)
		}
	}

	first, err := repo.ListSubmittedApplications(ctx, 0, 2)
	require.NoError(t, err)
	rest, err := repo.ListSubmittedApplications(ctx, 2, 2)
	require.NoError(t, err)

	var got []uuid.UUID
	for _, app := range append(first, rest...) {
		got = append(got, app.ID)
	}
	assert.Equal(t, want, got)
}

func TestActionsAreListedInOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository(testdb.Open(t))
	appID := uuid.New()

	steps := []models.WorkflowAction{models.ActionSubmitFinal, models.ActionStartScrutiny, models.ActionForwardToDTDO}
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, action := range steps {
		require.NoError(t, repo.AppendAction(ctx, &models.ApplicationAction{
			ApplicationID:  appID,
			ActorID:        uuid.New(),
			ActorRole:      models.DealingAssistantRole,
			Action:         action,
			PreviousStatus: models.StatusDraft,
			NewStatus:      models.StatusSubmitted,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	actions, err := repo.ListActions(ctx, appID)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	for i, action := range steps {
		assert.Equal(t, action, actions[i].Action)
	}
}

type discardNotifier struct{}

func (discardNotifier) QueueNotification(string, workflow.NotificationContext) {}

func createUser(t *testing.T, db *gorm.DB, role models.Role, mobile string, district *string) models.Actor {
	t.Helper()
	user, err := userRepositories.NewUserRepository(db).CreateUser(context.Background(), &models.User{
		FullName:  string(role),
		Mobile:    mobile,
		Role:      role,
		District:  district,
		Active:    true,
		CreatedBy: "test",
	})
	require.NoError(t, err)
	return models.Actor{UserID: user.ID, Role: role}
}

func TestWorkflowOverGorm(t *testing.T) {
	ctx := context.Background()
	db := testdb.Open(t)
	repo := NewApplicationRepository(db)
	settings := settingsServices.NewDBProvider(settingsRepositories.NewSettingsRepository(db))
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	svc := workflow.NewService(repo, settings, discardNotifier{}, zap.NewNop(),
		workflow.WithClock(func() time.Time { return now }))

	owner := createUser(t, db, models.OwnerRole, "9816000001", nil)
	system := createUser(t, db, models.SystemRole, "0000000000", nil)
	da := createUser(t, db, models.DealingAssistantRole, "9816000002", strPtr("Shimla"))

	single := decimal.NewFromInt(350)
	req := &requests.ApplicationRequest{
		Kind:         models.KindNewRegistration,
		OwnerName:    "Asha Verma",
		OwnerGender:  models.GenderFemale,
		OwnerMobile:  "9816000001",
		PropertyName: "Pine View Homestay",
		Address: requests.AddressRequest{
			District:     "Shimla",
			Tehsil:       "Shimla (Urban)",
			AddressLine:  "Ward 4, Sanjauli",
			Pincode:      "171006",
			LocationType: models.LocationGramPanchayat,
		},
		Rooms: fees.RoomConfiguration{
			Single:            fees.RoomClass{Rooms: 1, BedsPerRoom: 1, Rate: &single},
			AttachedWashrooms: 1,
		},
		Category:      models.CategorySilver,
		ValidityYears: 1,
	}

	app, err := svc.CreateSubmitted(ctx, system, owner.UserID, req)
	require.NoError(t, err)
	require.NotNil(t, app.ApplicationNumber)
	assert.Equal(t, "HS/SHI/2026/00001", *app.ApplicationNumber)
	assert.Equal(t, models.StatusSubmitted, app.Status)

	app, err = svc.StartScrutiny(ctx, app.ID, da)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderScrutiny, app.Status)

	stored, err := repo.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderScrutiny, stored.Status)
	assert.Equal(t, 1, stored.TotalRooms)
	assert.True(t, stored.TotalFee.Equal(app.TotalFee))

	actions, err := repo.ListActions(ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, models.ActionSubmitFinal, actions[0].Action)
	assert.Equal(t, models.ActionStartScrutiny, actions[1].Action)

	_, err = svc.CreateSubmitted(ctx, system, owner.UserID, req)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}
