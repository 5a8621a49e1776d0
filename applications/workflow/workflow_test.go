package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/applications/requests"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/metrics"
	"homestay-registration-backend/utils/apperrors"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var testNow = time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)

type fixture struct {
	store    *memoryStore
	settings *fakeSettings
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	svc      *Service

	owner  models.Actor
	da     models.Actor
	dtdo   models.Actor
	system models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemoryStore()
	f := &fixture{
		store:    store,
		settings: newFakeSettings(),
		notifier: &recordingNotifier{},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	f.svc = NewService(store, f.settings, f.notifier, zap.NewNop(),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return testNow }))
	f.owner = store.addUser(models.OwnerRole, "")
	f.da = store.addUser(models.DealingAssistantRole, "Shimla")
	f.dtdo = store.addUser(models.DTDORole, "Shimla")
	f.system = store.addUser(models.SystemRole, "")
	return f
}

func rate(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func validRequest() *requests.ApplicationRequest {
	return &requests.ApplicationRequest{
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
			Single:            fees.RoomClass{Rooms: 1, BedsPerRoom: 1, Rate: rate(350)},
			AttachedWashrooms: 1,
		},
		Category:      models.CategorySilver,
		ValidityYears: 1,
	}
}

func (f *fixture) attachRequired(t *testing.T, appID uuid.UUID, status models.VerificationStatus, extra ...models.DocumentType) {
	t.Helper()
	docs := []models.Document{
		{DocumentType: models.DocRevenuePapers, DocumentClass: models.ClassDocuments, FileName: "jamabandi.pdf", MimeType: "application/pdf"},
		{DocumentType: models.DocAffidavitSection29, DocumentClass: models.ClassDocuments, FileName: "affidavit.pdf", MimeType: "application/pdf"},
		{DocumentType: models.DocUndertakingFormC, DocumentClass: models.ClassDocuments, FileName: "form-c.pdf", MimeType: "application/pdf"},
		{DocumentType: models.DocPropertyPhoto, DocumentClass: models.ClassPhotos, FileName: "front.jpg", MimeType: "image/jpeg"},
		{DocumentType: models.DocPropertyPhoto, DocumentClass: models.ClassPhotos, FileName: "back.jpg", MimeType: "image/jpeg"},
	}
	for _, dt := range extra {
		docs = append(docs, models.Document{DocumentType: dt, DocumentClass: models.ClassDocuments, FileName: string(dt) + ".pdf", MimeType: "application/pdf"})
	}
	for i := range docs {
		docs[i].ApplicationID = appID
		docs[i].FileSize = 200 * 1024
		docs[i].VerificationStatus = status
		docs[i].UploadedBy = "owner"
		require.NoError(t, f.store.CreateDocument(context.Background(), &docs[i]))
	}
}

func (f *fixture) setDocStatus(appID uuid.UUID, fileName string, status models.VerificationStatus) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	docs := f.store.docs[appID]
	for i := range docs {
		if docs[i].FileName == fileName {
			docs[i].VerificationStatus = status
		}
	}
}

func (f *fixture) draft(t *testing.T, req *requests.ApplicationRequest) *models.Application {
	t.Helper()
	app, err := f.svc.SubmitDraft(context.Background(), f.owner, req)
	require.NoError(t, err)
	return app
}

func (f *fixture) submitted(t *testing.T) *models.Application {
	t.Helper()
	app := f.draft(t, validRequest())
	f.attachRequired(t, app.ID, models.VerificationPending)
	app, err := f.svc.SubmitFinal(context.Background(), app.ID, f.owner)
	require.NoError(t, err)
	return app
}

func (f *fixture) underScrutiny(t *testing.T) *models.Application {
	t.Helper()
	app := f.submitted(t)
	app, err := f.svc.StartScrutiny(context.Background(), app.ID, f.da)
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderScrutiny, app.Status)
	return app
}

func requireKind(t *testing.T, err error, kind apperrors.Kind, code string) *apperrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, kind, appErr.Kind, appErr.Message)
	if code != "" {
		assert.Equal(t, code, appErr.Code, appErr.Message)
	}
	return appErr
}

func TestSubmitSingleRoomSilver(t *testing.T) {
	f := newFixture(t)
	f.settings.bands = fees.RateBands{
		Silver:  fees.RateBand{Min: decimal.Zero, Max: rate(1500)},
		Gold:    fees.RateBand{Min: decimal.NewFromInt(1500), Max: rate(3000)},
		Diamond: fees.RateBand{Min: decimal.NewFromInt(3000)},
	}

	app := f.submitted(t)

	assert.Equal(t, models.StatusSubmitted, app.Status)
	assert.Equal(t, models.StageScrutiny, app.CurrentStage)
	assert.True(t, app.HighestRoomRate.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, models.CategorySilver, app.Category)
	assert.Equal(t, 1, app.TotalRooms)
	assert.Equal(t, 1, app.TotalBeds)
	assert.Equal(t, "Shimla", app.District)
	require.NotNil(t, app.ApplicationNumber)
	assert.Equal(t, "HS/SHI/2026/00001", *app.ApplicationNumber)
	require.NotNil(t, app.FirstSubmittedAt)
	assert.True(t, app.FirstSubmittedAt.Equal(testNow))
	assert.True(t, app.TotalFee.Equal(decimal.NewFromInt(2850)), app.TotalFee.String())

	actions := f.store.actionsFor(app.ID, models.ActionSubmitFinal)
	require.Len(t, actions, 1)
	assert.Equal(t, models.StatusDraft, actions[0].PreviousStatus)
	assert.Equal(t, models.StatusSubmitted, actions[0].NewStatus)
	assert.Contains(t, f.notifier.sorted(), "application.submit_final")
}

func TestSubmitCategoryTariffMismatch(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Category = models.CategoryDiamond
	app := f.draft(t, req)
	f.attachRequired(t, app.ID, models.VerificationPending)

	_, err := f.svc.SubmitFinal(context.Background(), app.ID, f.owner)
	appErr := requireKind(t, err, apperrors.KindValidation, "category_tariff_mismatch")
	assert.Contains(t, appErr.Message, "silver")
	assert.Equal(t, models.StatusDraft, f.store.status(app.ID))
	assert.Empty(t, f.store.actionsFor(app.ID, models.ActionSubmitFinal))
}

func TestSubmitRequiresDocuments(t *testing.T) {
	f := newFixture(t)
	app := f.draft(t, validRequest())

	_, err := f.svc.SubmitFinal(context.Background(), app.ID, f.owner)
	appErr := requireKind(t, err, apperrors.KindValidation, "missing_required_documents")
	assert.Contains(t, appErr.Message, "Revenue")
	assert.Equal(t, models.StatusDraft, f.store.status(app.ID))
}

func TestForwardWaitsForDocumentReview(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	f.store.setVerification(app.ID, models.VerificationVerified)
	f.setDocStatus(app.ID, "front.jpg", models.VerificationPending)
	f.setDocStatus(app.ID, "back.jpg", models.VerificationPending)
	ctx := context.Background()

	_, err := f.svc.ForwardToDTDO(ctx, app.ID, f.da, "All papers in order")
	appErr := requireKind(t, err, apperrors.KindIncomplete, "documents_pending")
	assert.Contains(t, appErr.Message, "2 documents are still pending verification")
	assert.Contains(t, appErr.Message, "front.jpg")
	assert.Equal(t, 2, appErr.Details["pending_count"])
	assert.Equal(t, models.StatusUnderScrutiny, f.store.status(app.ID))

	f.setDocStatus(app.ID, "front.jpg", models.VerificationVerified)
	f.setDocStatus(app.ID, "back.jpg", models.VerificationRejected)

	forwarded, err := f.svc.ForwardToDTDO(ctx, app.ID, f.da, "All papers in order")
	require.NoError(t, err)
	assert.Equal(t, models.StatusForwardedToDTDO, forwarded.Status)
	require.NotNil(t, forwarded.ScrutinyRemarks)
	assert.Equal(t, "All papers in order", *forwarded.ScrutinyRemarks)
	require.NotNil(t, forwarded.ForwardedAt)
}

func TestForwardRequiresRemarks(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	f.store.setVerification(app.ID, models.VerificationVerified)

	_, err := f.svc.ForwardToDTDO(context.Background(), app.ID, f.da, "  ")
	requireKind(t, err, apperrors.KindValidation, "remarks_required")
	assert.Equal(t, models.StatusUnderScrutiny, f.store.status(app.ID))
}

func TestSendBackAndCorrect(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	ctx := context.Background()
	number := *app.ApplicationNumber

	sent, err := f.svc.SendBack(ctx, app.ID, f.da, "Add fire-safety certificate")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSentBackForCorrections, sent.Status)
	assert.Equal(t, models.StageOwner, sent.CurrentStage)
	require.NotNil(t, sent.SendBackReason)
	assert.Equal(t, "Add fire-safety certificate", *sent.SendBackReason)
	assert.Equal(t, 0, sent.CorrectionSubmissionCount)

	resubmitted, err := f.svc.ApplyCorrection(ctx, app.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, resubmitted.Status)
	assert.Equal(t, 1, resubmitted.CorrectionSubmissionCount)
	assert.Nil(t, resubmitted.ClarificationRequested)
	assert.Nil(t, resubmitted.SendBackReason)
	assert.Equal(t, number, *resubmitted.ApplicationNumber)
	assert.True(t, resubmitted.FirstSubmittedAt.Equal(*app.FirstSubmittedAt))

	feedback := f.store.actionsFor(app.ID, models.ActionSendBack)
	require.Len(t, feedback, 1)
	require.NotNil(t, feedback[0].Feedback)
	assert.Equal(t, "Add fire-safety certificate", *feedback[0].Feedback)
}

func TestConcurrentForwardOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	f.store.setVerification(app.ID, models.VerificationVerified)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.ForwardToDTDO(context.Background(), app.ID, f.da, "Checked")
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperrors.IsConflict(err):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Len(t, f.store.actionsFor(app.ID, models.ActionForwardToDTDO), 1)
	assert.Equal(t, models.StatusForwardedToDTDO, f.store.status(app.ID))
}

func TestStaleWriteIsConflict(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	f.store.setVerification(app.ID, models.VerificationVerified)
	f.store.beforeTransition = func(id uuid.UUID) {
		f.store.setStatus(id, models.StatusRejected)
	}

	_, err := f.svc.ForwardToDTDO(context.Background(), app.ID, f.da, "Checked")
	appErr := requireKind(t, err, apperrors.KindConflict, "stale_status")
	assert.Equal(t, models.StatusUnderScrutiny, appErr.Details["expected_status"])
	assert.Equal(t, models.StatusRejected, f.store.status(app.ID))
	assert.Empty(t, f.store.actionsFor(app.ID, models.ActionForwardToDTDO))
}

func TestOneApplicationInFlightPerOwner(t *testing.T) {
	f := newFixture(t)
	first := f.submitted(t)

	second := f.draft(t, validRequest())
	f.attachRequired(t, second.ID, models.VerificationPending)

	_, err := f.svc.SubmitFinal(context.Background(), second.ID, f.owner)
	appErr := requireKind(t, err, apperrors.KindConflict, "application_in_flight")
	assert.Equal(t, first.ID, appErr.Details["existing_application_id"])
	assert.Equal(t, models.StatusSubmitted, appErr.Details["existing_status"])
	assert.Contains(t, appErr.Message, first.ID.String())
	assert.Equal(t, models.StatusDraft, f.store.status(second.ID))
}

func TestATerminalApplicationFreesTheSlot(t *testing.T) {
	f := newFixture(t)
	first := f.underScrutiny(t)
	_, err := f.svc.Reject(context.Background(), first.ID, f.da, "Property is commercial")
	require.NoError(t, err)

	second := f.draft(t, validRequest())
	f.attachRequired(t, second.ID, models.VerificationPending)
	app, err := f.svc.SubmitFinal(context.Background(), second.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, "HS/SHI/2026/00002", *app.ApplicationNumber)
}

func TestIllegalTransitionsAreConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	actorFor := func(action models.WorkflowAction) models.Actor {
		for _, e := range edges {
			if e.action != action {
				continue
			}
			switch e.roles[0] {
			case models.OwnerRole:
				return f.owner
			case models.DealingAssistantRole:
				return f.da
			case models.DTDORole:
				return f.dtdo
			}
			return f.system
		}
		t.Fatalf("no edge for %s", action)
		return models.Actor{}
	}

	for _, status := range models.AllStatuses {
		for _, action := range models.AllActions {
			if _, ok := lookup(status, action); ok {
				continue
			}
			app := &models.Application{
				ID:        uuid.New(),
				Kind:      models.KindNewRegistration,
				Status:    status,
				OwnerID:   f.owner.UserID,
				District:  "Shimla",
				CreatedBy: "test",
			}
			require.NoError(t, f.store.CreateApplication(ctx, app))

			_, err := f.svc.Perform(ctx, app.ID, actorFor(action), action, nil)
			require.Errorf(t, err, "%s from %s", action, status)
			assert.Truef(t, apperrors.IsConflict(err), "%s from %s: %v", action, status, err)
			assert.Equal(t, status, f.store.status(app.ID))
			assert.Empty(t, f.store.actionsFor(app.ID, action))

			f.store.setStatus(app.ID, models.StatusDraft)
		}
	}

	assert.Greater(t, testutil.ToFloat64(f.metrics.Rejections.WithLabelValues(string(models.ActionApprove), string(apperrors.KindConflict))), 0.0)
}

func TestTerminalStatusMessage(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	ctx := context.Background()

	_, err := f.svc.Reject(ctx, app.ID, f.da, "Duplicate registration")
	require.NoError(t, err)

	_, err = f.svc.StartScrutiny(ctx, app.ID, f.da)
	appErr := requireKind(t, err, apperrors.KindConflict, "invalid_transition")
	assert.Contains(t, appErr.Message, "already rejected")
}

func TestUnknownActionIsValidation(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t)
	_, err := f.svc.Perform(context.Background(), app.ID, f.da, "teleport", nil)
	requireKind(t, err, apperrors.KindValidation, "unknown_action")
}

func TestRoleAndJurisdictionChecks(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t)
	ctx := context.Background()

	_, err := f.svc.StartDTDOReview(ctx, app.ID, f.da)
	requireKind(t, err, apperrors.KindAuthorization, "role_not_permitted")

	kangra := f.store.addUser(models.DealingAssistantRole, "Kangra")
	_, err = f.svc.StartScrutiny(ctx, app.ID, kangra)
	requireKind(t, err, apperrors.KindAuthorization, "outside_jurisdiction")

	stateWide := f.store.addUser(models.DealingAssistantRole, "")
	_, err = f.svc.StartScrutiny(ctx, app.ID, stateWide)
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, app.ID, f.dtdo, "Not a homestay")
	requireKind(t, err, apperrors.KindAuthorization, "role_not_permitted")

	stranger := f.store.addUser(models.OwnerRole, "")
	_, err = f.svc.InitiatePayment(ctx, app.ID, stranger)
	requireKind(t, err, apperrors.KindConflict, "invalid_transition")

	unknown := models.Actor{UserID: uuid.New(), Role: models.DealingAssistantRole}
	_, err = f.svc.SendBack(ctx, app.ID, unknown, "Fix")
	requireKind(t, err, apperrors.KindAuthorization, "unknown_actor")
	assert.Equal(t, models.StatusUnderScrutiny, f.store.status(app.ID))
}

func TestReviewStartEdgesCheckRoles(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t)
	ctx := context.Background()

	for _, actor := range []models.Actor{f.owner, f.dtdo, f.system} {
		_, err := f.svc.StartScrutiny(ctx, app.ID, actor)
		requireKind(t, err, apperrors.KindAuthorization, "role_not_permitted")
	}
	_, err := f.svc.StartScrutiny(ctx, app.ID, f.da)
	require.NoError(t, err)

	f.store.setVerification(app.ID, models.VerificationVerified)
	_, err = f.svc.ForwardToDTDO(ctx, app.ID, f.da, "Verified on file")
	require.NoError(t, err)

	for _, actor := range []models.Actor{f.owner, f.da, f.system} {
		_, err = f.svc.StartDTDOReview(ctx, app.ID, actor)
		requireKind(t, err, apperrors.KindAuthorization, "role_not_permitted")
	}
	reviewing, err := f.svc.StartDTDOReview(ctx, app.ID, f.dtdo)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDTDOReview, reviewing.Status)
}

func TestOnlyOwnerOfRecordSubmits(t *testing.T) {
	f := newFixture(t)
	app := f.draft(t, validRequest())
	f.attachRequired(t, app.ID, models.VerificationPending)
	other := f.store.addUser(models.OwnerRole, "")

	_, err := f.svc.SubmitFinal(context.Background(), app.ID, other)
	requireKind(t, err, apperrors.KindAuthorization, "not_application_owner")
	assert.Equal(t, models.StatusDraft, f.store.status(app.ID))
}

func TestFullPathToOnlinePayment(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	f.store.setVerification(app.ID, models.VerificationVerified)
	ctx := context.Background()

	_, err := f.svc.ForwardToDTDO(ctx, app.ID, f.da, "Verified on file")
	require.NoError(t, err)
	_, err = f.svc.StartDTDOReview(ctx, app.ID, f.dtdo)
	require.NoError(t, err)

	_, err = f.svc.ScheduleInspection(ctx, app.ID, f.dtdo, requests.ScheduleInspectionRequest{
		ScheduledAt: testNow.Add(-time.Hour), Officer: "R. Thakur",
	})
	requireKind(t, err, apperrors.KindValidation, "inspection_date_in_past")

	scheduled, err := f.svc.ScheduleInspection(ctx, app.ID, f.dtdo, requests.ScheduleInspectionRequest{
		ScheduledAt: testNow.Add(48 * time.Hour), Officer: "R. Thakur",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageInspection, scheduled.CurrentStage)
	require.NotNil(t, scheduled.InspectionOfficer)
	assert.Equal(t, "R. Thakur", *scheduled.InspectionOfficer)

	gold := models.CategoryGold
	inspected, err := f.svc.RecordInspectionOutcome(ctx, app.ID, f.dtdo, requests.InspectionOutcomeRequest{
		Findings: "Rooms match the declaration", RecommendedCategory: &gold,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInspectionUnderReview, inspected.Status)
	assert.Equal(t, &gold, inspected.RecommendedCategory)

	_, err = f.svc.VerifyForPayment(ctx, app.ID, f.dtdo, "")
	require.NoError(t, err)
	pending, err := f.svc.InitiatePayment(ctx, app.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaymentPending, pending.Status)

	_, err = f.svc.MarkPaid(ctx, app.ID, f.owner, decimal.NewFromInt(2850), "PAY-1")
	requireKind(t, err, apperrors.KindAuthorization, "role_not_permitted")

	_, err = f.svc.MarkPaid(ctx, app.ID, f.system, decimal.NewFromInt(2000), "PAY-1")
	appErr := requireKind(t, err, apperrors.KindValidation, "payment_amount_mismatch")
	assert.Contains(t, appErr.Message, "₹2850.00")

	approved, err := f.svc.MarkPaid(ctx, app.ID, f.system, decimal.RequireFromString("2850.00"), "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, models.StageCompleted, approved.CurrentStage)
	require.NotNil(t, approved.CertificateNumber)
	assert.Equal(t, "HSC/SHI/2026/00001", *approved.CertificateNumber)
	require.NotNil(t, approved.CertificateExpiresAt)
	assert.True(t, approved.CertificateExpiresAt.Equal(testNow.AddDate(1, 0, 0)))
	require.NotNil(t, approved.AmountPaid)
	assert.True(t, approved.AmountPaid.Equal(decimal.NewFromInt(2850)))

	all, err := f.svc.ListActions(ctx, app.ID, f.owner)
	require.NoError(t, err)
	assert.Len(t, all, 9)
	assert.Contains(t, f.notifier.sorted(), "application.mark_paid")
}

func TestOfflineApprovalByDTDO(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t)
	f.store.setStatus(app.ID, models.StatusPaymentPending)

	_, err := f.svc.Approve(context.Background(), app.ID, f.dtdo, "", "")
	requireKind(t, err, apperrors.KindValidation, "payment_reference_required")

	approved, err := f.svc.Approve(context.Background(), app.ID, f.dtdo, "CHALLAN-77", "Paid at treasury")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, "CHALLAN-77", *approved.PaymentReference)
	assert.True(t, approved.AmountPaid.Equal(approved.TotalFee))
	assert.NotNil(t, approved.CertificateNumber)
}

func TestLegacyApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := validRequest()
	req.IsLegacyRC = true
	legacyNumber := "RC/SML/2019/114"
	req.LegacyCertificateNumber = &legacyNumber

	app := f.draft(t, req)
	f.attachRequired(t, app.ID, models.VerificationVerified, models.DocLegacyCertificate)
	app, err := f.svc.SubmitFinal(ctx, app.ID, f.owner)
	require.NoError(t, err)

	app, err = f.svc.StartScrutiny(ctx, app.ID, f.da)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLegacyRCReview, app.Status)

	_, err = f.svc.ForwardToDTDO(ctx, app.ID, f.da, "Old RC checked")
	requireKind(t, err, apperrors.KindConflict, "legacy_forward_disabled")

	f.settings.legacyForward = true
	f.settings.sendBack = false
	_, err = f.svc.SendBack(ctx, app.ID, f.da, "Upload the old RC")
	requireKind(t, err, apperrors.KindConflict, "send_back_disabled")
	assert.Equal(t, models.StatusLegacyRCReview, f.store.status(app.ID))

	approved, err := f.svc.VerifyLegacy(ctx, app.ID, f.da, "Matches department register")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, "HSC/SHI/2026/00001", *approved.CertificateNumber)
}

func TestLegacyForwardWhenAllowed(t *testing.T) {
	f := newFixture(t)
	f.settings.legacyForward = true
	ctx := context.Background()
	req := validRequest()
	req.IsLegacyRC = true
	legacyNumber := "RC/SML/2019/114"
	req.LegacyCertificateNumber = &legacyNumber

	app := f.draft(t, req)
	f.attachRequired(t, app.ID, models.VerificationVerified, models.DocLegacyCertificate)
	_, err := f.svc.SubmitFinal(ctx, app.ID, f.owner)
	require.NoError(t, err)
	_, err = f.svc.StartScrutiny(ctx, app.ID, f.da)
	require.NoError(t, err)

	forwarded, err := f.svc.ForwardToDTDO(ctx, app.ID, f.da, "Needs inspection")
	require.NoError(t, err)
	assert.Equal(t, models.StatusForwardedToDTDO, forwarded.Status)
}

func TestVerifyLegacyWithForwardDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := validRequest()
	req.IsLegacyRC = true
	legacyNumber := "RC/SML/2021/009"
	req.LegacyCertificateNumber = &legacyNumber

	app := f.draft(t, req)
	f.attachRequired(t, app.ID, models.VerificationVerified, models.DocLegacyCertificate)
	_, err := f.svc.SubmitFinal(ctx, app.ID, f.owner)
	require.NoError(t, err)
	_, err = f.svc.StartScrutiny(ctx, app.ID, f.da)
	require.NoError(t, err)

	require.False(t, f.settings.legacyForward)
	_, err = f.svc.ForwardToDTDO(ctx, app.ID, f.da, "Needs inspection")
	requireKind(t, err, apperrors.KindConflict, "legacy_forward_disabled")

	approved, err := f.svc.VerifyLegacy(ctx, app.ID, f.da, "Matches department register")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
}

func TestCorrectionCounterIsMonotonic(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	ctx := context.Background()
	f.store.setVerification(app.ID, models.VerificationVerified)

	_, err := f.svc.SendBack(ctx, app.ID, f.da, "Photos are blurred")
	require.NoError(t, err)
	app, err = f.svc.ApplyCorrection(ctx, app.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, 1, app.CorrectionSubmissionCount)

	steps := []func() (*models.Application, error){
		func() (*models.Application, error) { return f.svc.StartScrutiny(ctx, app.ID, f.da) },
		func() (*models.Application, error) { return f.svc.ForwardToDTDO(ctx, app.ID, f.da, "Clear now") },
		func() (*models.Application, error) { return f.svc.StartDTDOReview(ctx, app.ID, f.dtdo) },
		func() (*models.Application, error) { return f.svc.RevertByDTDO(ctx, app.ID, f.dtdo, "Washroom count is wrong") },
	}
	for _, step := range steps {
		got, err := step()
		require.NoError(t, err)
		assert.Equal(t, 1, got.CorrectionSubmissionCount)
	}
	assert.Equal(t, models.StatusRevertedByDTDO, f.store.status(app.ID))

	app, err = f.svc.ApplyCorrection(ctx, app.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, 2, app.CorrectionSubmissionCount)

	_, err = f.svc.ApplyCorrection(ctx, app.ID, f.owner)
	requireKind(t, err, apperrors.KindConflict, "invalid_transition")
	stored, _ := f.store.GetApplication(ctx, app.ID)
	assert.Equal(t, 2, stored.CorrectionSubmissionCount)
}

func TestRevertClearsRoundNotes(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	ctx := context.Background()
	f.store.setVerification(app.ID, models.VerificationVerified)

	_, err := f.svc.ForwardToDTDO(ctx, app.ID, f.da, "Fine")
	require.NoError(t, err)
	_, err = f.svc.StartDTDOReview(ctx, app.ID, f.dtdo)
	require.NoError(t, err)
	_, err = f.svc.ScheduleInspection(ctx, app.ID, f.dtdo, requests.ScheduleInspectionRequest{
		ScheduledAt: testNow.Add(24 * time.Hour), Officer: "S. Negi", Remarks: "Visit in the morning",
	})
	require.NoError(t, err)
	_, err = f.svc.RecordInspectionOutcome(ctx, app.ID, f.dtdo, requests.InspectionOutcomeRequest{Findings: "Fire extinguisher missing"})
	require.NoError(t, err)

	objected, err := f.svc.RaiseObjection(ctx, app.ID, f.dtdo, "Install a fire extinguisher")
	require.NoError(t, err)
	assert.Equal(t, models.StatusObjectionRaised, objected.Status)
	assert.Nil(t, objected.ScrutinyRemarks)
	assert.Nil(t, objected.DTDORemarks)
	assert.Nil(t, objected.InspectionFindings)
	require.NotNil(t, objected.ClarificationRequested)
	assert.Equal(t, "Install a fire extinguisher", *objected.ClarificationRequested)
}

func TestCorrectionRevalidatesAgainstCurrentBands(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	ctx := context.Background()

	_, err := f.svc.SendBack(ctx, app.ID, f.da, "Recheck tariff")
	require.NoError(t, err)

	f.settings.bands = fees.RateBands{
		Silver:  fees.RateBand{Min: decimal.Zero, Max: rate(300)},
		Gold:    fees.RateBand{Min: decimal.NewFromInt(300), Max: rate(10000)},
		Diamond: fees.RateBand{Min: decimal.NewFromInt(10000)},
	}
	_, err = f.svc.ApplyCorrection(ctx, app.ID, f.owner)
	appErr := requireKind(t, err, apperrors.KindValidation, "category_tariff_mismatch")
	assert.Equal(t, models.CategoryGold, appErr.Details["suggested_category"])
	assert.Equal(t, models.StatusSentBackForCorrections, f.store.status(app.ID))

	req := validRequest()
	req.Category = models.CategoryGold
	_, err = f.svc.UpdateDraft(ctx, app.ID, f.owner, req)
	require.NoError(t, err)

	resubmitted, err := f.svc.ApplyCorrection(ctx, app.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGold, resubmitted.Category)
	assert.True(t, resubmitted.TotalFee.Equal(decimal.NewFromInt(5700)), resubmitted.TotalFee.String())
	assert.Equal(t, "Shimla", resubmitted.District)

	recomputed, err := fees.CalculateFee(fees.FeeInputOf(resubmitted), f.settings.schedule)
	require.NoError(t, err)
	assert.True(t, recomputed.TotalFee.Equal(resubmitted.TotalFee))
}

func TestUpdateDraft(t *testing.T) {
	f := newFixture(t)
	app := f.draft(t, validRequest())
	ctx := context.Background()

	req := validRequest()
	req.Rooms.Double = fees.RoomClass{Rooms: 2, BedsPerRoom: 2, Rate: rate(1200)}
	req.Rooms.AttachedWashrooms = 3
	updated, err := f.svc.UpdateDraft(ctx, app.ID, f.owner, req)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.TotalRooms)
	assert.Equal(t, 5, updated.TotalBeds)
	assert.True(t, updated.HighestRoomRate.Equal(decimal.NewFromInt(1200)))

	req.Rooms.AttachedWashrooms = 2
	_, err = f.svc.UpdateDraft(ctx, app.ID, f.owner, req)
	requireKind(t, err, apperrors.KindValidation, "insufficient_washrooms")

	req = validRequest()
	req.Kind = models.KindRenewal
	_, err = f.svc.UpdateDraft(ctx, app.ID, f.owner, req)
	requireKind(t, err, apperrors.KindValidation, "application_kind_fixed")

	other := f.store.addUser(models.OwnerRole, "")
	_, err = f.svc.UpdateDraft(ctx, app.ID, other, validRequest())
	requireKind(t, err, apperrors.KindAuthorization, "not_application_owner")

	assert.Empty(t, f.store.actionsFor(app.ID, models.ActionSubmitFinal))
}

func TestUpdateDraftRejectsNegativeCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := validRequest()
	req.Rooms.Single = fees.RoomClass{Rooms: -1, BedsPerRoom: 1, Rate: rate(350)}
	req.Rooms.Double = fees.RoomClass{Rooms: 1, BedsPerRoom: 2, Rate: rate(350)}
	_, err := f.svc.SubmitDraft(ctx, f.owner, req)
	requireKind(t, err, apperrors.KindValidation, "invalid_room_count")

	req = validRequest()
	req.Rooms = fees.RoomConfiguration{AttachedWashrooms: -1}
	_, err = f.svc.SubmitDraft(ctx, f.owner, req)
	requireKind(t, err, apperrors.KindValidation, "invalid_washrooms")

	app := f.draft(t, validRequest())
	req = validRequest()
	req.Rooms.Single.BedsPerRoom = -2
	_, err = f.svc.UpdateDraft(ctx, app.ID, f.owner, req)
	requireKind(t, err, apperrors.KindValidation, "invalid_beds_per_room")
	assert.Equal(t, 1, f.store.apps[app.ID].SingleBedBeds)
}

func TestCorrectionKeepsSubmittedLocation(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	ctx := context.Background()

	_, err := f.svc.SendBack(ctx, app.ID, f.da, "Photos are blurred")
	require.NoError(t, err)

	moved := validRequest()
	moved.Address.District = "Chamba"
	moved.Address.Tehsil = "Pangi"
	_, err = f.svc.UpdateDraft(ctx, app.ID, f.owner, moved)
	requireKind(t, err, apperrors.KindValidation, "location_locked")

	moved = validRequest()
	moved.Address.Tehsil = "Theog"
	_, err = f.svc.UpdateDraft(ctx, app.ID, f.owner, moved)
	requireKind(t, err, apperrors.KindValidation, "location_locked")

	same := validRequest()
	same.Address.District = " shimla "
	same.Address.AddressLine = "Ward 5, Sanjauli"
	updated, err := f.svc.UpdateDraft(ctx, app.ID, f.owner, same)
	require.NoError(t, err)
	assert.Equal(t, "Ward 5, Sanjauli", updated.AddressLine)

	resubmitted, err := f.svc.ApplyCorrection(ctx, app.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, app.District, resubmitted.District)
	assert.False(t, resubmitted.IsSpecialSubdivision)
	assert.True(t, resubmitted.TotalFee.Equal(app.TotalFee))
}

func TestResubmissionLogsFeeChange(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	ctx := context.Background()
	core, logs := observer.New(zap.InfoLevel)
	svc := NewService(f.store, f.settings, f.notifier, zap.New(core),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return testNow }))

	_, err := svc.SendBack(ctx, app.ID, f.da, "Owner details are wrong")
	require.NoError(t, err)
	req := validRequest()
	req.OwnerGender = models.GenderMale
	_, err = svc.UpdateDraft(ctx, app.ID, f.owner, req)
	require.NoError(t, err)

	resubmitted, err := svc.ApplyCorrection(ctx, app.ID, f.owner)
	require.NoError(t, err)
	assert.True(t, resubmitted.FemaleOwnerDiscount.IsZero())
	assert.True(t, resubmitted.TotalFee.GreaterThan(app.TotalFee))

	changed := logs.FilterMessage("Fee changed on resubmission").All()
	require.Len(t, changed, 1)
	fields := changed[0].ContextMap()
	assert.Equal(t, app.TotalFee.StringFixed(2), fields["previousFee"])
	assert.Equal(t, resubmitted.TotalFee.StringFixed(2), fields["totalFee"])
}

func TestInspectionOutcomeSuggestsCategory(t *testing.T) {
	f := newFixture(t)
	app := f.underScrutiny(t)
	f.store.setVerification(app.ID, models.VerificationVerified)
	ctx := context.Background()

	_, err := f.svc.ForwardToDTDO(ctx, app.ID, f.da, "Verified on file")
	require.NoError(t, err)
	_, err = f.svc.StartDTDOReview(ctx, app.ID, f.dtdo)
	require.NoError(t, err)
	_, err = f.svc.ScheduleInspection(ctx, app.ID, f.dtdo, requests.ScheduleInspectionRequest{
		ScheduledAt: testNow.Add(24 * time.Hour), Officer: "R. Thakur",
	})
	require.NoError(t, err)

	inspected, err := f.svc.RecordInspectionOutcome(ctx, app.ID, f.dtdo, requests.InspectionOutcomeRequest{
		Findings: "Single room at 350 a night",
	})
	require.NoError(t, err)
	require.NotNil(t, inspected.RecommendedCategory)
	assert.Equal(t, models.CategorySilver, *inspected.RecommendedCategory)
}

func TestUpdateDraftRejectedOnceSubmitted(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t)

	_, err := f.svc.UpdateDraft(context.Background(), app.ID, f.owner, validRequest())
	requireKind(t, err, apperrors.KindConflict, "application_not_editable")
}

func TestCreateSubmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSubmitted(ctx, f.owner, f.owner.UserID, validRequest())
	requireKind(t, err, apperrors.KindAuthorization, "role_not_permitted")

	app, err := f.svc.CreateSubmitted(ctx, f.system, f.owner.UserID, validRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, app.Status)
	assert.Equal(t, "HS/SHI/2026/00001", *app.ApplicationNumber)
	assert.Equal(t, f.owner.UserID, app.OwnerID)
	assert.Len(t, f.store.actionsFor(app.ID, models.ActionSubmitFinal), 1)

	_, err = f.svc.CreateSubmitted(ctx, f.system, f.owner.UserID, validRequest())
	requireKind(t, err, apperrors.KindConflict, "application_in_flight")
}

func TestNumberCollisionRetries(t *testing.T) {
	f := newFixture(t)
	app := f.draft(t, validRequest())
	f.attachRequired(t, app.ID, models.VerificationPending)
	f.store.duplicates = maxNumberAttempts - 1

	submitted, err := f.svc.SubmitFinal(context.Background(), app.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, "HS/SHI/2026/00001", *submitted.ApplicationNumber)
}

func TestNumberCollisionGivesUp(t *testing.T) {
	f := newFixture(t)
	app := f.draft(t, validRequest())
	f.attachRequired(t, app.ID, models.VerificationPending)
	f.store.duplicates = maxNumberAttempts

	_, err := f.svc.SubmitFinal(context.Background(), app.ID, f.owner)
	requireKind(t, err, apperrors.KindConflict, "number_collision")
	assert.Equal(t, models.StatusDraft, f.store.status(app.ID))
}

func TestAuditFailureDoesNotUndoTransition(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t)
	f.store.appendErr = errors.New("disk full")

	got, err := f.svc.StartScrutiny(context.Background(), app.ID, f.da)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderScrutiny, got.Status)
	assert.Equal(t, models.StatusUnderScrutiny, f.store.status(app.ID))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SecondaryFailures.WithLabelValues(metrics.EffectAudit)))
}

func TestNotifierPanicIsContained(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t)
	svc := NewService(f.store, f.settings, panickingNotifier{}, zap.NewNop(),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return testNow }))

	var got *models.Application
	var err error
	assert.NotPanics(t, func() {
		got, err = svc.StartScrutiny(context.Background(), app.ID, f.da)
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderScrutiny, got.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SecondaryFailures.WithLabelValues(metrics.EffectNotification)))
}

func TestTransitionMetrics(t *testing.T) {
	f := newFixture(t)
	f.underScrutiny(t)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues(
		string(models.ActionStartScrutiny), string(models.StatusSubmitted), string(models.StatusUnderScrutiny))))
}

func TestGetApplicationIncludesDocuments(t *testing.T) {
	f := newFixture(t)
	app := f.submitted(t)

	got, err := f.svc.GetApplication(context.Background(), app.ID, f.da)
	require.NoError(t, err)
	assert.Len(t, got.Documents, 5)

	_, err = f.svc.GetApplication(context.Background(), uuid.New(), f.da)
	requireKind(t, err, apperrors.KindNotFound, "application_not_found")
}
