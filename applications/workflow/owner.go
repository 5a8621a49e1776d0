package workflow

import (
	"context"
	"errors"
	"strings"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/applications/requests"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitDraft creates a new draft application for the owner.
func (s *Service) SubmitDraft(ctx context.Context, actor models.Actor, req *requests.ApplicationRequest) (*models.Application, error) {
	if actor.Role != models.OwnerRole {
		return nil, apperrors.Unauthorized("role_not_permitted", "Only property owners may create applications")
	}
	if err := req.ValidateShape(); err != nil {
		return nil, err
	}

	app := &models.Application{
		ID:           uuid.New(),
		Status:       models.StatusDraft,
		CurrentStage: models.StageFor(models.StatusDraft),
		OwnerID:      actor.UserID,
		CreatedBy:    actor.UserID.String(),
	}
	if err := req.ApplyTo(app); err != nil {
		return nil, err
	}
	if err := s.validateDraft(ctx, app, nil); err != nil {
		return nil, err
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, apperrors.Infrastructure("application_create_failed", err)
	}

	s.logger.Info("Draft application created",
		zap.String("applicationID", app.ID.String()),
		zap.String("applicationKind", string(app.Kind)),
		zap.String("ownerID", app.OwnerID.String()))
	return app, nil
}

// UpdateDraft applies owner edits while the application is a draft or back
// with the owner for corrections. The kind cannot change. No audit row is
// written.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, actor models.Actor, req *requests.ApplicationRequest) (*models.Application, error) {
	if actor.Role != models.OwnerRole {
		return nil, apperrors.Unauthorized("role_not_permitted", "Only the property owner may edit an application")
	}
	current, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeActor(ctx, actor, current); err != nil {
		return nil, err
	}
	if !current.Status.IsOwnerEditable() {
		return nil, apperrors.Conflict("application_not_editable",
			"Application %s is %s and cannot be edited", current.ID, current.Status).
			WithDetail("current_status", current.Status)
	}
	if req.Kind == "" {
		req.Kind = current.Kind
	}
	if req.Kind != current.Kind {
		return nil, apperrors.Validation("application_kind_fixed",
			"Application kind is %s and cannot be changed to %s", current.Kind, req.Kind)
	}
	if err := req.ValidateShape(); err != nil {
		return nil, err
	}

	working := *current
	working.Documents = nil
	working.Actions = nil
	if err := req.ApplyTo(&working); err != nil {
		return nil, err
	}
	if err := checkLocationFrozen(current, &working); err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocuments(ctx, id)
	if err != nil {
		return nil, apperrors.Infrastructure("document_lookup_failed", err)
	}
	if err := s.validateDraft(ctx, &working, docs); err != nil {
		return nil, err
	}
	updatedBy := actor.UserID.String()
	working.UpdatedBy = &updatedBy

	if err := s.store.UpdateApplication(ctx, &working, current.Status); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict("stale_status",
				"Application %s is no longer %s; reload it and try again", id, current.Status).
				WithDetail("expected_status", current.Status)
		}
		return nil, apperrors.Infrastructure("application_update_failed", err)
	}

	s.logger.Info("Draft application updated",
		zap.String("applicationID", id.String()),
		zap.String("status", string(working.Status)))
	return &working, nil
}

// validateDraft checks what must hold on every save, complete or not:
// non-negative counts always, the full room and washroom rules once any room
// is declared, and the upload policy.
func (s *Service) validateDraft(ctx context.Context, app *models.Application, docs []models.Document) error {
	rooms := fees.RoomsOf(app)
	if err := fees.ValidateCounts(rooms); err != nil {
		return err
	}
	if rooms.Declared() {
		rules, err := s.settings.RoomRules(ctx)
		if err != nil {
			return apperrors.Infrastructure("settings_unavailable", err)
		}
		if err := fees.ValidateRooms(rooms, rules); err != nil {
			return err
		}
	}
	if len(docs) > 0 {
		policy, err := s.settings.UploadPolicy(ctx)
		if err != nil {
			return apperrors.Infrastructure("settings_unavailable", err)
		}
		if err := s.validator.ValidateUploads(docs, policy); err != nil {
			return err
		}
	}
	return nil
}

// checkLocationFrozen keeps the declared district and tehsil fixed once an
// application has been numbered. Routing, the number prefix and the special
// sub-division discount were derived from them at first submission.
func checkLocationFrozen(current, working *models.Application) error {
	if current.ApplicationNumber == nil {
		return nil
	}
	if !strings.EqualFold(strings.TrimSpace(current.DeclaredDistrict), strings.TrimSpace(working.DeclaredDistrict)) ||
		!strings.EqualFold(tehsilOf(current), tehsilOf(working)) {
		return apperrors.Validation("location_locked",
			"District and tehsil cannot change once application %s has been submitted", *current.ApplicationNumber).
			WithDetail("district", current.DeclaredDistrict).
			WithDetail("tehsil", tehsilOf(current))
	}
	return nil
}

// SubmitFinal moves a draft to submitted.
func (s *Service) SubmitFinal(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionSubmitFinal, &requests.EmptyRequest{})
}

// ApplyCorrection resubmits an application that was sent back.
func (s *Service) ApplyCorrection(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Application, error) {
	return s.Perform(ctx, id, actor, models.ActionApplyCorrection, &requests.EmptyRequest{})
}

// CreateSubmitted creates an application directly in submitted for
// server-trusted flows such as departmental data entry. The full submission
// pipeline runs except the document checks, since no files can be attached
// before the record exists.
func (s *Service) CreateSubmitted(ctx context.Context, actor models.Actor, ownerID uuid.UUID, req *requests.ApplicationRequest) (app *models.Application, err error) {
	defer func() {
		if err != nil {
			s.metrics.IncrementRejection(string(models.ActionSubmitFinal), string(apperrors.KindOf(err)))
		}
	}()

	if actor.Role != models.SystemRole && actor.Role != models.AdminRole {
		return nil, apperrors.Unauthorized("role_not_permitted", "Role %s may not create submitted applications", actor.Role)
	}
	if err := s.authorizeActor(ctx, actor, &models.Application{}); err != nil {
		return nil, err
	}
	owner, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validation("unknown_owner", "Owner %s is not registered", ownerID)
		}
		return nil, apperrors.Infrastructure("user_lookup_failed", err)
	}
	if owner.Role != models.OwnerRole {
		return nil, apperrors.Validation("unknown_owner", "User %s is not a property owner", ownerID)
	}
	if err := req.ValidateShape(); err != nil {
		return nil, err
	}

	app = &models.Application{
		ID:        uuid.New(),
		Status:    models.StatusDraft,
		OwnerID:   ownerID,
		CreatedBy: actor.UserID.String(),
	}
	if err := req.ApplyTo(app); err != nil {
		return nil, err
	}

	tc := &transitionContext{
		action:  models.ActionSubmitFinal,
		from:    models.StatusDraft,
		to:      models.StatusSubmitted,
		app:     app,
		actor:   actor,
		payload: &requests.EmptyRequest{},
		now:     s.now(),
		create:  true,
		trusted: true,
	}
	if err := prepareFirstSubmission(ctx, s, tc); err != nil {
		return nil, err
	}
	return s.commit(ctx, tc)
}
