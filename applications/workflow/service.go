package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homestay-registration-backend/applications/requests"
	"homestay-registration-backend/applications/routing"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/documents/validators"
	"homestay-registration-backend/metrics"
	"homestay-registration-backend/utils"
	"homestay-registration-backend/utils/apperrors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxNumberAttempts bounds retries when a generated application or
// certificate number collides with one issued concurrently.
const maxNumberAttempts = 5

// Service is the application state machine. Every status change goes
// through Perform, which checks the transition table, writes the new status
// conditionally on the old one, appends one audit row and queues a
// notification.
type Service struct {
	store     Storage
	settings  Settings
	notifier  Notifier
	validator *validators.DocumentValidator
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Storage, settings Settings, notifier Notifier, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:     store,
		settings:  settings,
		notifier:  notifier,
		validator: validators.NewDocumentValidator(),
		logger:    logger,
		now:       utils.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Perform runs action on the application. payload must be the type
// requests.NewActionPayload returns for action; nil is treated as empty.
func (s *Service) Perform(ctx context.Context, id uuid.UUID, actor models.Actor, action models.WorkflowAction, payload requests.ActionPayload) (app *models.Application, err error) {
	defer func() {
		if err != nil {
			s.metrics.IncrementRejection(string(action), string(apperrors.KindOf(err)))
		}
	}()

	if !knownAction(action) {
		return nil, apperrors.Validation("unknown_action", "Unknown action %q", action)
	}
	if payload == nil {
		payload, _ = requests.NewActionPayload(action)
	}
	if !mayAttempt(action, actor.Role) {
		return nil, apperrors.Unauthorized("role_not_permitted", "Role %s may not %s", actor.Role, action)
	}

	current, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	e, ok := lookup(current.Status, action)
	if !ok {
		return nil, invalidTransition(action, current.Status)
	}
	if !hasRole(e.roles, actor.Role) {
		return nil, apperrors.Unauthorized("role_not_permitted",
			"Role %s may not %s while the application is %s", actor.Role, action, current.Status)
	}
	if err := s.authorizeActor(ctx, actor, current); err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	working := *current
	working.Documents = nil
	working.Actions = nil
	tc := &transitionContext{
		action:  action,
		from:    current.Status,
		to:      e.target(current),
		app:     &working,
		actor:   actor,
		payload: payload,
		now:     s.now(),
	}
	if e.prepare != nil {
		if err := e.prepare(ctx, s, tc); err != nil {
			return nil, err
		}
	}
	return s.commit(ctx, tc)
}

func invalidTransition(action models.WorkflowAction, status models.ApplicationStatus) error {
	sources := sourcesFor(action)
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, string(src))
	}
	if status.IsTerminal() {
		return apperrors.Conflict("invalid_transition",
			"Application is already %s; %s is no longer possible", status, action).
			WithDetail("current_status", status).
			WithDetail("allowed_from", names)
	}
	return apperrors.Conflict("invalid_transition",
		"Cannot %s an application that is %s; it is only allowed from %s", action, status, strings.Join(names, ", ")).
		WithDetail("current_status", status).
		WithDetail("allowed_from", names)
}

// commit persists the prepared application, then runs the secondary effects.
func (s *Service) commit(ctx context.Context, tc *transitionContext) (*models.Application, error) {
	app := tc.app
	app.Status = tc.to
	app.CurrentStage = models.StageFor(tc.to)
	updatedBy := tc.actor.UserID.String()
	app.UpdatedBy = &updatedBy

	for attempt := 1; ; attempt++ {
		if err := s.assignNumbers(ctx, tc); err != nil {
			return nil, err
		}
		err := s.write(ctx, tc)
		if err == nil {
			break
		}
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			if tc.action == models.ActionSubmitFinal {
				if err := s.checkInFlight(ctx, app); err != nil {
					return nil, err
				}
			}
			if (tc.issueAppNumber || tc.issueCertificate) && attempt < maxNumberAttempts {
				s.logger.Warn("Generated number already taken, retrying",
					zap.String("applicationID", app.ID.String()),
					zap.Int("attempt", attempt))
				continue
			}
			return nil, apperrors.Conflict("number_collision",
				"Could not issue a unique number for application %s after %d attempts; try again", app.ID, attempt)
		}
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict("stale_status",
				"Application %s is no longer %s; reload it and try again", app.ID, tc.from).
				WithDetail("expected_status", tc.from)
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("application_not_found", "Application %s not found", app.ID)
		}
		return nil, apperrors.Infrastructure("application_write_failed", err)
	}

	s.recordAction(ctx, tc)
	s.notify(tc)
	s.metrics.IncrementTransition(string(tc.action), string(tc.from), string(tc.to))
	s.logger.Info("Application transitioned",
		zap.String("applicationID", app.ID.String()),
		zap.String("action", string(tc.action)),
		zap.String("fromStatus", string(tc.from)),
		zap.String("toStatus", string(tc.to)),
		zap.String("actorID", tc.actor.UserID.String()),
		zap.String("actorRole", string(tc.actor.Role)))
	return app, nil
}

func (s *Service) write(ctx context.Context, tc *transitionContext) error {
	if tc.create {
		return s.store.CreateApplication(ctx, tc.app)
	}
	return s.store.TransitionApplication(ctx, tc.app, tc.from)
}

// assignNumbers issues the application number on first submission and the
// certificate number on approval. Called again on every retry so a
// collision picks up the next free sequence.
func (s *Service) assignNumbers(ctx context.Context, tc *transitionContext) error {
	app := tc.app
	code := routing.DistrictCode(app.District)
	if tc.issueAppNumber {
		number, err := s.nextNumber(ctx, fmt.Sprintf("HS/%s/%d/", code, tc.now.Year()))
		if err != nil {
			return err
		}
		app.ApplicationNumber = &number
	}
	if tc.issueCertificate {
		number, err := s.nextNumber(ctx, fmt.Sprintf("HSC/%s/%d/", code, tc.now.Year()))
		if err != nil {
			return err
		}
		app.CertificateNumber = &number
	}
	return nil
}

func (s *Service) nextNumber(ctx context.Context, prefix string) (string, error) {
	seq, err := s.store.NextSequence(ctx, prefix)
	if err != nil {
		return "", apperrors.Infrastructure("sequence_lookup_failed", err)
	}
	return fmt.Sprintf("%s%05d", prefix, seq), nil
}

// recordAction appends the audit row. A failure is logged and counted but
// never undoes the transition.
func (s *Service) recordAction(ctx context.Context, tc *transitionContext) {
	action := &models.ApplicationAction{
		ApplicationID:  tc.app.ID,
		ActorID:        tc.actor.UserID,
		ActorRole:      tc.actor.Role,
		Action:         tc.action,
		PreviousStatus: tc.from,
		NewStatus:      tc.to,
	}
	if tc.feedback != "" {
		feedback := tc.feedback
		action.Feedback = &feedback
	}
	if err := s.store.AppendAction(ctx, action); err != nil {
		s.metrics.IncrementSecondaryFailure(metrics.EffectAudit)
		s.logger.Error("Failed to append application action",
			zap.String("applicationID", tc.app.ID.String()),
			zap.String("action", string(tc.action)),
			zap.Error(err))
	}
}

func (s *Service) notify(tc *transitionContext) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.metrics.IncrementSecondaryFailure(metrics.EffectNotification)
			s.logger.Error("Notification enqueue panicked",
				zap.String("applicationID", tc.app.ID.String()),
				zap.Any("panic", r))
		}
	}()
	s.notifier.QueueNotification(EventID(tc.action), notificationContext(tc))
}

func notificationContext(tc *transitionContext) NotificationContext {
	app := tc.app
	nc := NotificationContext{
		ApplicationID:  app.ID,
		OwnerID:        app.OwnerID,
		OwnerName:      app.OwnerName,
		OwnerMobile:    app.OwnerMobile,
		PropertyName:   app.PropertyName,
		District:       app.District,
		Action:         tc.action,
		PreviousStatus: tc.from,
		Status:         tc.to,
		Remarks:        tc.feedback,
		TotalFee:       app.TotalFee.StringFixed(2),
		ActorRole:      tc.actor.Role,
	}
	if app.ApplicationNumber != nil {
		nc.ApplicationNumber = *app.ApplicationNumber
	}
	if app.OwnerEmail != nil {
		nc.OwnerEmail = *app.OwnerEmail
	}
	if app.CertificateNumber != nil {
		nc.CertificateNumber = *app.CertificateNumber
	}
	return nc
}

// authorizeActor checks the actor against the application: owners must be
// the owner of record, staff must be active in their role and, for
// reviewers, cover the application's district.
func (s *Service) authorizeActor(ctx context.Context, actor models.Actor, app *models.Application) error {
	if actor.Role == models.OwnerRole {
		if app.OwnerID != actor.UserID {
			return apperrors.Unauthorized("not_application_owner", "Only the owner of application %s may do this", app.ID)
		}
		return nil
	}

	user, err := s.store.GetUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Unauthorized("unknown_actor", "User %s is not registered", actor.UserID)
		}
		return apperrors.Infrastructure("user_lookup_failed", err)
	}
	if !user.Active || user.Role != actor.Role {
		return apperrors.Unauthorized("inactive_actor", "User %s is not active as %s", actor.UserID, actor.Role)
	}
	if actor.Role.IsReviewer() && !user.CoversDistrict(app.District) {
		return apperrors.Unauthorized("outside_jurisdiction",
			"User %s does not cover district %s", actor.UserID, app.District)
	}
	return nil
}

func (s *Service) loadApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("application_not_found", "Application %s not found", id)
		}
		return nil, apperrors.Infrastructure("application_lookup_failed", err)
	}
	return app, nil
}

// GetApplication returns the application with its documents for actor.
func (s *Service) GetApplication(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Application, error) {
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.AdminRole {
		if err := s.authorizeActor(ctx, actor, app); err != nil {
			return nil, err
		}
	}
	docs, err := s.store.ListDocuments(ctx, id)
	if err != nil {
		return nil, apperrors.Infrastructure("document_lookup_failed", err)
	}
	app.Documents = docs
	return app, nil
}

// ListActions returns the audit trail of an application, oldest first.
func (s *Service) ListActions(ctx context.Context, id uuid.UUID, actor models.Actor) ([]models.ApplicationAction, error) {
	app, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.AdminRole {
		if err := s.authorizeActor(ctx, actor, app); err != nil {
			return nil, err
		}
	}
	actions, err := s.store.ListActions(ctx, id)
	if err != nil {
		return nil, apperrors.Infrastructure("action_lookup_failed", err)
	}
	return actions, nil
}
