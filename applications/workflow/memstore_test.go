package workflow

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"homestay-registration-backend/applications/fees"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/documents/validators"
	"homestay-registration-backend/utils/apperrors"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu      sync.Mutex
	apps    map[uuid.UUID]models.Application
	docs    map[uuid.UUID][]models.Document
	actions []models.ApplicationAction
	users   map[uuid.UUID]models.User

	appendErr error
	// duplicates makes the next n application writes fail with a duplicate key.
	duplicates int
	// beforeTransition runs inside TransitionApplication before the status check.
	beforeTransition func(id uuid.UUID)
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		apps:  make(map[uuid.UUID]models.Application),
		docs:  make(map[uuid.UUID][]models.Document),
		users: make(map[uuid.UUID]models.User),
	}
}

func (m *memoryStore) GetApplication(_ context.Context, id uuid.UUID) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", id, apperrors.ErrNotFound)
	}
	return &app, nil
}

func (m *memoryStore) CreateApplication(_ context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if err := m.checkUniqueLocked(app); err != nil {
		return err
	}
	m.apps[app.ID] = *app
	return nil
}

func (m *memoryStore) UpdateApplication(_ context.Context, app *models.Application, expected models.ApplicationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.apps[app.ID]
	if !ok {
		return fmt.Errorf("application %s: %w", app.ID, apperrors.ErrNotFound)
	}
	if stored.Status != expected {
		return fmt.Errorf("application %s: %w", app.ID, apperrors.ErrConflict)
	}
	m.apps[app.ID] = *app
	return nil
}

func (m *memoryStore) TransitionApplication(_ context.Context, app *models.Application, from models.ApplicationStatus) error {
	if m.beforeTransition != nil {
		m.beforeTransition(app.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.apps[app.ID]
	if !ok {
		return fmt.Errorf("application %s: %w", app.ID, apperrors.ErrNotFound)
	}
	if stored.Status != from {
		return fmt.Errorf("application %s: %w", app.ID, apperrors.ErrConflict)
	}
	if err := m.checkUniqueLocked(app); err != nil {
		return err
	}
	m.apps[app.ID] = *app
	return nil
}

// checkUniqueLocked mirrors the unique indexes on numbers and the partial
// index allowing one in-flight application per owner.
func (m *memoryStore) checkUniqueLocked(app *models.Application) error {
	if m.duplicates > 0 {
		m.duplicates--
		return fmt.Errorf("application %s: %w", app.ID, apperrors.ErrDuplicateKey)
	}
	for id, other := range m.apps {
		if id == app.ID {
			continue
		}
		if sameNumber(app.ApplicationNumber, other.ApplicationNumber) || sameNumber(app.CertificateNumber, other.CertificateNumber) {
			return fmt.Errorf("application %s: %w", app.ID, apperrors.ErrDuplicateKey)
		}
		if app.Status.IsInFlight() && other.Status.IsInFlight() && app.OwnerID == other.OwnerID {
			return fmt.Errorf("application %s: %w", app.ID, apperrors.ErrDuplicateKey)
		}
	}
	return nil
}

func sameNumber(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func (m *memoryStore) FindInFlightApplication(_ context.Context, ownerID, excludeID uuid.UUID) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, app := range m.apps {
		if id != excludeID && app.OwnerID == ownerID && app.Status.IsInFlight() {
			found := app
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) NextSequence(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	highest := 0
	for _, app := range m.apps {
		for _, number := range []*string{app.ApplicationNumber, app.CertificateNumber} {
			if number == nil || !strings.HasPrefix(*number, prefix) {
				continue
			}
			if n, err := strconv.Atoi(strings.TrimPrefix(*number, prefix)); err == nil && n > highest {
				highest = n
			}
		}
	}
	return highest + 1, nil
}

func (m *memoryStore) ListDocuments(_ context.Context, applicationID uuid.UUID) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Document(nil), m.docs[applicationID]...), nil
}

func (m *memoryStore) GetDocument(_ context.Context, applicationID, documentID uuid.UUID) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs[applicationID] {
		if d.ID == documentID {
			found := d
			return &found, nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", documentID, apperrors.ErrNotFound)
}

func (m *memoryStore) CreateDocument(_ context.Context, doc *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	m.docs[doc.ApplicationID] = append(m.docs[doc.ApplicationID], *doc)
	return nil
}

func (m *memoryStore) UpdateDocument(_ context.Context, doc *models.Document, expectedStatus models.ApplicationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apps[doc.ApplicationID].Status != expectedStatus {
		return fmt.Errorf("document %s: %w", doc.ID, apperrors.ErrConflict)
	}
	docs := m.docs[doc.ApplicationID]
	for i := range docs {
		if docs[i].ID == doc.ID {
			docs[i] = *doc
			return nil
		}
	}
	return fmt.Errorf("document %s: %w", doc.ID, apperrors.ErrNotFound)
}

func (m *memoryStore) AppendAction(_ context.Context, action *models.ApplicationAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	action.ID = uuid.New()
	m.actions = append(m.actions, *action)
	return nil
}

func (m *memoryStore) ListActions(_ context.Context, applicationID uuid.UUID) ([]models.ApplicationAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ApplicationAction
	for _, a := range m.actions {
		if a.ApplicationID == applicationID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, apperrors.ErrNotFound)
	}
	return &u, nil
}

func (m *memoryStore) addUser(role models.Role, district string) models.Actor {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{ID: uuid.New(), FullName: string(role), Role: role, Active: true}
	if district != "" {
		u.District = &district
	}
	m.users[u.ID] = u
	return models.Actor{UserID: u.ID, Role: role}
}

func (m *memoryStore) setStatus(id uuid.UUID, status models.ApplicationStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app := m.apps[id]
	app.Status = status
	m.apps[id] = app
}

func (m *memoryStore) status(id uuid.UUID) models.ApplicationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apps[id].Status
}

func (m *memoryStore) setVerification(appID uuid.UUID, status models.VerificationStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.docs[appID]
	for i := range docs {
		docs[i].VerificationStatus = status
	}
}

func (m *memoryStore) actionsFor(id uuid.UUID, action models.WorkflowAction) []models.ApplicationAction {
	all, _ := m.ListActions(context.Background(), id)
	var out []models.ApplicationAction
	for _, a := range all {
		if a.Action == action {
			out = append(out, a)
		}
	}
	return out
}

type fakeSettings struct {
	bands         fees.RateBands
	schedule      fees.FeeSchedule
	rules         fees.RoomRules
	policy        validators.UploadPolicy
	sendBack      bool
	legacyForward bool
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{
		bands:    fees.DefaultRateBands(),
		schedule: fees.DefaultFeeSchedule(),
		rules:    fees.DefaultRoomRules(),
		policy:   validators.DefaultUploadPolicy(),
		sendBack: true,
	}
}

func (f *fakeSettings) UploadPolicy(context.Context) (validators.UploadPolicy, error) {
	return f.policy, nil
}

func (f *fakeSettings) CategoryRateBands(context.Context) (fees.RateBands, error) {
	return f.bands, nil
}

func (f *fakeSettings) FeeSchedule(context.Context) (fees.FeeSchedule, error) {
	return f.schedule, nil
}

func (f *fakeSettings) RoomRules(context.Context) (fees.RoomRules, error) {
	return f.rules, nil
}

func (f *fakeSettings) DASendBackEnabled(context.Context) (bool, error) {
	return f.sendBack, nil
}

func (f *fakeSettings) LegacyForwardAllowed(context.Context) (bool, error) {
	return f.legacyForward, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) QueueNotification(eventID string, _ NotificationContext) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventID)
}

func (n *recordingNotifier) sorted() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := append([]string(nil), n.events...)
	sort.Strings(out)
	return out
}

type panickingNotifier struct{}

func (panickingNotifier) QueueNotification(string, NotificationContext) {
	panic("broker down")
}
