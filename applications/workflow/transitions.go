package workflow

import (
	"context"
	"time"

	"homestay-registration-backend/applications/requests"
	"homestay-registration-backend/db/models"
)

// transitionContext is the working state of one transition call. prepare
// functions check preconditions and mutate app; nothing is persisted until
// every check has passed.
type transitionContext struct {
	action  models.WorkflowAction
	from    models.ApplicationStatus
	to      models.ApplicationStatus
	app     *models.Application
	actor   models.Actor
	payload requests.ActionPayload
	now     time.Time

	feedback         string
	create           bool
	trusted          bool
	issueAppNumber   bool
	issueCertificate bool
}

type prepareFunc func(ctx context.Context, s *Service, tc *transitionContext) error

type edge struct {
	action models.WorkflowAction
	from   models.ApplicationStatus
	to     models.ApplicationStatus
	// legacyTo replaces to for legacy RC applications when set.
	legacyTo models.ApplicationStatus
	roles    []models.Role
	prepare  prepareFunc
}

func (e edge) target(app *models.Application) models.ApplicationStatus {
	if e.legacyTo != "" && app.IsLegacyRC {
		return e.legacyTo
	}
	return e.to
}

type edgeKey struct {
	from   models.ApplicationStatus
	action models.WorkflowAction
}

var (
	ownerOnly  = []models.Role{models.OwnerRole}
	daOnly     = []models.Role{models.DealingAssistantRole}
	dtdoOnly   = []models.Role{models.DTDORole}
	systemOnly = []models.Role{models.SystemRole}
)

var edges = []edge{
	{action: models.ActionSubmitFinal, from: models.StatusDraft, to: models.StatusSubmitted, roles: ownerOnly, prepare: prepareFirstSubmission},

	{action: models.ActionStartScrutiny, from: models.StatusSubmitted, to: models.StatusUnderScrutiny, legacyTo: models.StatusLegacyRCReview, roles: daOnly},
	{action: models.ActionForwardToDTDO, from: models.StatusUnderScrutiny, to: models.StatusForwardedToDTDO, roles: daOnly, prepare: prepareForward},
	{action: models.ActionForwardToDTDO, from: models.StatusLegacyRCReview, to: models.StatusForwardedToDTDO, roles: daOnly, prepare: prepareForward},
	{action: models.ActionSendBack, from: models.StatusUnderScrutiny, to: models.StatusSentBackForCorrections, roles: daOnly, prepare: prepareSendBack},
	{action: models.ActionSendBack, from: models.StatusLegacyRCReview, to: models.StatusRevertedToApplicant, roles: daOnly, prepare: prepareSendBack},
	{action: models.ActionVerifyLegacy, from: models.StatusLegacyRCReview, to: models.StatusApproved, roles: daOnly, prepare: prepareVerifyLegacy},

	{action: models.ActionStartDTDOReview, from: models.StatusForwardedToDTDO, to: models.StatusDTDOReview, roles: dtdoOnly},
	{action: models.ActionScheduleInspection, from: models.StatusDTDOReview, to: models.StatusInspectionScheduled, roles: dtdoOnly, prepare: prepareScheduleInspection},
	{action: models.ActionRecordInspectionOutcome, from: models.StatusInspectionScheduled, to: models.StatusInspectionUnderReview, roles: dtdoOnly, prepare: prepareInspectionOutcome},
	{action: models.ActionVerifyForPayment, from: models.StatusInspectionUnderReview, to: models.StatusVerifiedForPayment, roles: dtdoOnly, prepare: prepareVerifyForPayment},
	{action: models.ActionRevertByDTDO, from: models.StatusDTDOReview, to: models.StatusRevertedByDTDO, roles: dtdoOnly, prepare: prepareRevert},
	{action: models.ActionRevertByDTDO, from: models.StatusInspectionUnderReview, to: models.StatusRevertedByDTDO, roles: dtdoOnly, prepare: prepareRevert},
	{action: models.ActionRaiseObjection, from: models.StatusInspectionUnderReview, to: models.StatusObjectionRaised, roles: dtdoOnly, prepare: prepareRevert},

	{action: models.ActionInitiatePayment, from: models.StatusVerifiedForPayment, to: models.StatusPaymentPending, roles: []models.Role{models.OwnerRole, models.SystemRole}},
	{action: models.ActionMarkPaid, from: models.StatusPaymentPending, to: models.StatusApproved, roles: systemOnly, prepare: prepareMarkPaid},
	{action: models.ActionApprove, from: models.StatusPaymentPending, to: models.StatusApproved, roles: dtdoOnly, prepare: prepareOfflineApproval},

	{action: models.ActionReject, from: models.StatusSubmitted, to: models.StatusRejected, roles: daOnly, prepare: prepareReject},
	{action: models.ActionReject, from: models.StatusUnderScrutiny, to: models.StatusRejected, roles: daOnly, prepare: prepareReject},
	{action: models.ActionReject, from: models.StatusLegacyRCReview, to: models.StatusRejected, roles: daOnly, prepare: prepareReject},
	{action: models.ActionReject, from: models.StatusForwardedToDTDO, to: models.StatusRejected, roles: dtdoOnly, prepare: prepareReject},
	{action: models.ActionReject, from: models.StatusDTDOReview, to: models.StatusRejected, roles: dtdoOnly, prepare: prepareReject},
	{action: models.ActionReject, from: models.StatusInspectionScheduled, to: models.StatusRejected, roles: dtdoOnly, prepare: prepareReject},
	{action: models.ActionReject, from: models.StatusInspectionUnderReview, to: models.StatusRejected, roles: dtdoOnly, prepare: prepareReject},
	{action: models.ActionReject, from: models.StatusVerifiedForPayment, to: models.StatusRejected, roles: dtdoOnly, prepare: prepareReject},

	{action: models.ActionApplyCorrection, from: models.StatusSentBackForCorrections, to: models.StatusSubmitted, roles: ownerOnly, prepare: prepareCorrection},
	{action: models.ActionApplyCorrection, from: models.StatusRevertedToApplicant, to: models.StatusSubmitted, roles: ownerOnly, prepare: prepareCorrection},
	{action: models.ActionApplyCorrection, from: models.StatusRevertedByDTDO, to: models.StatusSubmitted, roles: ownerOnly, prepare: prepareCorrection},
	{action: models.ActionApplyCorrection, from: models.StatusObjectionRaised, to: models.StatusSubmitted, roles: ownerOnly, prepare: prepareCorrection},
}

var transitionTable = buildTable(edges)

func buildTable(list []edge) map[edgeKey]edge {
	table := make(map[edgeKey]edge, len(list))
	for _, e := range list {
		key := edgeKey{from: e.from, action: e.action}
		if _, dup := table[key]; dup {
			panic("workflow: duplicate transition " + string(e.action) + " from " + string(e.from))
		}
		table[key] = e
	}
	return table
}

func lookup(from models.ApplicationStatus, action models.WorkflowAction) (edge, bool) {
	e, ok := transitionTable[edgeKey{from: from, action: action}]
	return e, ok
}

// sourcesFor lists the statuses action may leave, in lifecycle order.
func sourcesFor(action models.WorkflowAction) []models.ApplicationStatus {
	var out []models.ApplicationStatus
	for _, s := range models.AllStatuses {
		if _, ok := lookup(s, action); ok {
			out = append(out, s)
		}
	}
	return out
}

// mayAttempt reports whether role holds action on at least one edge.
func mayAttempt(action models.WorkflowAction, role models.Role) bool {
	for _, e := range edges {
		if e.action == action && hasRole(e.roles, role) {
			return true
		}
	}
	return false
}

func knownAction(action models.WorkflowAction) bool {
	for _, a := range models.AllActions {
		if a == action {
			return true
		}
	}
	return false
}

func hasRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
