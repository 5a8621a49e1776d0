package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkflowAction names a state machine transition.
type WorkflowAction string

const (
	ActionSubmitFinal             WorkflowAction = "submit_final"
	ActionStartScrutiny           WorkflowAction = "start_scrutiny"
	ActionForwardToDTDO           WorkflowAction = "forward_to_dtdo"
	ActionSendBack                WorkflowAction = "send_back"
	ActionVerifyLegacy            WorkflowAction = "verify_legacy"
	ActionStartDTDOReview         WorkflowAction = "start_dtdo_review"
	ActionScheduleInspection      WorkflowAction = "schedule_inspection"
	ActionRecordInspectionOutcome WorkflowAction = "record_inspection_outcome"
	ActionVerifyForPayment        WorkflowAction = "verify_for_payment"
	ActionRevertByDTDO            WorkflowAction = "revert_by_dtdo"
	ActionRaiseObjection          WorkflowAction = "raise_objection"
	ActionInitiatePayment         WorkflowAction = "initiate_payment"
	ActionMarkPaid                WorkflowAction = "mark_paid"
	ActionApprove                 WorkflowAction = "approve"
	ActionReject                  WorkflowAction = "reject"
	ActionApplyCorrection         WorkflowAction = "apply_correction"
)

// AllActions lists every action the state machine knows.
var AllActions = []WorkflowAction{
	ActionSubmitFinal,
	ActionStartScrutiny,
	ActionForwardToDTDO,
	ActionSendBack,
	ActionVerifyLegacy,
	ActionStartDTDOReview,
	ActionScheduleInspection,
	ActionRecordInspectionOutcome,
	ActionVerifyForPayment,
	ActionRevertByDTDO,
	ActionRaiseObjection,
	ActionInitiatePayment,
	ActionMarkPaid,
	ActionApprove,
	ActionReject,
	ActionApplyCorrection,
}

// ApplicationAction is the append-only audit row written once per transition.
type ApplicationAction struct {
	ID             uuid.UUID         `gorm:"type:uuid;primary_key;" json:"id"`
	ApplicationID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"application_id"`
	ActorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"actor_id"`
	ActorRole      Role              `gorm:"type:varchar(30);not null" json:"actor_role"`
	Action         WorkflowAction    `gorm:"type:varchar(40);not null" json:"action"`
	PreviousStatus ApplicationStatus `gorm:"type:varchar(40);not null" json:"previous_status"`
	NewStatus      ApplicationStatus `gorm:"type:varchar(40);not null" json:"new_status"`
	Feedback       *string           `gorm:"type:text" json:"feedback"`
	CreatedAt      time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (a *ApplicationAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
