package tasks

import (
	"fmt"
	"strings"

	"homestay-registration-backend/applications/workflow"
	"homestay-registration-backend/db/models"
)

// headlines describe each event from the owner's point of view. %s is the
// application reference.
var headlines = map[models.WorkflowAction]string{
	models.ActionSubmitFinal:             "Your homestay application %s has been submitted",
	models.ActionApplyCorrection:         "Your corrected application %s has been resubmitted",
	models.ActionStartScrutiny:           "Application %s is now under scrutiny by the dealing assistant",
	models.ActionForwardToDTDO:           "Application %s has been forwarded to the District Tourism Development Officer",
	models.ActionSendBack:                "Application %s has been sent back to you for corrections",
	models.ActionVerifyLegacy:            "Your existing registration certificate for application %s has been verified",
	models.ActionStartDTDOReview:         "Application %s is under review by the District Tourism Development Officer",
	models.ActionScheduleInspection:      "A site inspection has been scheduled for application %s",
	models.ActionRecordInspectionOutcome: "The site inspection for application %s is complete",
	models.ActionVerifyForPayment:        "Application %s has been verified and the registration fee is now due",
	models.ActionRevertByDTDO:            "Application %s has been returned to you by the District Tourism Development Officer",
	models.ActionRaiseObjection:          "An objection has been raised on application %s",
	models.ActionInitiatePayment:         "Payment has been initiated for application %s",
	models.ActionMarkPaid:                "Payment received for application %s",
	models.ActionApprove:                 "Application %s has been approved",
	models.ActionReject:                  "Application %s has been rejected",
}

// Render returns the email subject and plain-text body for an event.
func Render(eventID string, nc workflow.NotificationContext) (string, string, error) {
	action := models.WorkflowAction(strings.TrimPrefix(eventID, "application."))
	headline, ok := headlines[action]
	if !ok || workflow.EventID(action) != eventID {
		return "", "", fmt.Errorf("no template for event %q", eventID)
	}

	reference := nc.ApplicationNumber
	if reference == "" {
		reference = nc.ApplicationID.String()
	}
	subject := fmt.Sprintf(headline, reference)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n%s.\n\n", nc.OwnerName, subject)
	fmt.Fprintf(&b, "Property: %s\n", nc.PropertyName)
	if nc.District != "" {
		fmt.Fprintf(&b, "District: %s\n", nc.District)
	}
	fmt.Fprintf(&b, "Current status: %s\n", strings.ReplaceAll(string(nc.Status), "_", " "))
	if nc.Remarks != "" {
		fmt.Fprintf(&b, "Remarks: %s\n", nc.Remarks)
	}
	if action == models.ActionVerifyForPayment && nc.TotalFee != "" {
		fmt.Fprintf(&b, "Fee due: ₹%s\n", nc.TotalFee)
	}
	if nc.CertificateNumber != "" {
		fmt.Fprintf(&b, "Registration certificate: %s\n", nc.CertificateNumber)
	}
	b.WriteString("\nDepartment of Tourism and Civil Aviation\n")
	return subject, b.String(), nil
}
