package entities

// Bucket is the dashboard group a record is displayed in
type Bucket string

const (
	BucketPending    Bucket = "pending"
	BucketProcessing Bucket = "processing"
	BucketCompleted  Bucket = "completed"
	BucketRejected   Bucket = "rejected"
)

// Buckets lists every bucket in display order
var Buckets = []Bucket{BucketPending, BucketProcessing, BucketCompleted, BucketRejected}

// Action is a user-initiated operation on a record
type Action string

const (
	ActionViewPatient           Action = "view_patient"
	ActionJoinNow               Action = "join_now"
	ActionCancel                Action = "cancel"
	ActionMarkAsRead            Action = "mark_as_read"
	ActionEditPrescription      Action = "edit_prescription"
	ActionSavePrescription      Action = "save_prescription"
	ActionDeletePrescription    Action = "delete_prescription"
	ActionRequestFeedback       Action = "request_feedback"
	ActionCancelFeedbackRequest Action = "cancel_feedback_request"

	ActionSampleCollected Action = "sample_collected"
	ActionUploadReports   Action = "upload_reports"
	ActionAddDetails      Action = "add_details"
	ActionAddPDFs         Action = "add_pdfs"
	ActionEditReport      Action = "edit_report"
	ActionSaveReport      Action = "save_report"
	ActionDeleteReport    Action = "delete_report"
	ActionRemovePDF       Action = "remove_pdf"

	ActionViewOrder        Action = "view_order"
	ActionConfirmOrder     Action = "confirm_order"
	ActionAssignDelivery   Action = "assign_delivery"
	ActionAcceptDelivery   Action = "accept_delivery"
	ActionRejectDelivery   Action = "reject_delivery"
	ActionStartDelivery    Action = "start_delivery"
	ActionCompleteDelivery Action = "complete_delivery"
	ActionCancelOrder      Action = "cancel_order"

	ActionDeleteAccount Action = "delete_account"
)

var actionLabels = map[Action]string{
	ActionViewPatient:           "View Patient",
	ActionJoinNow:               "Join Now",
	ActionCancel:                "Cancel",
	ActionMarkAsRead:            "Mark as Read",
	ActionEditPrescription:      "Add/Edit Prescription",
	ActionSavePrescription:      "Save Prescription",
	ActionDeletePrescription:    "Delete Prescription",
	ActionRequestFeedback:       "Request Feedback",
	ActionCancelFeedbackRequest: "Cancel Feedback Request",
	ActionSampleCollected:       "Sample Collected",
	ActionUploadReports:         "Upload Reports",
	ActionAddDetails:            "Add Details",
	ActionAddPDFs:               "Add PDFs",
	ActionEditReport:            "Edit Report",
	ActionSaveReport:            "Save Report",
	ActionDeleteReport:          "Delete Report",
	ActionRemovePDF:             "Remove PDF",
	ActionViewOrder:             "View Order",
	ActionConfirmOrder:          "Confirm Order",
	ActionAssignDelivery:        "Assign Delivery",
	ActionAcceptDelivery:        "Accept",
	ActionRejectDelivery:        "Reject",
	ActionStartDelivery:         "Start Delivery",
	ActionCompleteDelivery:      "Mark Delivered",
	ActionCancelOrder:           "Cancel Order",
	ActionDeleteAccount:         "Delete Account",
}

// Label is the button text for the action
func (a Action) Label() string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}

// Known reports whether the action is one this system understands
func (a Action) Known() bool {
	_, ok := actionLabels[a]
	return ok
}

// Destructive actions need an explicit confirmation before any backend call
func (a Action) Destructive() bool {
	switch a {
	case ActionCancel, ActionCancelOrder, ActionDeletePrescription, ActionDeleteReport,
		ActionRemovePDF, ActionDeleteAccount:
		return true
	}
	return false
}

// Classification is the result of classifying one record
type Classification struct {
	Bucket  Bucket   `json:"bucket"`
	Actions []Action `json:"actions"`
}

// Allows reports whether the action is enabled
func (c Classification) Allows(action Action) bool {
	for _, a := range c.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Role is the kind of user looking at a dashboard
type Role string

const (
	RoleDoctor     Role = "doctor"
	RoleLaboratory Role = "laboratory"
	RoleDelivery   Role = "delivery"
	RoleVendor     Role = "vendor"
	RolePatient    Role = "patient"
)

// ParseRole validates a role name from a URL or flag
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleDoctor, RoleLaboratory, RoleDelivery, RoleVendor, RolePatient:
		return r, true
	case "user":
		return RolePatient, true
	}
	return "", false
}
