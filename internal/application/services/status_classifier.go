package services

import (
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
)

// Classify maps a record to its dashboard bucket and the actions it enables.
// Unknown variants or statuses land in the pending bucket with no actions.
func Classify(record entities.Record) entities.Classification {
	switch r := record.(type) {
	case *entities.DoctorAppointment:
		if r != nil {
			return classifyDoctor(r)
		}
	case *entities.LabAppointment:
		if r != nil {
			return classifyLab(r)
		}
	case *entities.DeliveryOrder:
		if r != nil {
			return classifyOrder(r)
		}
	}
	return unclassified()
}

func unclassified() entities.Classification {
	return entities.Classification{Bucket: entities.BucketPending, Actions: []entities.Action{}}
}

func classifyDoctor(a *entities.DoctorAppointment) entities.Classification {
	switch a.Status {
	case entities.DoctorStatusUpcoming:
		actions := []entities.Action{entities.ActionViewPatient}
		if a.ConsultationType == entities.ConsultationOnline {
			actions = append(actions, entities.ActionJoinNow)
		}
		actions = append(actions, entities.ActionEditPrescription)
		if a.PrescriptionSent && a.HasPrescription() {
			actions = append(actions, entities.ActionMarkAsRead)
		}
		actions = append(actions, entities.ActionCancel)
		return entities.Classification{Bucket: entities.BucketPending, Actions: actions}

	case entities.DoctorStatusCompleted:
		actions := []entities.Action{entities.ActionViewPatient, entities.ActionEditPrescription}
		if a.HasPrescription() {
			actions = append(actions, entities.ActionDeletePrescription)
		}
		actions = append(actions, feedbackToggle(a.FeedbackRequested))
		return entities.Classification{Bucket: entities.BucketCompleted, Actions: actions}
	}
	return unclassified()
}

// classifyLab keeps the two-tier completion: "completed" means the report is
// written but not acknowledged and stays in processing; only an acknowledged
// report reaches the completed bucket.
func classifyLab(a *entities.LabAppointment) entities.Classification {
	switch a.Status {
	case entities.LabStatusPending:
		return entities.Classification{
			Bucket:  entities.BucketPending,
			Actions: []entities.Action{entities.ActionSampleCollected},
		}

	case entities.LabStatusProcessing, entities.LabStatusCollected:
		return entities.Classification{
			Bucket:  entities.BucketProcessing,
			Actions: []entities.Action{reportAction(a)},
		}

	case entities.LabStatusCompleted:
		if a.MarkedAsRead {
			return acknowledgedLab(a)
		}
		actions := []entities.Action{entities.ActionViewPatient}
		if a.ReportComplete() {
			actions = append(actions, entities.ActionMarkAsRead)
		}
		actions = append(actions, reportAction(a), entities.ActionDeleteReport)
		return entities.Classification{Bucket: entities.BucketProcessing, Actions: actions}

	case entities.LabStatusMarkedAsRead:
		return acknowledgedLab(a)
	}
	return unclassified()
}

func acknowledgedLab(a *entities.LabAppointment) entities.Classification {
	return entities.Classification{
		Bucket: entities.BucketCompleted,
		Actions: []entities.Action{
			entities.ActionViewPatient,
			entities.ActionDeleteReport,
			feedbackToggle(a.FeedbackRequested),
		},
	}
}

// reportAction labels the report editor by what is still missing
func reportAction(a *entities.LabAppointment) entities.Action {
	text, pdfs := a.HasReportText(), a.HasReportPDFs()
	switch {
	case !text && !pdfs:
		return entities.ActionUploadReports
	case text && !pdfs:
		return entities.ActionAddPDFs
	case !text && pdfs:
		return entities.ActionAddDetails
	}
	return entities.ActionEditReport
}

func classifyOrder(o *entities.DeliveryOrder) entities.Classification {
	var (
		bucket  entities.Bucket
		actions []entities.Action
	)
	switch o.Status {
	case entities.OrderStatusPending:
		bucket = entities.BucketPending
		actions = []entities.Action{entities.ActionConfirmOrder}
	case entities.OrderStatusConfirmed:
		bucket = entities.BucketPending
		actions = []entities.Action{entities.ActionAssignDelivery}
	case entities.OrderStatusAssignedToDelivery:
		bucket = entities.BucketPending
		actions = []entities.Action{entities.ActionAcceptDelivery, entities.ActionRejectDelivery}
	case entities.OrderStatusDeliveryAccepted:
		bucket = entities.BucketProcessing
		actions = []entities.Action{entities.ActionStartDelivery, entities.ActionRejectDelivery}
	case entities.OrderStatusOutForDelivery:
		bucket = entities.BucketProcessing
		actions = []entities.Action{entities.ActionCompleteDelivery}
	case entities.OrderStatusDelivered:
		return entities.Classification{
			Bucket:  entities.BucketCompleted,
			Actions: []entities.Action{entities.ActionViewOrder, feedbackToggle(o.FeedbackRequested)},
		}
	case entities.OrderStatusDeliveryRejected, entities.OrderStatusCancelled:
		return entities.Classification{
			Bucket:  entities.BucketRejected,
			Actions: []entities.Action{entities.ActionViewOrder},
		}
	default:
		return unclassified()
	}
	actions = append([]entities.Action{entities.ActionViewOrder}, actions...)
	actions = append(actions, entities.ActionCancelOrder)
	return entities.Classification{Bucket: bucket, Actions: actions}
}

func feedbackToggle(requested bool) entities.Action {
	if requested {
		return entities.ActionCancelFeedbackRequest
	}
	return entities.ActionRequestFeedback
}

// roleCapabilities lists the actions each dashboard may expose
var roleCapabilities = map[entities.Role]map[entities.Action]bool{
	entities.RoleDoctor: actionSet(
		entities.ActionViewPatient, entities.ActionJoinNow, entities.ActionCancel,
		entities.ActionMarkAsRead, entities.ActionEditPrescription, entities.ActionSavePrescription,
		entities.ActionDeletePrescription, entities.ActionRequestFeedback, entities.ActionCancelFeedbackRequest,
	),
	entities.RoleLaboratory: actionSet(
		entities.ActionViewPatient, entities.ActionCancel, entities.ActionSampleCollected,
		entities.ActionUploadReports, entities.ActionAddDetails, entities.ActionAddPDFs,
		entities.ActionEditReport, entities.ActionSaveReport, entities.ActionDeleteReport,
		entities.ActionRemovePDF, entities.ActionMarkAsRead,
		entities.ActionRequestFeedback, entities.ActionCancelFeedbackRequest,
	),
	entities.RoleDelivery: actionSet(
		entities.ActionViewOrder, entities.ActionAcceptDelivery, entities.ActionRejectDelivery,
		entities.ActionStartDelivery, entities.ActionCompleteDelivery,
	),
	entities.RoleVendor: actionSet(
		entities.ActionViewOrder, entities.ActionConfirmOrder, entities.ActionAssignDelivery,
		entities.ActionCancelOrder, entities.ActionRequestFeedback, entities.ActionCancelFeedbackRequest,
	),
	entities.RolePatient: actionSet(
		entities.ActionJoinNow, entities.ActionCancel, entities.ActionViewOrder, entities.ActionCancelOrder,
	),
}

func actionSet(actions ...entities.Action) map[entities.Action]bool {
	set := make(map[entities.Action]bool, len(actions))
	for _, a := range actions {
		set[a] = true
	}
	return set
}

// ClassifyForRole classifies a record and drops the actions the role may not perform.
// Patients may cancel a lab booking until the sample is collected, and an order
// only while it is still pending.
func ClassifyForRole(role entities.Role, record entities.Record) entities.Classification {
	if entities.IsNilRecord(record) {
		return unclassified()
	}
	c := Classify(record)
	if role == entities.RolePatient &&
		record.RecordDomain() == entities.DomainLaboratory &&
		record.StatusValue() == string(entities.LabStatusPending) {
		c.Actions = append(c.Actions, entities.ActionCancel)
	}
	allowed := roleCapabilities[role]
	filtered := make([]entities.Action, 0, len(c.Actions))
	for _, a := range c.Actions {
		if !allowed[a] {
			continue
		}
		if role == entities.RolePatient && a == entities.ActionCancelOrder &&
			record.StatusValue() != string(entities.OrderStatusPending) {
			continue
		}
		filtered = append(filtered, a)
	}
	c.Actions = filtered
	return c
}
