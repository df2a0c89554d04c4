package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/application/services"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
)

func TestClassify_Doctor(t *testing.T) {
	t.Run("upcoming online exposes join and cancel", func(t *testing.T) {
		a := doctorAppt("d1", entities.DoctorStatusUpcoming, entities.ConsultationOnline, true, baseTime)

		c := services.Classify(a)

		assert.Equal(t, entities.BucketPending, c.Bucket)
		assert.True(t, c.Allows(entities.ActionJoinNow))
		assert.True(t, c.Allows(entities.ActionCancel))
		assert.False(t, c.Allows(entities.ActionMarkAsRead))
	})

	t.Run("in-person has no join", func(t *testing.T) {
		a := doctorAppt("d1", entities.DoctorStatusUpcoming, entities.ConsultationInPerson, false, baseTime)
		assert.False(t, services.Classify(a).Allows(entities.ActionJoinNow))
	})

	t.Run("mark as read needs a sent prescription", func(t *testing.T) {
		a := doctorAppt("d1", entities.DoctorStatusUpcoming, entities.ConsultationOnline, true, baseTime)
		a.PrescriptionSent = true
		a.Prescription = "Paracetamol 500mg"

		assert.True(t, services.Classify(a).Allows(entities.ActionMarkAsRead))
	})

	t.Run("completed offers prescription and feedback toggles", func(t *testing.T) {
		a := doctorAppt("d1", entities.DoctorStatusCompleted, entities.ConsultationOnline, true, baseTime)
		a.Prescription = "Rest"

		c := services.Classify(a)
		assert.Equal(t, entities.BucketCompleted, c.Bucket)
		assert.True(t, c.Allows(entities.ActionEditPrescription))
		assert.True(t, c.Allows(entities.ActionDeletePrescription))
		assert.True(t, c.Allows(entities.ActionRequestFeedback))
		assert.False(t, c.Allows(entities.ActionCancelFeedbackRequest))
		assert.False(t, c.Allows(entities.ActionCancel))

		a.FeedbackRequested = true
		c = services.Classify(a)
		assert.False(t, c.Allows(entities.ActionRequestFeedback))
		assert.True(t, c.Allows(entities.ActionCancelFeedbackRequest))
	})
}

func TestClassify_DoctorEmptyPrescriptionNeverMarksRead(t *testing.T) {
	for _, status := range []entities.DoctorAppointmentStatus{entities.DoctorStatusUpcoming, entities.DoctorStatusCompleted, "weird"} {
		for _, sent := range []bool{true, false} {
			for _, text := range []string{"", "   "} {
				a := doctorAppt("d1", status, entities.ConsultationOnline, true, baseTime)
				a.PrescriptionSent = sent
				a.Prescription = text
				assert.False(t, services.Classify(a).Allows(entities.ActionMarkAsRead),
					"status=%s sent=%v text=%q", status, sent, text)
			}
		}
	}
}

func TestClassify_Laboratory(t *testing.T) {
	tests := []struct {
		name    string
		status  entities.LabAppointmentStatus
		report  string
		pdfs    []string
		read    bool
		bucket  entities.Bucket
		allows  []entities.Action
		forbids []entities.Action
	}{
		{
			name:    "pending only collects the sample",
			status:  entities.LabStatusPending,
			bucket:  entities.BucketPending,
			allows:  []entities.Action{entities.ActionSampleCollected},
			forbids: []entities.Action{entities.ActionCancel, entities.ActionUploadReports},
		},
		{
			name:    "processing with nothing uploaded",
			status:  entities.LabStatusProcessing,
			bucket:  entities.BucketProcessing,
			allows:  []entities.Action{entities.ActionUploadReports},
			forbids: []entities.Action{entities.ActionMarkAsRead, entities.ActionAddPDFs},
		},
		{
			name:    "processing with text but no pdf",
			status:  entities.LabStatusProcessing,
			report:  "Normal",
			bucket:  entities.BucketProcessing,
			allows:  []entities.Action{entities.ActionAddPDFs},
			forbids: []entities.Action{entities.ActionMarkAsRead, entities.ActionUploadReports, entities.ActionAddDetails},
		},
		{
			name:    "processing with pdf but no text",
			status:  entities.LabStatusProcessing,
			pdfs:    []string{"https://cdn.test/r.pdf"},
			bucket:  entities.BucketProcessing,
			allows:  []entities.Action{entities.ActionAddDetails},
			forbids: []entities.Action{entities.ActionAddPDFs},
		},
		{
			name:   "collected behaves like processing",
			status: entities.LabStatusCollected,
			bucket: entities.BucketProcessing,
			allows: []entities.Action{entities.ActionUploadReports},
		},
		{
			name:    "completed report stays in processing with mark as read",
			status:  entities.LabStatusCompleted,
			report:  "Normal",
			pdfs:    []string{"url1"},
			bucket:  entities.BucketProcessing,
			allows:  []entities.Action{entities.ActionMarkAsRead, entities.ActionEditReport, entities.ActionDeleteReport},
			forbids: []entities.Action{entities.ActionRequestFeedback},
		},
		{
			name:    "completed without pdf cannot be marked read",
			status:  entities.LabStatusCompleted,
			report:  "Normal",
			bucket:  entities.BucketProcessing,
			allows:  []entities.Action{entities.ActionAddPDFs},
			forbids: []entities.Action{entities.ActionMarkAsRead},
		},
		{
			name:    "acknowledged completed reaches completed bucket",
			status:  entities.LabStatusCompleted,
			report:  "Normal",
			pdfs:    []string{"url1"},
			read:    true,
			bucket:  entities.BucketCompleted,
			allows:  []entities.Action{entities.ActionDeleteReport, entities.ActionRequestFeedback},
			forbids: []entities.Action{entities.ActionMarkAsRead},
		},
		{
			name:    "marked-as-read is terminal",
			status:  entities.LabStatusMarkedAsRead,
			report:  "Normal",
			pdfs:    []string{"url1"},
			bucket:  entities.BucketCompleted,
			allows:  []entities.Action{entities.ActionDeleteReport},
			forbids: []entities.Action{entities.ActionMarkAsRead, entities.ActionSampleCollected},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := labAppt("l1", tt.status, tt.report, tt.pdfs)
			a.MarkedAsRead = tt.read

			c := services.Classify(a)

			assert.Equal(t, tt.bucket, c.Bucket)
			for _, action := range tt.allows {
				assert.True(t, c.Allows(action), "expected %s", action)
			}
			for _, action := range tt.forbids {
				assert.False(t, c.Allows(action), "unexpected %s", action)
			}
		})
	}
}

func TestClassify_LabTextWithoutPDFIsAddPDFs(t *testing.T) {
	a := labAppt("l1", entities.LabStatusProcessing, "Haemoglobin 13.5", []string{})

	c := services.Classify(a)

	assert.Equal(t, []entities.Action{entities.ActionAddPDFs}, c.Actions)
}

func TestClassify_DeliveryOrder(t *testing.T) {
	tests := []struct {
		status entities.OrderStatus
		bucket entities.Bucket
		allows []entities.Action
	}{
		{entities.OrderStatusPending, entities.BucketPending, []entities.Action{entities.ActionConfirmOrder, entities.ActionCancelOrder}},
		{entities.OrderStatusConfirmed, entities.BucketPending, []entities.Action{entities.ActionAssignDelivery, entities.ActionCancelOrder}},
		{entities.OrderStatusAssignedToDelivery, entities.BucketPending, []entities.Action{entities.ActionAcceptDelivery, entities.ActionRejectDelivery}},
		{entities.OrderStatusDeliveryAccepted, entities.BucketProcessing, []entities.Action{entities.ActionStartDelivery, entities.ActionRejectDelivery}},
		{entities.OrderStatusOutForDelivery, entities.BucketProcessing, []entities.Action{entities.ActionCompleteDelivery}},
		{entities.OrderStatusDelivered, entities.BucketCompleted, []entities.Action{entities.ActionRequestFeedback}},
		{entities.OrderStatusDeliveryRejected, entities.BucketRejected, []entities.Action{entities.ActionViewOrder}},
		{entities.OrderStatusCancelled, entities.BucketRejected, []entities.Action{entities.ActionViewOrder}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			c := services.Classify(order("o1", tt.status))
			assert.Equal(t, tt.bucket, c.Bucket)
			for _, a := range tt.allows {
				assert.True(t, c.Allows(a), "expected %s", a)
			}
			if tt.status.IsTerminal() {
				assert.False(t, c.Allows(entities.ActionCancelOrder))
			}
		})
	}
}

func TestClassify_OrderActionsMatchWorkflow(t *testing.T) {
	var wf services.DeliveryWorkflow
	for _, status := range []entities.OrderStatus{
		entities.OrderStatusPending, entities.OrderStatusConfirmed, entities.OrderStatusAssignedToDelivery,
		entities.OrderStatusDeliveryAccepted, entities.OrderStatusOutForDelivery,
	} {
		c := services.Classify(order("o1", status))
		for _, a := range c.Actions {
			if a == entities.ActionViewOrder {
				continue
			}
			_, err := wf.Next(status, a)
			assert.NoError(t, err, "%s from %s", a, status)
		}
	}
}

func TestClassify_UnknownFailsSafe(t *testing.T) {
	cases := []entities.Record{
		doctorAppt("d1", "rescheduled", entities.ConsultationOnline, true, baseTime),
		labAppt("l1", "", "", nil),
		order("o1", "lost"),
		nil,
	}
	for _, rec := range cases {
		c := services.Classify(rec)
		assert.Equal(t, entities.BucketPending, c.Bucket)
		assert.Empty(t, c.Actions)
	}
}

func TestClassifyForRole(t *testing.T) {
	t.Run("delivery partner cannot confirm or cancel", func(t *testing.T) {
		c := services.ClassifyForRole(entities.RoleDelivery, order("o1", entities.OrderStatusAssignedToDelivery))
		assert.True(t, c.Allows(entities.ActionAcceptDelivery))
		assert.False(t, c.Allows(entities.ActionCancelOrder))

		c = services.ClassifyForRole(entities.RoleDelivery, order("o1", entities.OrderStatusPending))
		assert.False(t, c.Allows(entities.ActionConfirmOrder))
	})

	t.Run("vendor confirms and assigns", func(t *testing.T) {
		c := services.ClassifyForRole(entities.RoleVendor, order("o1", entities.OrderStatusConfirmed))
		assert.True(t, c.Allows(entities.ActionAssignDelivery))
		assert.True(t, c.Allows(entities.ActionCancelOrder))
		assert.False(t, c.Allows(entities.ActionAcceptDelivery))
	})

	t.Run("patient cancels only pending orders", func(t *testing.T) {
		assert.True(t, services.ClassifyForRole(entities.RolePatient, order("o1", entities.OrderStatusPending)).Allows(entities.ActionCancelOrder))
		assert.False(t, services.ClassifyForRole(entities.RolePatient, order("o1", entities.OrderStatusConfirmed)).Allows(entities.ActionCancelOrder))
	})

	t.Run("patient can cancel a lab booking before collection", func(t *testing.T) {
		c := services.ClassifyForRole(entities.RolePatient, labAppt("l1", entities.LabStatusPending, "", nil))
		assert.Equal(t, []entities.Action{entities.ActionCancel}, c.Actions)

		c = services.ClassifyForRole(entities.RoleLaboratory, labAppt("l1", entities.LabStatusPending, "", nil))
		assert.Equal(t, []entities.Action{entities.ActionSampleCollected}, c.Actions)
	})

	t.Run("patient cannot edit prescriptions", func(t *testing.T) {
		a := doctorAppt("d1", entities.DoctorStatusUpcoming, entities.ConsultationOnline, true, baseTime)
		c := services.ClassifyForRole(entities.RolePatient, a)
		assert.ElementsMatch(t, []entities.Action{entities.ActionJoinNow, entities.ActionCancel}, c.Actions)
	})
}
