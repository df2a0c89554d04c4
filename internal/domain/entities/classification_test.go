package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionDestructive(t *testing.T) {
	for _, a := range []Action{ActionCancel, ActionCancelOrder, ActionDeletePrescription, ActionDeleteReport, ActionRemovePDF, ActionDeleteAccount} {
		assert.True(t, a.Destructive(), a)
	}
	for _, a := range []Action{ActionSampleCollected, ActionMarkAsRead, ActionSaveReport, ActionAcceptDelivery, ActionRequestFeedback} {
		assert.False(t, a.Destructive(), a)
	}
}

func TestActionLabel(t *testing.T) {
	assert.Equal(t, "Mark as Read", ActionMarkAsRead.Label())
	assert.Equal(t, "dance", Action("dance").Label())
	assert.False(t, Action("dance").Known())
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("user")
	assert.True(t, ok)
	assert.Equal(t, RolePatient, r)

	_, ok = ParseRole("admin")
	assert.False(t, ok)
}

func TestLabReportComplete(t *testing.T) {
	a := &LabAppointment{ReportResult: "  ", TestReportPDFs: []string{""}}
	assert.False(t, a.HasReportText())
	assert.False(t, a.HasReportPDFs())

	a.ReportResult = "Normal"
	assert.False(t, a.ReportComplete())

	a.TestReportPDFs = append(a.TestReportPDFs, "https://cdn.test/r.pdf")
	assert.True(t, a.ReportComplete())
}

func TestMarshalModal(t *testing.T) {
	tests := []struct {
		name  string
		modal ModalState
		want  string
	}{
		{"nil is none", nil, `{"kind":"none"}`},
		{"patient detail", PatientDetailModal{RecordID: "d1"}, `{"kind":"patient_detail","record_id":"d1"}`},
		{
			"report carries draft",
			ReportModal{RecordID: "l1", Draft: ReportDraft{ReportResult: "Normal", PDFs: []string{"u1"}}},
			`{"kind":"report","record_id":"l1","draft":{"report_result":"Normal","pdfs":["u1"],"notes":""}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalModal(tt.modal)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestNotificationBlocking(t *testing.T) {
	assert.True(t, NewNotification("s1", NotificationAlert, SeverityError, "x").Blocking())
	assert.False(t, NewNotification("s1", NotificationToast, SeverityError, "x").Blocking())

	var raw map[string]interface{}
	b, err := json.Marshal(NewNotification("s1", NotificationToast, SeverityInfo, "hi"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "toast", raw["kind"])
	assert.NotEmpty(t, raw["id"])
}

func TestPaymentModeRequiresOnlinePayment(t *testing.T) {
	assert.True(t, PaymentMode("online").RequiresOnlinePayment())
	assert.True(t, PaymentMode("home").RequiresOnlinePayment())
	assert.False(t, PaymentMode("in-person").RequiresOnlinePayment())
	assert.False(t, PaymentMode("cod").RequiresOnlinePayment())
}
