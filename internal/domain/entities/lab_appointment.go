package entities

import "time"

// LabAppointmentStatus is the lifecycle status of a laboratory test booking
type LabAppointmentStatus string

const (
	LabStatusPending      LabAppointmentStatus = "pending"
	LabStatusProcessing   LabAppointmentStatus = "processing"
	LabStatusCollected    LabAppointmentStatus = "collected"
	LabStatusCompleted    LabAppointmentStatus = "completed"
	LabStatusMarkedAsRead LabAppointmentStatus = "marked-as-read"
)

// CollectionType is where the sample is collected
type CollectionType string

const (
	CollectionAtLab  CollectionType = "lab"
	CollectionAtHome CollectionType = "home"
)

// LaboratoryRef describes the laboratory and booked test
type LaboratoryRef struct {
	ID      string `json:"_id,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// LabTestRef is the test that was booked
type LabTestRef struct {
	Name  string  `json:"name"`
	Price float64 `json:"price,omitempty"`
}

// LabAppointment is a laboratory test booking
type LabAppointment struct {
	ID                string               `json:"_id"`
	Patient           PartyRef             `json:"patient"`
	Laboratory        LaboratoryRef        `json:"laboratory"`
	Test              LabTestRef           `json:"test"`
	CollectionType    CollectionType       `json:"collectionType"`
	Status            LabAppointmentStatus `json:"status"`
	ReportResult      string               `json:"reportResult,omitempty"`
	TestReportPDFs    []string             `json:"testReportPdfs,omitempty"`
	Notes             string               `json:"notes,omitempty"`
	MarkedAsRead      bool                 `json:"markedAsRead,omitempty"`
	FeedbackRequested bool                 `json:"feedbackRequested"`
	CreatedAt         time.Time            `json:"createdAt"`
	Schedule
	Commerce
}

func (a *LabAppointment) RecordID() string        { return a.ID }
func (a *LabAppointment) RecordDomain() Domain    { return DomainLaboratory }
func (a *LabAppointment) StatusValue() string     { return string(a.Status) }
func (a *LabAppointment) Created() time.Time      { return a.CreatedAt }
func (a *LabAppointment) CounterpartName() string { return a.Patient.Name }
func (a *LabAppointment) Paid() bool              { return a.IsPaid }

// RequiresOnlinePayment is true for home collection
func (a *LabAppointment) RequiresOnlinePayment() bool {
	return a.CollectionType == CollectionAtHome
}

// HasReportText reports whether the result text has been written
func (a *LabAppointment) HasReportText() bool {
	return hasText(a.ReportResult)
}

// HasReportPDFs reports whether at least one report document is attached
func (a *LabAppointment) HasReportPDFs() bool {
	for _, u := range a.TestReportPDFs {
		if hasText(u) {
			return true
		}
	}
	return false
}

// ReportComplete is the gate for acknowledging a report
func (a *LabAppointment) ReportComplete() bool {
	return a.HasReportText() && a.HasReportPDFs()
}
