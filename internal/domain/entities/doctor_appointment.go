package entities

import "time"

// DoctorAppointmentStatus is the lifecycle status of a doctor consultation
type DoctorAppointmentStatus string

const (
	DoctorStatusUpcoming  DoctorAppointmentStatus = "upcoming"
	DoctorStatusCompleted DoctorAppointmentStatus = "completed"
)

// ConsultationType is the mode of a doctor consultation
type ConsultationType string

const (
	ConsultationOnline   ConsultationType = "online"
	ConsultationInPerson ConsultationType = "in-person"
)

// DoctorRef describes the doctor side of an appointment
type DoctorRef struct {
	ID              string  `json:"_id,omitempty"`
	Name            string  `json:"name"`
	Specialization  string  `json:"specialization,omitempty"`
	ConsultationFee float64 `json:"consultationFee,omitempty"`
	ClinicAddress   string  `json:"clinicAddress,omitempty"`
}

// DoctorAppointment is a consultation booked with a doctor
type DoctorAppointment struct {
	ID                string                  `json:"_id"`
	Patient           PartyRef                `json:"patient"`
	Doctor            DoctorRef               `json:"doctor"`
	ConsultationType  ConsultationType        `json:"consultationType"`
	Status            DoctorAppointmentStatus `json:"status"`
	Prescription      string                  `json:"prescription,omitempty"`
	PrescriptionSent  bool                    `json:"prescriptionSent"`
	Notes             string                  `json:"notes,omitempty"`
	Documents         []string                `json:"documents,omitempty"`
	MeetingLink       string                  `json:"meetingLink,omitempty"`
	FeedbackRequested bool                    `json:"feedbackRequested"`
	CreatedAt         time.Time               `json:"createdAt"`
	Schedule
	Commerce
}

func (a *DoctorAppointment) RecordID() string        { return a.ID }
func (a *DoctorAppointment) RecordDomain() Domain    { return DomainDoctor }
func (a *DoctorAppointment) StatusValue() string     { return string(a.Status) }
func (a *DoctorAppointment) Created() time.Time      { return a.CreatedAt }
func (a *DoctorAppointment) CounterpartName() string { return a.Patient.Name }
func (a *DoctorAppointment) Paid() bool              { return a.IsPaid }

// RequiresOnlinePayment is true for online consultations
func (a *DoctorAppointment) RequiresOnlinePayment() bool {
	return a.ConsultationType == ConsultationOnline
}

// HasPrescription reports whether prescription text has been written
func (a *DoctorAppointment) HasPrescription() bool {
	return hasText(a.Prescription)
}
