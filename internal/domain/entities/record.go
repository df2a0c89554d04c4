package entities

import (
	"strings"
	"time"
)

// Domain identifies which kind of booking a record represents
type Domain string

const (
	DomainDoctor     Domain = "doctor"
	DomainLaboratory Domain = "laboratory"
	DomainDelivery   Domain = "delivery"
)

// Record is the part of every booking that dashboards need regardless of domain
type Record interface {
	RecordID() string
	RecordDomain() Domain
	StatusValue() string
	Created() time.Time
	CounterpartName() string
	// RequiresOnlinePayment reports whether the booking mode needs upfront online payment
	RequiresOnlinePayment() bool
	Paid() bool
}

// PartyRef is the patient or customer side of a booking
type PartyRef struct {
	ID             string   `json:"_id,omitempty"`
	Name           string   `json:"name"`
	Email          string   `json:"email,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	ProfileImage   string   `json:"profileImage,omitempty"`
	MedicalHistory []string `json:"medicalHistory,omitempty"`
}

// Commerce holds the payment fields shared by every booking
type Commerce struct {
	IsPaid           bool    `json:"isPaid"`
	IsCashOnDelivery bool    `json:"isCashOnDelivery,omitempty"`
	Total            float64 `json:"totalAmount,omitempty"`
}

// Schedule pairs the machine instant with the server-formatted display string
type Schedule struct {
	TimeSlot        time.Time `json:"timeSlot"`
	TimeSlotDisplay string    `json:"timeSlotDisplay"`
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Scheduled is implemented by records that carry a time slot
type Scheduled interface {
	Slot() (time.Time, string)
}

// Slot returns the instant and the server display string
func (s Schedule) Slot() (time.Time, string) {
	return s.TimeSlot, s.TimeSlotDisplay
}

// IsNilRecord is true for a nil interface and for a nil pointer of any record
// variant, which is what a JSON null array element decodes to
func IsNilRecord(r Record) bool {
	switch v := r.(type) {
	case nil:
		return true
	case *DoctorAppointment:
		return v == nil
	case *LabAppointment:
		return v == nil
	case *DeliveryOrder:
		return v == nil
	}
	return false
}
