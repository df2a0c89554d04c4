package entities

import "encoding/json"

// ModalKind discriminates the modal currently open on a screen
type ModalKind string

const (
	ModalNone          ModalKind = "none"
	ModalPatientDetail ModalKind = "patient_detail"
	ModalPrescription  ModalKind = "prescription"
	ModalReport        ModalKind = "report"
	ModalOrderDetail   ModalKind = "order_detail"
)

// ModalState is a closed set of screen modals. Exactly one value is held per
// screen, so two modals cannot be open at the same time.
type ModalState interface {
	Kind() ModalKind
	Subject() string
}

// NoModal means nothing is open
type NoModal struct{}

func (NoModal) Kind() ModalKind { return ModalNone }
func (NoModal) Subject() string { return "" }

// PatientDetailModal shows the counter-party of a record
type PatientDetailModal struct {
	RecordID string
}

func (m PatientDetailModal) Kind() ModalKind { return ModalPatientDetail }
func (m PatientDetailModal) Subject() string { return m.RecordID }

// PrescriptionDraft is the transient form state of the prescription editor
type PrescriptionDraft struct {
	Prescription string `json:"prescription"`
	Notes        string `json:"notes"`
}

// PrescriptionModal edits a doctor appointment's prescription
type PrescriptionModal struct {
	RecordID string
	Draft    PrescriptionDraft
}

func (m PrescriptionModal) Kind() ModalKind { return ModalPrescription }
func (m PrescriptionModal) Subject() string { return m.RecordID }

// ReportDraft is the transient form state of the report editor
type ReportDraft struct {
	ReportResult string   `json:"report_result"`
	PDFs         []string `json:"pdfs"`
	Notes        string   `json:"notes"`
}

// ReportModal edits a lab appointment's report
type ReportModal struct {
	RecordID string
	Draft    ReportDraft
}

func (m ReportModal) Kind() ModalKind { return ModalReport }
func (m ReportModal) Subject() string { return m.RecordID }

// OrderDetailModal shows an order's items and address
type OrderDetailModal struct {
	RecordID string
}

func (m OrderDetailModal) Kind() ModalKind { return ModalOrderDetail }
func (m OrderDetailModal) Subject() string { return m.RecordID }

// MarshalModal renders a modal state with its discriminator
func MarshalModal(m ModalState) ([]byte, error) {
	if m == nil {
		m = NoModal{}
	}
	out := map[string]interface{}{"kind": m.Kind()}
	if id := m.Subject(); id != "" {
		out["record_id"] = id
	}
	switch v := m.(type) {
	case PrescriptionModal:
		out["draft"] = v.Draft
	case ReportModal:
		out["draft"] = v.Draft
	}
	return json.Marshal(out)
}
