package model

import "fmt"

// AgreementStatus is shared by an agreement's internal and review status.
type AgreementStatus string

// Agreement status constants. Any value may follow any other.
const (
	StatusNotStarted AgreementStatus = "not_started"
	StatusInProgress AgreementStatus = "in_progress"
	StatusStuck      AgreementStatus = "stuck"
	StatusSJReview   AgreementStatus = "sj_review"
	StatusCompleted  AgreementStatus = "completed"
)

// AgreementStatuses lists every valid status in display order.
var AgreementStatuses = []AgreementStatus{
	StatusNotStarted,
	StatusInProgress,
	StatusStuck,
	StatusSJReview,
	StatusCompleted,
}

// Valid reports whether s is one of the known statuses.
func (s AgreementStatus) Valid() bool {
	for _, known := range AgreementStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseAgreementStatus converts a raw string into an AgreementStatus.
func ParseAgreementStatus(raw string) (AgreementStatus, error) {
	s := AgreementStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown agreement status %q", raw)
	}
	return s, nil
}

// StatusField selects which of the two status fields of an agreement
// a status change applies to.
type StatusField string

const (
	FieldStatus   StatusField = "status"
	FieldSJStatus StatusField = "sj_status"
)

// Valid reports whether f names a status field.
func (f StatusField) Valid() bool {
	return f == FieldStatus || f == FieldSJStatus
}

// Agreement is a tracked work item with an internal progress status
// and an independent external review status.
type Agreement struct {
	ID              string          `json:"id" yaml:"id" db:"id"`
	Element         string          `json:"element" yaml:"element" db:"element"`
	Responsible     string          `json:"responsible" yaml:"responsible" db:"responsible"`
	Status          AgreementStatus `json:"status" yaml:"status" db:"status"`
	SJStatus        AgreementStatus `json:"sjStatus" yaml:"sjStatus" db:"sj_status"`
	RequestDate     string          `json:"requestDate" yaml:"requestDate" db:"request_date"`
	DeliveryDate    string          `json:"deliveryDate" yaml:"deliveryDate" db:"delivery_date"`
	Description     string          `json:"description" yaml:"description" db:"description"`
	SJRequest       string          `json:"sjRequest" yaml:"sjRequest" db:"sj_request"`
	Deliverable     string          `json:"deliverable,omitempty" yaml:"deliverable,omitempty" db:"deliverable"`
	DeliverableName string          `json:"deliverableName,omitempty" yaml:"deliverableName,omitempty" db:"deliverable_name"`
	ListID          string          `json:"listId" yaml:"listId" db:"list_id"`
}

// StatusOf returns the value of the selected status field.
func (a Agreement) StatusOf(field StatusField) AgreementStatus {
	if field == FieldSJStatus {
		return a.SJStatus
	}
	return a.Status
}

// WithStatus returns a copy of a with the selected field set to s.
func (a Agreement) WithStatus(field StatusField, s AgreementStatus) Agreement {
	if field == FieldSJStatus {
		a.SJStatus = s
	} else {
		a.Status = s
	}
	return a
}

// AgreementList is the parent grouping of agreements.
type AgreementList struct {
	ID     string `json:"id" yaml:"id" db:"id"`
	Name   string `json:"name" yaml:"name" db:"name"`
	Color  string `json:"color" yaml:"color" db:"color"`
	UserID string `json:"userId" yaml:"userId" db:"user_id"`
}
