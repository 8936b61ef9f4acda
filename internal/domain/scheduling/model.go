package scheduling

import (
	"time"

	"github.com/ampara/clinic/pkg/optional"
)

// Appointment statuses.
const (
	StatusScheduled  = "Agendado"
	StatusConfirmed  = "Confirmado"
	StatusInProgress = "EmAtendimento"
	StatusCompleted  = "Concluído"
	StatusCancelled  = "Cancelado"
	StatusMissed     = "Faltou"
)

// Appointment types.
const (
	TypeConsultation = "Consulta"
	TypeReturn       = "Retorno"
	TypeAssessment   = "Avaliação"
	TypeSession      = "Sessão"
	TypeEmergency    = "Emergência"
	TypeOther        = "Outros"
)

const DefaultDuration = 60

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusInProgress: true,
	StatusCompleted: true, StatusCancelled: true, StatusMissed: true,
}

var validTypes = map[string]bool{
	TypeConsultation: true, TypeReturn: true, TypeAssessment: true,
	TypeSession: true, TypeEmergency: true, TypeOther: true,
}

// Appointment books a professional for a patient on one calendar date.
// StartTime and EndTime are "HH:mm" wall-clock times.
type Appointment struct {
	ID                 string     `json:"id" bson:"_id"`
	PatientID          string     `json:"patientId" bson:"patientId"`
	PatientName        string     `json:"patientName,omitempty" bson:"patientName,omitempty"`
	ProfessionalID     string     `json:"professionalId" bson:"professionalId"`
	ProfessionalName   string     `json:"professionalName,omitempty" bson:"professionalName,omitempty"`
	Date               time.Time  `json:"date" bson:"date"`
	StartTime          string     `json:"startTime" bson:"startTime"`
	EndTime            string     `json:"endTime" bson:"endTime"`
	Duration           int        `json:"duration" bson:"duration"`
	Type               string     `json:"type" bson:"type"`
	Specialty          string     `json:"specialty,omitempty" bson:"specialty,omitempty"`
	Status             string     `json:"status" bson:"status"`
	Notes              string     `json:"notes,omitempty" bson:"notes,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty" bson:"cancellationReason,omitempty"`
	ReminderSent       bool       `json:"reminderSent" bson:"reminderSent"`
	ReminderDate       *time.Time `json:"reminderDate,omitempty" bson:"reminderDate,omitempty"`
	CreatedAt          time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt" bson:"updatedAt"`
	CreatedBy          string     `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	UpdatedBy          string     `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
}

// calendarDay maps t to midnight UTC of the calendar date it carries in its
// own location, so the same day sent with different offsets compares equal.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (a *Appointment) sameDay(t time.Time) bool {
	return calendarDay(a.Date.UTC()).Equal(calendarDay(t))
}

type CreateRequest struct {
	PatientID        string    `json:"patientId"`
	PatientName      string    `json:"patientName"`
	ProfessionalID   string    `json:"professionalId"`
	ProfessionalName string    `json:"professionalName"`
	Date             time.Time `json:"date"`
	StartTime        string    `json:"startTime"`
	EndTime          string    `json:"endTime"`
	Duration         int       `json:"duration"`
	Type             string    `json:"type"`
	Specialty        string    `json:"specialty"`
	Notes            string    `json:"notes"`
}

// UpdateRequest is a patch; absent fields keep their stored value.
type UpdateRequest struct {
	PatientName      optional.Value[string]    `json:"patientName"`
	ProfessionalName optional.Value[string]    `json:"professionalName"`
	Date             optional.Value[time.Time] `json:"date"`
	StartTime        optional.Value[string]    `json:"startTime"`
	EndTime          optional.Value[string]    `json:"endTime"`
	Duration         optional.Value[int]       `json:"duration"`
	Type             optional.Value[string]    `json:"type"`
	Specialty        optional.Value[string]    `json:"specialty"`
	Status           optional.Value[string]    `json:"status"`
	Notes            optional.Value[string]    `json:"notes"`
	ReminderSent     optional.Value[bool]      `json:"reminderSent"`
	ReminderDate     optional.Value[time.Time] `json:"reminderDate"`
}

func (r UpdateRequest) reschedules() bool {
	return r.Date.Present() || r.StartTime.Present() || r.EndTime.Present()
}

type CancelRequest struct {
	CancellationReason string `json:"cancellationReason"`
}

// Query filters appointments. Empty fields do not filter; date bounds are
// inclusive and compared by calendar day.
type Query struct {
	PatientID      string     `json:"patientId"`
	ProfessionalID string     `json:"professionalId"`
	StartDate      *time.Time `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	Status         string     `json:"status"`
	Type           string     `json:"type"`
}

func (q Query) matches(a *Appointment) bool {
	switch {
	case q.PatientID != "" && a.PatientID != q.PatientID:
		return false
	case q.ProfessionalID != "" && a.ProfessionalID != q.ProfessionalID:
		return false
	case q.StartDate != nil && calendarDay(a.Date.UTC()).Before(calendarDay(*q.StartDate)):
		return false
	case q.EndDate != nil && calendarDay(a.Date.UTC()).After(calendarDay(*q.EndDate)):
		return false
	case q.Status != "" && a.Status != q.Status:
		return false
	case q.Type != "" && a.Type != q.Type:
		return false
	}
	return true
}
