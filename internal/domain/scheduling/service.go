package scheduling

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/events"
)

var errUnavailable = apperr.Conflictf("professional is not available at this time")

type Service struct {
	appointments AppointmentRepository
	events       events.Publisher
	now          func() time.Time
}

func NewService(appointments AppointmentRepository, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{appointments: appointments, events: pub, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateRequest, actorID string) (*Appointment, error) {
	switch {
	case strings.TrimSpace(req.PatientID) == "":
		return nil, apperr.Validation("patientId is required")
	case strings.TrimSpace(req.ProfessionalID) == "":
		return nil, apperr.Validation("professionalId is required")
	case req.Date.IsZero():
		return nil, apperr.Validation("date is required")
	case req.Duration < 0:
		return nil, apperr.Validation("duration cannot be negative")
	}
	if req.Type != "" && !validTypes[req.Type] {
		return nil, apperr.Validationf("invalid appointment type %q", req.Type)
	}
	req.Date = calendarDay(req.Date)

	ok, err := s.CheckAvailability(ctx, req.ProfessionalID, req.Date, req.StartTime, req.EndTime, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errUnavailable
	}

	now := s.now()
	a := &Appointment{
		PatientID:        req.PatientID,
		PatientName:      req.PatientName,
		ProfessionalID:   req.ProfessionalID,
		ProfessionalName: req.ProfessionalName,
		Date:             req.Date,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Duration:         req.Duration,
		Type:             req.Type,
		Specialty:        req.Specialty,
		Status:           StatusScheduled,
		Notes:            req.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
		CreatedBy:        actorID,
	}
	if a.Duration == 0 {
		a.Duration = DefaultDuration
	}
	if a.Type == "" {
		a.Type = TypeConsultation
	}

	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, events.New(events.AppointmentCreated, a.ID, actorID, map[string]any{
		"patientId":      a.PatientID,
		"professionalId": a.ProfessionalID,
		"date":           a.Date,
		"startTime":      a.StartTime,
		"endTime":        a.EndTime,
	}))
	return a, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// List returns every appointment in chronological order.
func (s *Service) List(ctx context.Context) ([]*Appointment, error) {
	items, err := s.appointments.List(ctx)
	if err != nil {
		return nil, err
	}
	sortChronological(items)
	return items, nil
}

// ListByPatient returns the patient's appointments, most recent first.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	items, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	sortRecentFirst(items)
	return items, nil
}

func (s *Service) ListByProfessional(ctx context.Context, professionalID string) ([]*Appointment, error) {
	items, err := s.appointments.ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	sortChronological(items)
	return items, nil
}

func (s *Service) Query(ctx context.Context, q Query) ([]*Appointment, error) {
	var (
		items []*Appointment
		err   error
	)
	switch {
	case q.ProfessionalID != "":
		items, err = s.appointments.ListByProfessional(ctx, q.ProfessionalID)
	case q.PatientID != "":
		items, err = s.appointments.ListByPatient(ctx, q.PatientID)
	default:
		items, err = s.appointments.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*Appointment, 0, len(items))
	for _, a := range items {
		if q.matches(a) {
			out = append(out, a)
		}
	}
	sortChronological(out)
	return out, nil
}

// Update applies a patch. Availability is re-checked, with the appointment
// itself excluded, when the date or either time changes or when a cancelled
// appointment is moved back to an active status.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest, actorID string) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	st, hasStatus := req.Status.Get()
	if hasStatus && !validStatuses[st] {
		return nil, apperr.Validationf("invalid appointment status %q", st)
	}
	reactivates := hasStatus && a.Status == StatusCancelled && st != StatusCancelled

	if req.reschedules() || reactivates {
		date, start, end := a.Date, a.StartTime, a.EndTime
		req.Date.Apply(&date)
		req.StartTime.Apply(&start)
		req.EndTime.Apply(&end)
		if date.IsZero() {
			return nil, apperr.Validation("date cannot be empty")
		}
		date = calendarDay(date)
		ok, err := s.CheckAvailability(ctx, a.ProfessionalID, date, start, end, a.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errUnavailable
		}
		a.Date, a.StartTime, a.EndTime = date, start, end
	}

	if d, ok := req.Duration.Get(); ok {
		if d <= 0 {
			return nil, apperr.Validation("duration must be positive")
		}
		a.Duration = d
	}
	if t, ok := req.Type.Get(); ok {
		if !validTypes[t] {
			return nil, apperr.Validationf("invalid appointment type %q", t)
		}
		a.Type = t
	}
	if hasStatus {
		a.Status = st
	}
	req.PatientName.Apply(&a.PatientName)
	req.ProfessionalName.Apply(&a.ProfessionalName)
	req.Specialty.Apply(&a.Specialty)
	req.Notes.Apply(&a.Notes)
	req.ReminderSent.Apply(&a.ReminderSent)
	req.ReminderDate.ApplyPtr(&a.ReminderDate)

	a.UpdatedBy = actorID
	a.UpdatedAt = s.now()
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel marks the appointment cancelled. A reason is mandatory.
func (s *Service) Cancel(ctx context.Context, id, reason, actorID string) (*Appointment, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("cancellationReason is required")
	}
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.Status = StatusCancelled
	a.CancellationReason = reason
	a.UpdatedBy = actorID
	a.UpdatedAt = s.now()
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, events.New(events.AppointmentCancelled, a.ID, actorID, map[string]string{
		"reason": reason,
	}))
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.appointments.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("appointment not found")
	}
	return nil
}

func sortChronological(items []*Appointment) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].StartTime < items[j].StartTime
	})
}

func sortRecentFirst(items []*Appointment) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].StartTime > items[j].StartTime
	})
}
