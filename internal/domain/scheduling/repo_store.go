package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/docstore"
)

const appointmentsCollection = "appointments"

type appointmentRepoStore struct {
	appointments *docstore.Collection[Appointment]
}

func NewAppointmentRepo(store docstore.Store) AppointmentRepository {
	return &appointmentRepoStore{appointments: docstore.NewCollection[Appointment](store, appointmentsCollection)}
}

func (r *appointmentRepoStore) Create(ctx context.Context, a *Appointment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if err := r.appointments.Insert(ctx, a.ID, a); err != nil {
		if errors.Is(err, docstore.ErrDuplicateID) {
			return apperr.Conflictf("appointment %s already exists", a.ID)
		}
		return apperr.Internal(err, "create appointment")
	}
	return nil
}

func (r *appointmentRepoStore) GetByID(ctx context.Context, id string) (*Appointment, error) {
	a, err := r.appointments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperr.NotFoundf("appointment not found")
		}
		return nil, apperr.Internal(err, "get appointment")
	}
	return a, nil
}

func (r *appointmentRepoStore) Update(ctx context.Context, a *Appointment) error {
	if err := r.appointments.Replace(ctx, a.ID, a); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperr.NotFoundf("appointment not found")
		}
		return apperr.Internal(err, "update appointment")
	}
	return nil
}

func (r *appointmentRepoStore) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.appointments.Delete(ctx, id)
	if err != nil {
		return false, apperr.Internal(err, "delete appointment")
	}
	return ok, nil
}

func (r *appointmentRepoStore) List(ctx context.Context) ([]*Appointment, error) {
	return r.find(ctx, nil, "list appointments")
}

func (r *appointmentRepoStore) ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	return r.find(ctx, docstore.Filter{"patientId": patientID}, "list appointments by patient")
}

func (r *appointmentRepoStore) ListByProfessional(ctx context.Context, professionalID string) ([]*Appointment, error) {
	return r.find(ctx, docstore.Filter{"professionalId": professionalID}, "list appointments by professional")
}

func (r *appointmentRepoStore) find(ctx context.Context, f docstore.Filter, op string) ([]*Appointment, error) {
	items, err := r.appointments.Find(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, op)
	}
	out := make([]*Appointment, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}
