package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/docstore"
)

const patientsCollection = "patients"

type repoStore struct {
	patients *docstore.Collection[Patient]
}

func NewRepo(store docstore.Store) Repository {
	return &repoStore{patients: docstore.NewCollection[Patient](store, patientsCollection)}
}

func (r *repoStore) Create(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := r.patients.Insert(ctx, p.ID, p); err != nil {
		if errors.Is(err, docstore.ErrDuplicateID) {
			return apperr.Conflictf("patient %s already exists", p.ID)
		}
		return apperr.Internal(err, "create patient")
	}
	return nil
}

func (r *repoStore) GetByID(ctx context.Context, id string) (*Patient, error) {
	p, err := r.patients.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperr.NotFoundf("patient not found")
		}
		return nil, apperr.Internal(err, "get patient")
	}
	return p, nil
}

func (r *repoStore) GetByCPF(ctx context.Context, cpf string) (*Patient, error) {
	p, err := r.patients.FindOne(ctx, docstore.Filter{"cpf": cpf})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperr.NotFoundf("patient not found")
		}
		return nil, apperr.Internal(err, "get patient by cpf")
	}
	return p, nil
}

func (r *repoStore) Update(ctx context.Context, p *Patient) error {
	if err := r.patients.Replace(ctx, p.ID, p); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperr.NotFoundf("patient not found")
		}
		return apperr.Internal(err, "update patient")
	}
	return nil
}

func (r *repoStore) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.patients.Delete(ctx, id)
	if err != nil {
		return false, apperr.Internal(err, "delete patient")
	}
	return ok, nil
}

func (r *repoStore) List(ctx context.Context) ([]*Patient, error) {
	return r.find(ctx, nil, "list patients")
}

func (r *repoStore) ListByStatus(ctx context.Context, status string) ([]*Patient, error) {
	return r.find(ctx, docstore.Filter{"status": status}, "list patients by status")
}

func (r *repoStore) ListActive(ctx context.Context) ([]*Patient, error) {
	return r.find(ctx, docstore.Filter{"active": true}, "list active patients")
}

func (r *repoStore) find(ctx context.Context, f docstore.Filter, op string) ([]*Patient, error) {
	items, err := r.patients.Find(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, op)
	}
	out := make([]*Patient, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}
