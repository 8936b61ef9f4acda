package clinical

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/docstore"
)

const (
	evolutionsCollection     = "evolutions"
	medicalReportsCollection = "medical_reports"
)

// docRepo holds the CRUD shared by the evolution and medical report
// repositories. id returns a pointer to the document's id field.
type docRepo[T any] struct {
	coll *docstore.Collection[T]
	noun string
	id   func(*T) *string
}

func (r *docRepo[T]) create(ctx context.Context, doc *T) error {
	id := r.id(doc)
	if *id == "" {
		*id = uuid.New().String()
	}
	if err := r.coll.Insert(ctx, *id, doc); err != nil {
		if errors.Is(err, docstore.ErrDuplicateID) {
			return apperr.Conflictf("%s %s already exists", r.noun, *id)
		}
		return apperr.Internal(err, "create "+r.noun)
	}
	return nil
}

func (r *docRepo[T]) get(ctx context.Context, id string) (*T, error) {
	doc, err := r.coll.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperr.NotFoundf("%s not found", r.noun)
		}
		return nil, apperr.Internal(err, "get "+r.noun)
	}
	return doc, nil
}

func (r *docRepo[T]) update(ctx context.Context, doc *T) error {
	if err := r.coll.Replace(ctx, *r.id(doc), doc); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperr.NotFoundf("%s not found", r.noun)
		}
		return apperr.Internal(err, "update "+r.noun)
	}
	return nil
}

func (r *docRepo[T]) delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.coll.Delete(ctx, id)
	if err != nil {
		return false, apperr.Internal(err, "delete "+r.noun)
	}
	return ok, nil
}

func (r *docRepo[T]) exists(ctx context.Context, f docstore.Filter) (bool, error) {
	ok, err := r.coll.Exists(ctx, f)
	if err != nil {
		return false, apperr.Internal(err, "check "+r.noun)
	}
	return ok, nil
}

func (r *docRepo[T]) find(ctx context.Context, f docstore.Filter) ([]*T, error) {
	items, err := r.coll.Find(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, "list "+r.noun)
	}
	out := make([]*T, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

type evolutionRepoStore struct {
	docs docRepo[Evolution]
}

func NewEvolutionRepo(store docstore.Store) EvolutionRepository {
	return &evolutionRepoStore{docs: docRepo[Evolution]{
		coll: docstore.NewCollection[Evolution](store, evolutionsCollection),
		noun: "evolution",
		id:   func(e *Evolution) *string { return &e.ID },
	}}
}

func (r *evolutionRepoStore) Create(ctx context.Context, e *Evolution) error {
	return r.docs.create(ctx, e)
}

func (r *evolutionRepoStore) GetByID(ctx context.Context, id string) (*Evolution, error) {
	return r.docs.get(ctx, id)
}

func (r *evolutionRepoStore) Update(ctx context.Context, e *Evolution) error {
	return r.docs.update(ctx, e)
}

func (r *evolutionRepoStore) Delete(ctx context.Context, id string) (bool, error) {
	return r.docs.delete(ctx, id)
}

func (r *evolutionRepoStore) List(ctx context.Context) ([]*Evolution, error) {
	return r.docs.find(ctx, nil)
}

func (r *evolutionRepoStore) ListByPatient(ctx context.Context, patientID string) ([]*Evolution, error) {
	return r.docs.find(ctx, docstore.Filter{"patientId": patientID})
}

type medicalReportRepoStore struct {
	docs docRepo[MedicalReport]
}

func NewMedicalReportRepo(store docstore.Store) MedicalReportRepository {
	return &medicalReportRepoStore{docs: docRepo[MedicalReport]{
		coll: docstore.NewCollection[MedicalReport](store, medicalReportsCollection),
		noun: "medical report",
		id:   func(m *MedicalReport) *string { return &m.ID },
	}}
}

func (r *medicalReportRepoStore) Create(ctx context.Context, m *MedicalReport) error {
	return r.docs.create(ctx, m)
}

func (r *medicalReportRepoStore) GetByID(ctx context.Context, id string) (*MedicalReport, error) {
	return r.docs.get(ctx, id)
}

func (r *medicalReportRepoStore) Update(ctx context.Context, m *MedicalReport) error {
	return r.docs.update(ctx, m)
}

func (r *medicalReportRepoStore) Delete(ctx context.Context, id string) (bool, error) {
	return r.docs.delete(ctx, id)
}

func (r *medicalReportRepoStore) List(ctx context.Context) ([]*MedicalReport, error) {
	return r.docs.find(ctx, nil)
}

func (r *medicalReportRepoStore) ListByPatient(ctx context.Context, patientID string) ([]*MedicalReport, error) {
	return r.docs.find(ctx, docstore.Filter{"patientId": patientID})
}

func (r *medicalReportRepoStore) ExistsForPatient(ctx context.Context, patientID string) (bool, error) {
	return r.docs.exists(ctx, docstore.Filter{"patientId": patientID})
}
