package patient

import (
	"context"
	"strings"
	"time"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/events"
	"github.com/ampara/clinic/pkg/optional"
)

type Service struct {
	patients Repository
	events   events.Publisher
	now      func() time.Time
}

func NewService(patients Repository, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{patients: patients, events: pub, now: time.Now}
}

// Create registers a patient. registeredBy is the id of the calling user.
func (s *Service) Create(ctx context.Context, req CreateRequest, registeredBy string) (*Patient, error) {
	cpf := NormalizeCPF(req.CPF)
	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, apperr.Validation("name is required")
	case cpf == "":
		return nil, apperr.Validation("cpf is required")
	case req.BirthDate == nil || req.BirthDate.IsZero():
		return nil, apperr.Validation("birthDate is required")
	case strings.TrimSpace(req.Gender) == "":
		return nil, apperr.Validation("gender is required")
	case strings.TrimSpace(req.Phone) == "":
		return nil, apperr.Validation("phone is required")
	}
	if err := s.ensureCPFFree(ctx, cpf, ""); err != nil {
		return nil, err
	}

	now := s.now()
	next := now.AddDate(0, 3, 0)
	p := &Patient{
		Name:              strings.TrimSpace(req.Name),
		CPF:               cpf,
		RG:                req.RG,
		BirthDate:         *req.BirthDate,
		Gender:            req.Gender,
		MaritalStatus:     req.MaritalStatus,
		Phone:             req.Phone,
		SecondaryPhone:    req.SecondaryPhone,
		Email:             req.Email,
		Address:           req.Address,
		Cancer:            req.Cancer,
		Medications:       req.Medications,
		SUSCard:           req.SUSCard,
		HospitalCard:      req.HospitalCard,
		FamilyIncome:      req.FamilyIncome,
		NumberOfResidents: req.NumberOfResidents,
		FamilyComposition: req.FamilyComposition,
		RegistrationDate:  now,
		NextReviewDate:    &next,
		Status:            req.Status,
		Active:            true,
		TreatmentYear:     req.TreatmentYear,
		FiveYears:         req.FiveYears,
		DeathDate:         req.DeathDate,
		AuthorizeImage:    req.AuthorizeImage,
		Notes:             req.Notes,
		RegisteredByID:    registeredBy,
	}
	if p.Status == "" {
		p.Status = DefaultStatus
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if req.MedicalHistory != nil {
		p.MedicalHistory = *req.MedicalHistory
	}
	if req.Documents != nil {
		p.Documents = *req.Documents
	}
	p.normalize()

	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, events.New(events.PatientCreated, p.ID, registeredBy, map[string]string{"status": p.Status}))
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

func (s *Service) ListByStatus(ctx context.Context, status string) ([]*Patient, error) {
	if strings.TrimSpace(status) == "" {
		return nil, apperr.Validation("status is required")
	}
	return s.patients.ListByStatus(ctx, status)
}

func (s *Service) ListActive(ctx context.Context) ([]*Patient, error) {
	return s.patients.ListActive(ctx)
}

// Update applies a patch. Address, medical history, medications, family
// composition and documents are replaced as a whole; cancer data is merged.
// Every update counts as a review.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyRequired(&p.Name, req.Name, "name"); err != nil {
		return nil, err
	}
	if err := applyRequired(&p.Gender, req.Gender, "gender"); err != nil {
		return nil, err
	}
	if err := applyRequired(&p.Phone, req.Phone, "phone"); err != nil {
		return nil, err
	}
	if cpf, ok := req.CPF.Get(); ok {
		cpf = NormalizeCPF(cpf)
		if cpf == "" {
			return nil, apperr.Validation("cpf cannot be empty")
		}
		if cpf != p.CPF {
			if err := s.ensureCPFFree(ctx, cpf, p.ID); err != nil {
				return nil, err
			}
		}
		p.CPF = cpf
	}
	if bd, ok := req.BirthDate.Get(); ok {
		if bd.IsZero() {
			return nil, apperr.Validation("birthDate cannot be empty")
		}
		p.BirthDate = bd
	}

	req.RG.Apply(&p.RG)
	req.MaritalStatus.Apply(&p.MaritalStatus)
	req.SecondaryPhone.Apply(&p.SecondaryPhone)
	req.Email.Apply(&p.Email)
	req.SUSCard.Apply(&p.SUSCard)
	req.HospitalCard.Apply(&p.HospitalCard)
	req.Status.Apply(&p.Status)
	req.Active.Apply(&p.Active)
	req.FiveYears.Apply(&p.FiveYears)
	req.AuthorizeImage.Apply(&p.AuthorizeImage)
	req.Notes.Apply(&p.Notes)
	req.FamilyIncome.ApplyPtr(&p.FamilyIncome)
	req.NumberOfResidents.ApplyPtr(&p.NumberOfResidents)
	req.TreatmentYear.ApplyPtr(&p.TreatmentYear)
	req.DeathDate.ApplyPtr(&p.DeathDate)
	req.Address.ApplyPtr(&p.Address)
	req.MedicalHistory.Apply(&p.MedicalHistory)
	req.Medications.Apply(&p.Medications)
	req.FamilyComposition.Apply(&p.FamilyComposition)
	req.Documents.Apply(&p.Documents)
	if patch, ok := req.Cancer.Get(); ok {
		p.Cancer = mergeCancer(p.Cancer, patch)
	} else if req.Cancer.Null {
		p.Cancer = nil
	}

	now := s.now()
	p.LastReviewDate = &now
	p.normalize()

	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	ok, err := s.patients.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("patient not found")
	}
	_ = s.events.Publish(ctx, events.New(events.PatientDeleted, id, actorID, nil))
	return nil
}

func (s *Service) ensureCPFFree(ctx context.Context, cpf, selfID string) error {
	existing, err := s.patients.GetByCPF(ctx, cpf)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return apperr.Conflictf("CPF already registered")
	}
	return nil
}

func applyRequired(dst *string, v optional.Value[string], field string) error {
	s, ok := v.Get()
	if !ok {
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return apperr.Validationf("%s cannot be empty", field)
	}
	*dst = strings.TrimSpace(s)
	return nil
}

func mergeCancer(cur *Cancer, patch CancerPatch) *Cancer {
	c := Cancer{}
	if cur != nil {
		c = *cur
	}
	patch.Type.Apply(&c.Type)
	patch.Stage.Apply(&c.Stage)
	patch.CurrentTreatment.Apply(&c.CurrentTreatment)
	patch.TreatmentLocation.Apply(&c.TreatmentLocation)
	patch.DetectionDate.ApplyPtr(&c.DetectionDate)
	patch.TreatmentStartDate.ApplyPtr(&c.TreatmentStartDate)
	patch.HasBiopsyResult.Apply(&c.HasBiopsyResult)
	return &c
}

// normalize fills defaults and non-nil collections before storing.
func (p *Patient) normalize() {
	if p.Address != nil {
		p.Address.applyDefaults()
	}
	if p.Cancer != nil && p.Cancer.TreatmentLocation == "" {
		p.Cancer.TreatmentLocation = DefaultTreatmentLocation
	}
	if p.Medications == nil {
		p.Medications = []Medication{}
	}
	if p.FamilyComposition == nil {
		p.FamilyComposition = []FamilyComposition{}
	}
}
