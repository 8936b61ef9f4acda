package clinical

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/auth"
)

type Service struct {
	evolutions EvolutionRepository
	reports    MedicalReportRepository
	now        func() time.Time
}

func NewService(evolutions EvolutionRepository, reports MedicalReportRepository) *Service {
	return &Service{evolutions: evolutions, reports: reports, now: time.Now}
}

// -- Evolution --

// CreateEvolution records an evolution. attendedBy defaults to the caller's
// name and date to now.
func (s *Service) CreateEvolution(ctx context.Context, req EvolutionRequest, caller auth.Identity) (*Evolution, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, apperr.Validation("patientId is required")
	}
	e := &Evolution{}
	req.applyTo(e)
	e.AttendedBy = req.AttendedBy
	if e.AttendedBy == "" {
		e.AttendedBy = caller.Name
	}
	now := s.now()
	e.CreatedAt = now
	e.UpdatedAt = &now
	if e.Date.IsZero() {
		e.Date = e.CreatedAt
	}
	if err := s.evolutions.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) GetEvolution(ctx context.Context, id string) (*Evolution, error) {
	return s.evolutions.GetByID(ctx, id)
}

// ListEvolutions returns every evolution, most recent first.
func (s *Service) ListEvolutions(ctx context.Context) ([]*Evolution, error) {
	items, err := s.evolutions.List(ctx)
	if err != nil {
		return nil, err
	}
	sortEvolutionsRecentFirst(items)
	return items, nil
}

func (s *Service) ListEvolutionsByPatient(ctx context.Context, patientID string) ([]*Evolution, error) {
	items, err := s.evolutions.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	sortEvolutionsRecentFirst(items)
	return items, nil
}

// UpdateEvolution replaces the writable fields. createdAt and attendedBy
// keep their stored values.
func (s *Service) UpdateEvolution(ctx context.Context, id string, req EvolutionRequest) (*Evolution, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, apperr.Validation("patientId is required")
	}
	e, err := s.evolutions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	date := e.Date
	req.applyTo(e)
	if e.Date.IsZero() {
		e.Date = date
	}
	now := s.now()
	e.UpdatedAt = &now
	if err := s.evolutions.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEvolution reports false when the evolution does not exist.
func (s *Service) DeleteEvolution(ctx context.Context, id string) (bool, error) {
	return s.evolutions.Delete(ctx, id)
}

func sortEvolutionsRecentFirst(items []*Evolution) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date)
	})
}

// -- Medical report --

// CreateMedicalReport fails with a conflict when the patient already has a
// report.
func (s *Service) CreateMedicalReport(ctx context.Context, req MedicalReportRequest, caller auth.Identity) (*MedicalReport, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, apperr.Validation("patientId is required")
	}
	exists, err := s.reports.ExistsForPatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflictf("patient already has a medical report")
	}

	m := &MedicalReport{}
	req.applyTo(m)
	now := s.now()
	m.CreatedAt = now
	m.UpdatedAt = &now
	m.CreatedBy = caller.UserID
	m.UpdatedBy = caller.UserID
	if err := s.reports.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) GetMedicalReport(ctx context.Context, id string) (*MedicalReport, error) {
	return s.reports.GetByID(ctx, id)
}

// GetMedicalReportByPatient returns the patient's most recent report.
func (s *Service) GetMedicalReportByPatient(ctx context.Context, patientID string) (*MedicalReport, error) {
	items, err := s.reports.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.NotFoundf("medical report not found")
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items[0], nil
}

// UpdateMedicalReport replaces the writable fields. createdAt and createdBy
// keep their stored values.
func (s *Service) UpdateMedicalReport(ctx context.Context, id string, req MedicalReportRequest, caller auth.Identity) (*MedicalReport, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, apperr.Validation("patientId is required")
	}
	m, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.applyTo(m)
	now := s.now()
	m.UpdatedAt = &now
	m.UpdatedBy = caller.UserID
	if err := s.reports.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMedicalReport reports false when the report does not exist.
func (s *Service) DeleteMedicalReport(ctx context.Context, id string) (bool, error) {
	return s.reports.Delete(ctx, id)
}
