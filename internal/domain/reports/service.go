package reports

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ampara/clinic/internal/domain/clinical"
	"github.com/ampara/clinic/internal/domain/patient"
	"github.com/ampara/clinic/internal/domain/scheduling"
	"github.com/ampara/clinic/internal/platform/apperr"
)

const topDiagnosesLimit = 10

type PatientSource interface {
	GetByID(ctx context.Context, id string) (*patient.Patient, error)
	List(ctx context.Context) ([]*patient.Patient, error)
}

type EvolutionSource interface {
	List(ctx context.Context) ([]*clinical.Evolution, error)
	ListByPatient(ctx context.Context, patientID string) ([]*clinical.Evolution, error)
}

type MedicalReportSource interface {
	List(ctx context.Context) ([]*clinical.MedicalReport, error)
	ListByPatient(ctx context.Context, patientID string) ([]*clinical.MedicalReport, error)
}

type AppointmentSource interface {
	ListByPatient(ctx context.Context, patientID string) ([]*scheduling.Appointment, error)
}

// Service aggregates stored records into reports. All aggregation happens in
// process over full collection reads.
type Service struct {
	patients     PatientSource
	evolutions   EvolutionSource
	reports      MedicalReportSource
	appointments AppointmentSource
	now          func() time.Time
}

func NewService(patients PatientSource, evolutions EvolutionSource, reports MedicalReportSource, appointments AppointmentSource) *Service {
	return &Service{
		patients:     patients,
		evolutions:   evolutions,
		reports:      reports,
		appointments: appointments,
		now:          time.Now,
	}
}

func (s *Service) GeneratePatientReport(ctx context.Context, req PatientReportRequest) (*PatientReport, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, apperr.Validation("patientId is required")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, apperr.Validation("endDate must not be before startDate")
	}
	p, err := s.patients.GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	report := &PatientReport{
		Patient: PatientInfo{
			ID:        p.ID,
			Name:      p.Name,
			CPF:       p.CPF,
			BirthDate: p.BirthDate,
			Age:       Age(p.BirthDate, now),
			Gender:    p.Gender,
			Phone:     p.Phone,
			Email:     p.Email,
		},
		Evolutions:         []EvolutionSummary{},
		Appointments:       []AppointmentSummary{},
		AnthropometricData: []AnthropometricPoint{},
		Comments:           req.Comments,
		GeneratedAt:        now.UTC(),
		Period:             Period{StartDate: req.StartDate, EndDate: req.EndDate},
	}
	if req.StartDate != nil && req.EndDate != nil {
		report.Period.TotalDays = wholeDays(*req.StartDate, *req.EndDate)
	}

	if include(req.IncludeMedicalHistory) {
		if report.MedicalHistory, err = s.medicalHistory(ctx, p.ID); err != nil {
			return nil, err
		}
	}

	var evolutions []*clinical.Evolution
	if include(req.IncludeEvolutions) || include(req.IncludeAnthropometricData) {
		all, err := s.evolutions.ListByPatient(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range all {
			if req.inRange(e.Date) {
				evolutions = append(evolutions, e)
			}
		}
	}

	if include(req.IncludeEvolutions) {
		sorted := append([]*clinical.Evolution(nil), evolutions...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
		for _, e := range sorted {
			report.Evolutions = append(report.Evolutions, EvolutionSummary{
				ID:               e.ID,
				Date:             e.Date,
				ProfessionalName: orDefault(e.AttendedBy, "N/A"),
				ProfessionalRole: orDefault(e.Type, "N/A"),
				SubjectiveData:   e.ChiefComplaint,
				ObjectiveData:    e.PhysicalExam,
				Assessment:       e.Assessment,
				Plan:             e.Conduct,
				Notes:            e.Notes,
			})
		}
	}

	if include(req.IncludeAppointments) {
		appts, err := s.appointments.ListByPatient(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(appts, func(i, j int) bool { return appts[i].Date.After(appts[j].Date) })
		for _, a := range appts {
			if !req.inRange(a.Date) {
				continue
			}
			report.Appointments = append(report.Appointments, AppointmentSummary{
				ID:               a.ID,
				Date:             a.Date,
				StartTime:        a.StartTime,
				ProfessionalName: a.ProfessionalName,
				Type:             a.Type,
				Status:           a.Status,
				Notes:            a.Notes,
			})
		}
	}

	if include(req.IncludeAnthropometricData) {
		sorted := append([]*clinical.Evolution(nil), evolutions...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
		for _, e := range sorted {
			if e.VitalSigns == nil {
				continue
			}
			report.AnthropometricData = append(report.AnthropometricData, AnthropometricPoint{
				Date:   e.Date,
				Weight: e.VitalSigns.Weight,
				Height: e.VitalSigns.Height,
				BMI:    BMI(e.VitalSigns.Weight, e.VitalSigns.Height),
			})
		}
	}

	report.Statistics = statistics(report)
	return report, nil
}

func (s *Service) medicalHistory(ctx context.Context, patientID string) (*MedicalHistorySummary, error) {
	items, err := s.reports.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	latest := items[0]
	return &MedicalHistorySummary{
		MainComplaint:         latest.Diagnosis,
		CurrentIllnessHistory: latest.GeneralNotes,
		ChronicDiseases:       splitList(latest.Comorbidities),
		Medications:           splitList(latest.Medications),
		Allergies:             splitList(latest.Allergies),
		FamilyHistory:         latest.FamilyHistory,
	}, nil
}

func statistics(r *PatientReport) Statistics {
	st := Statistics{
		TotalEvolutions:      len(r.Evolutions),
		TotalAppointments:    len(r.Appointments),
		AppointmentsByStatus: map[string]int{},
		EvolutionsByType:     map[string]int{},
	}
	for _, a := range r.Appointments {
		st.AppointmentsByStatus[a.Status]++
		switch a.Status {
		case scheduling.StatusCompleted:
			st.CompletedAppointments++
		case scheduling.StatusCancelled:
			st.CancelledAppointments++
		case scheduling.StatusMissed:
			st.MissedAppointments++
		}
	}
	for _, e := range r.Evolutions {
		st.EvolutionsByType[e.ProfessionalRole]++
	}

	if n := len(r.AnthropometricData); n >= 2 {
		first, last := r.AnthropometricData[0], r.AnthropometricData[n-1]
		if first.Weight != nil && last.Weight != nil {
			v := *last.Weight - *first.Weight
			st.WeightChange = &v
		}
		if first.BMI != nil && last.BMI != nil {
			v := *last.BMI - *first.BMI
			st.BMIChange = &v
		}
		st.DaysInTreatment = wholeDays(first.Date, last.Date)
	}
	return st
}

func (s *Service) GenerateConsolidatedReport(ctx context.Context, req ConsolidatedReportRequest) (*ConsolidatedReport, error) {
	if req.StartDate == nil || req.EndDate == nil {
		return nil, apperr.Validation("startDate and endDate are required")
	}
	start, end := *req.StartDate, *req.EndDate
	if end.Before(start) {
		return nil, apperr.Validation("endDate must not be before startDate")
	}
	within := func(t time.Time) bool { return !t.Before(start) && !t.After(end) }

	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, err
	}
	evolutions, err := s.evolutions.List(ctx)
	if err != nil {
		return nil, err
	}
	medicalReports, err := s.reports.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &ConsolidatedReport{
		StartDate:                  start,
		EndDate:                    end,
		TotalPatients:              len(patients),
		AppointmentsByProfessional: map[string]int{},
		AppointmentsByType:         map[string]int{},
		PatientsByGender:           map[string]int{},
		PatientsByAgeGroup:         map[string]int{},
		TopDiagnoses:               topDiagnoses(medicalReports),
		GeneratedAt:                now.UTC(),
	}

	for _, p := range patients {
		if within(p.RegistrationDate) {
			out.NewPatients++
		}
		out.PatientsByGender[orDefault(p.Gender, notInformed)]++
		out.PatientsByAgeGroup[ageGroup(Age(p.BirthDate, now))]++
	}

	// Each evolution in the period counts as one attendance.
	for _, e := range evolutions {
		if !within(e.Date) {
			continue
		}
		out.TotalEvolutions++
		out.AppointmentsByProfessional[orDefault(e.AttendedBy, notInformed)]++
		out.AppointmentsByType[orDefault(e.Type, notInformed)]++
	}
	out.TotalAppointments = out.TotalEvolutions
	return out, nil
}

func topDiagnoses(reports []*clinical.MedicalReport) []Diagnosis {
	type bucket struct {
		label string
		count int
	}
	buckets := map[string]*bucket{}
	total := 0
	for _, r := range reports {
		d := strings.TrimSpace(r.Diagnosis)
		if d == "" {
			continue
		}
		total++
		key := strings.ToLower(d)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{label: d}
			buckets[key] = b
		}
		b.count++
	}

	out := make([]Diagnosis, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, Diagnosis{
			Diagnosis:  b.label,
			Count:      b.count,
			Percentage: round2(float64(b.count) * 100 / float64(total)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Diagnosis < out[j].Diagnosis
	})
	if len(out) > topDiagnosesLimit {
		out = out[:topDiagnosesLimit]
	}
	return out
}
