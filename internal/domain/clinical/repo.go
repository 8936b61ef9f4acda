package clinical

import "context"

type EvolutionRepository interface {
	Create(ctx context.Context, e *Evolution) error
	GetByID(ctx context.Context, id string) (*Evolution, error)
	Update(ctx context.Context, e *Evolution) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*Evolution, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Evolution, error)
}

type MedicalReportRepository interface {
	Create(ctx context.Context, m *MedicalReport) error
	GetByID(ctx context.Context, id string) (*MedicalReport, error)
	Update(ctx context.Context, m *MedicalReport) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*MedicalReport, error)
	ListByPatient(ctx context.Context, patientID string) ([]*MedicalReport, error)
	ExistsForPatient(ctx context.Context, patientID string) (bool, error)
}
