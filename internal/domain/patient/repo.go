package patient

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	GetByCPF(ctx context.Context, cpf string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*Patient, error)
	ListByStatus(ctx context.Context, status string) ([]*Patient, error)
	ListActive(ctx context.Context) ([]*Patient, error)
}
