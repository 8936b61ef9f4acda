//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/ampara/clinic/internal/domain/patient"
	"github.com/ampara/clinic/internal/platform/apperr"
)

func TestPatientLifecycle(t *testing.T) {
	resetDocuments(t)
	ctx := context.Background()
	svc := patient.NewService(patient.NewRepo(globalStore), nil)

	req := patient.CreateRequest{
		Name:      "Maria da Silva",
		CPF:       "123.456.789-00",
		BirthDate: ptrTime(time.Date(1970, 5, 12, 0, 0, 0, 0, time.UTC)),
		Gender:    "Feminino",
		Phone:     "34 99999-0000",
	}

	created, err := svc.Create(ctx, req, "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	t.Run("GetByID", func(t *testing.T) {
		got, err := svc.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.CPF != "12345678900" || got.Name != "Maria da Silva" {
			t.Errorf("unexpected patient %+v", got)
		}
	})

	t.Run("DuplicateCPF", func(t *testing.T) {
		req.CPF = "12345678900"
		_, err := svc.Create(ctx, req, "user-1")
		if !apperr.Is(err, apperr.KindConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("ListByStatus", func(t *testing.T) {
		list, err := svc.ListByStatus(ctx, created.Status)
		if err != nil {
			t.Fatalf("ListByStatus: %v", err)
		}
		if len(list) != 1 || list[0].ID != created.ID {
			t.Errorf("expected the created patient, got %d results", len(list))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := svc.Delete(ctx, created.ID, "user-1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := svc.Get(ctx, created.ID); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("expected not found after delete, got %v", err)
		}
	})
}
