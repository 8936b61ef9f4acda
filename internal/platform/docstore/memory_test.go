package docstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testDoc struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Status    string    `json:"status" bson:"status"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

func newTestCollection() *Collection[testDoc] {
	return NewCollection[testDoc](NewMemoryStore(), "things")
}

func TestMemory_InsertFindByID(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection()

	doc := &testDoc{ID: "a", Name: "Alpha", CreatedAt: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
	if err := c.Insert(ctx, doc.ID, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := c.FindByID(ctx, "a")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Name != "Alpha" || !got.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("unexpected document %+v", got)
	}

	// Mutating the returned copy must not affect the stored document.
	got.Name = "changed"
	again, _ := c.FindByID(ctx, "a")
	if again.Name != "Alpha" {
		t.Error("store returned a shared reference")
	}
}

func TestMemory_DuplicateAndMissing(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection()
	_ = c.Insert(ctx, "a", &testDoc{ID: "a"})

	if err := c.Insert(ctx, "a", &testDoc{ID: "a"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if _, err := c.FindByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := c.Replace(ctx, "missing", &testDoc{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on replace, got %v", err)
	}
	ok, err := c.Delete(ctx, "missing")
	if err != nil || ok {
		t.Errorf("expected (false, nil) deleting missing doc, got (%v, %v)", ok, err)
	}
}

func TestMemory_FindFilter(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection()
	docs := []testDoc{
		{ID: "1", Name: "One", Status: "Agendado", Active: true},
		{ID: "2", Name: "Two", Status: "Cancelado", Active: true},
		{ID: "3", Name: "Três", Status: "Agendado", Active: false},
	}
	for i := range docs {
		if err := c.Insert(ctx, docs[i].ID, &docs[i]); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", nil, []string{"1", "2", "3"}},
		{"status", Filter{"status": "Agendado"}, []string{"1", "3"}},
		{"bool and string", Filter{"status": "Agendado", "active": true}, []string{"1"}},
		{"accented value", Filter{"name": "Três"}, []string{"3"}},
		{"by id", Filter{"id": "2"}, []string{"2"}},
		{"unknown field", Filter{"missing": "x"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Find(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d docs, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
			}

			n, err := c.Count(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if int(n) != len(tt.want) {
				t.Errorf("Count = %d, want %d", n, len(tt.want))
			}
		})
	}
}

func TestMemory_ReplaceDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection()
	_ = c.Insert(ctx, "a", &testDoc{ID: "a", Name: "before"})
	_ = c.Insert(ctx, "b", &testDoc{ID: "b", Name: "other"})

	if err := c.Replace(ctx, "a", &testDoc{ID: "a", Name: "after"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, _ := c.FindByID(ctx, "a")
	if got.Name != "after" {
		t.Errorf("expected replaced name, got %q", got.Name)
	}

	ok, err := c.Delete(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	all, _ := c.FindAll(ctx)
	if len(all) != 1 || all[0].ID != "b" {
		t.Errorf("unexpected remaining docs %+v", all)
	}
}

func TestMemory_FindOneAndExists(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection()
	_ = c.Insert(ctx, "a", &testDoc{ID: "a", Name: "x@y.com"})

	found, err := c.FindOne(ctx, Filter{"name": "x@y.com"})
	if err != nil || found.ID != "a" {
		t.Fatalf("FindOne: %+v %v", found, err)
	}
	if _, err := c.FindOne(ctx, Filter{"name": "nobody"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	exists, err := c.Exists(ctx, Filter{"name": "x@y.com"})
	if err != nil || !exists {
		t.Errorf("expected Exists true, got %v %v", exists, err)
	}
}

func TestMemory_EmptyFindIsNonNil(t *testing.T) {
	got, err := newTestCollection().FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if got == nil {
		t.Error("expected empty non-nil slice")
	}
}

func TestToBSON_MapsID(t *testing.T) {
	q := toBSON(Filter{"id": "x", "status": "Agendado"})
	if q["_id"] != "x" {
		t.Errorf("expected _id mapping, got %v", q)
	}
	if _, ok := q["id"]; ok {
		t.Error("id key should be renamed")
	}
	if q["status"] != "Agendado" {
		t.Errorf("unexpected status %v", q["status"])
	}
}
