package store

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/tracetower/pkg/errors"
	"github.com/matzehuels/tracetower/pkg/trace"
)

func sampleTrace(id string, created time.Time) *StoredTrace {
	return &StoredTrace{
		ID:        id,
		Name:      "capture " + id,
		CreatedAt: created,
		Document: &trace.Document{Threads: []trace.Thread{
			{ID: "worker-0", Tasks: []trace.Task{{Start: 0, End: 10}, {Start: 10, End: 20}}},
			{ID: "worker-1", Tasks: []trace.Task{{Start: 5, End: 15}}},
		}},
	}
}

func TestMemoryStoreSaveGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	st := sampleTrace("t1", time.Now())
	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Name != "capture t1" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.LaneCount != 2 || got.TaskCount != 3 {
		t.Errorf("counts = %d lanes, %d tasks; want 2, 3", got.LaneCount, got.TaskCount)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "nope")
	if err == nil {
		t.Fatal("expected error for missing trace")
	}
	if errors.GetCode(err) != errors.ErrCodeTraceNotFound {
		t.Errorf("code = %v, want trace not found", errors.GetCode(err))
	}
}

func TestMemoryStoreSaveRequiresID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Save(ctx, &StoredTrace{})
	if errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("code = %v, want invalid input", errors.GetCode(err))
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		st := sampleTrace(id, base.Add(time.Duration(i)*time.Hour))
		if err := s.Save(ctx, st); err != nil {
			t.Fatalf("Save(%s) error: %v", id, err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len(list) = %d, want 3", len(list))
	}
	if list[0].ID != "new" || list[2].ID != "old" {
		t.Errorf("order = %s, %s, %s; want new, mid, old", list[0].ID, list[1].ID, list[2].ID)
	}
	if list[0].TaskCount != 3 {
		t.Errorf("summary TaskCount = %d, want 3", list[0].TaskCount)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, sampleTrace("t1", time.Now())); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := s.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := s.Get(ctx, "t1"); err == nil {
		t.Error("deleted trace should not be found")
	}
	// Deleting a missing id is not an error.
	if err := s.Delete(ctx, "t1"); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
}

func TestMemoryStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := sampleTrace("t1", time.Now())
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	replacement := sampleTrace("t1", time.Now())
	replacement.Name = "renamed"
	if err := s.Save(ctx, replacement); err != nil {
		t.Fatalf("replace Save error: %v", err)
	}

	got, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Name != "renamed" {
		t.Errorf("Name = %q, want renamed", got.Name)
	}

	list, _ := s.List(ctx)
	if len(list) != 1 {
		t.Errorf("len(list) = %d, want 1 after replace", len(list))
	}
}
