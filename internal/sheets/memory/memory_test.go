package memory

import (
	"context"
	"testing"

	"fleetdesk/internal/core"
)

func TestWriteMonthOverwritesSameKey(t *testing.T) {
	s := New()

	rec := core.EmptyMonth(1, 2024, 3)
	rec.RentalIncome = 1000
	ref, err := s.WriteMonth(context.Background(), rec)
	if err != nil || ref != "mem:1/2024/3" {
		t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
	}

	rec.RentalIncome = 2000
	if _, err := s.WriteMonth(context.Background(), rec); err != nil {
		t.Fatalf("second write: %v", err)
	}

	if s.Len() != 1 {
		t.Fatalf("expected one row, got %d", s.Len())
	}
	got, ok := s.Row(1, 2024, 3)
	if !ok || got.RentalIncome != 2000 {
		t.Fatalf("expected overwritten row, got %+v ok=%v", got, ok)
	}
}

func TestWriteMonthValidates(t *testing.T) {
	s := New()
	if _, err := s.WriteMonth(context.Background(), core.EmptyMonth(1, 2024, 0)); err == nil {
		t.Fatal("expected validation error for month 0")
	}
}
