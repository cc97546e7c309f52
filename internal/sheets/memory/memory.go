package memory

import (
	"context"
	"fmt"
	"sync"

	"fleetdesk/internal/core"
)

// Store is an in-memory MonthWriter used in tests and when running
// without Google credentials. Rows are keyed the same way the real
// spreadsheet keys them: one row per (car, year, month).
type Store struct {
	mu   sync.Mutex
	rows map[string]core.MonthRecord
}

func New() *Store {
	return &Store{rows: make(map[string]core.MonthRecord)}
}

// WriteMonth stores the record and returns a synthetic row reference.
func (s *Store) WriteMonth(_ context.Context, rec core.MonthRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	key := fmt.Sprintf("%d/%d/%d", rec.CarID, rec.Year, rec.Month)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[key] = rec
	return "mem:" + key, nil
}

// Row returns the stored record for the key, if any.
func (s *Store) Row(carID int64, year, month int) (core.MonthRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[fmt.Sprintf("%d/%d/%d", carID, year, month)]
	return rec, ok
}

// Len reports how many distinct rows have been written.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
