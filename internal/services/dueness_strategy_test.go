package services

import (
	"testing"
	"time"

	"fleetdesk/internal/core"
)

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	startDate := time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastApplied time.Time
		want        bool
	}{
		{
			name:        "never applied - is due",
			lastApplied: time.Time{},
			want:        true,
		},
		{
			name:        "applied this month - not due",
			lastApplied: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
			want:        false,
		},
		{
			name:        "applied last month, past target day - is due",
			lastApplied: time.Date(2023, 12, 10, 0, 0, 0, 0, time.UTC),
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastApplied, now, startDate)
			if got != tt.want {
				t.Errorf("MonthlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_TargetDayNotReached(t *testing.T) {
	checker := MonthlyChecker{}
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	startDate := time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)
	lastApplied := time.Date(2023, 12, 10, 0, 0, 0, 0, time.UTC)

	if checker.IsDue(lastApplied, now, startDate) {
		t.Error("charge anchored on the 10th should not be due on the 5th")
	}
}

func TestMonthlyChecker_ClampsToShortMonth(t *testing.T) {
	checker := MonthlyChecker{}
	// Anchored on the 31st; February only has 29 days in 2024.
	now := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	startDate := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	lastApplied := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	if !checker.IsDue(lastApplied, now, startDate) {
		t.Error("charge anchored on the 31st should fire on Feb 29")
	}
}

func TestQuarterlyChecker_IsDue(t *testing.T) {
	checker := QuarterlyChecker{}
	startDate := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastApplied time.Time
		now         time.Time
		want        bool
	}{
		{
			name:        "never applied - is due",
			lastApplied: time.Time{},
			now:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want:        true,
		},
		{
			name:        "two months since - not due",
			lastApplied: time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want:        false,
		},
		{
			name:        "three months since, target day reached - is due",
			lastApplied: time.Date(2023, 10, 15, 0, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want:        true,
		},
		{
			name:        "three months since, target day not reached - not due",
			lastApplied: time.Date(2023, 10, 15, 0, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastApplied, tt.now, startDate)
			if got != tt.want {
				t.Errorf("QuarterlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker_IsDue(t *testing.T) {
	checker := YearlyChecker{}
	startDate := time.Date(2022, 3, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastApplied time.Time
		now         time.Time
		want        bool
	}{
		{
			name:        "never applied - is due",
			lastApplied: time.Time{},
			now:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			want:        true,
		},
		{
			name:        "applied this year - not due",
			lastApplied: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
			want:        false,
		},
		{
			name:        "new year, before target month - not due",
			lastApplied: time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			want:        false,
		},
		{
			name:        "new year, target month and day reached - is due",
			lastApplied: time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			want:        true,
		},
		{
			name:        "new year, past target month - is due",
			lastApplied: time.Date(2023, 3, 20, 0, 0, 0, 0, time.UTC),
			now:         time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastApplied, tt.now, startDate)
			if got != tt.want {
				t.Errorf("YearlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, f := range []core.ChargeFrequency{
		core.FrequencyMonthly, core.FrequencyQuarterly, core.FrequencyYearly,
	} {
		if _, err := GetDuenessChecker(f); err != nil {
			t.Errorf("GetDuenessChecker(%s) error = %v", f, err)
		}
	}
	if _, err := GetDuenessChecker("weekly"); err == nil {
		t.Error("GetDuenessChecker should reject unknown frequency")
	}
}
