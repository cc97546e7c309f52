// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring charge dueness
// checking. Each frequency (monthly, quarterly, yearly) has its own
// strategy that encapsulates the logic for determining if a charge is due.

package services

import (
	"fmt"
	"time"

	"fleetdesk/internal/core"
)

// DuenessChecker is the strategy interface for checking if a recurring
// charge is due for another application.
type DuenessChecker interface {
	// IsDue returns true if the charge should be applied given when it
	// was last applied, the current time, and the charge's start date.
	IsDue(lastApplied, now, startDate time.Time) bool
}

// MonthlyChecker implements DuenessChecker for monthly charges.
type MonthlyChecker struct{}

// IsDue returns true if we're in a new month and have reached the target day.
func (MonthlyChecker) IsDue(lastApplied, now, startDate time.Time) bool {
	if lastApplied.IsZero() {
		return true
	}
	// Already applied this month?
	if lastApplied.Year() == now.Year() && lastApplied.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampedTargetDay(startDate.Day(), now)
}

// QuarterlyChecker implements DuenessChecker for quarterly charges.
type QuarterlyChecker struct{}

// IsDue returns true if three or more calendar months have passed and
// the target day of the month has been reached.
func (QuarterlyChecker) IsDue(lastApplied, now, startDate time.Time) bool {
	if lastApplied.IsZero() {
		return true
	}
	monthsSince := (now.Year()-lastApplied.Year())*12 + int(now.Month()) - int(lastApplied.Month())
	if monthsSince < 3 {
		return false
	}
	return now.Day() >= clampedTargetDay(startDate.Day(), now)
}

// YearlyChecker implements DuenessChecker for yearly charges.
type YearlyChecker struct{}

// IsDue returns true if we're in a new year and have reached the target
// month and day.
func (YearlyChecker) IsDue(lastApplied, now, startDate time.Time) bool {
	if lastApplied.IsZero() {
		return true
	}
	if lastApplied.Year() == now.Year() {
		return false
	}

	targetMonth := int(startDate.Month())
	if int(now.Month()) < targetMonth {
		return false
	}
	if int(now.Month()) == targetMonth {
		return now.Day() >= clampedTargetDay(startDate.Day(), now)
	}
	// Past the target month.
	return true
}

// clampedTargetDay clamps the target day to the current month's length,
// so a charge anchored on the 31st still fires in February.
func clampedTargetDay(targetDay int, now time.Time) int {
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		return lastDayOfMonth
	}
	return targetDay
}

// duenessStrategies maps frequencies to their corresponding checkers.
var duenessStrategies = map[core.ChargeFrequency]DuenessChecker{
	core.FrequencyMonthly:   MonthlyChecker{},
	core.FrequencyQuarterly: QuarterlyChecker{},
	core.FrequencyYearly:    YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency, or an error
// for an unknown one.
func GetDuenessChecker(frequency core.ChargeFrequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown charge frequency: %s", frequency)
	}
	return checker, nil
}
