package google

import (
	"context"
	"testing"

	"fleetdesk/internal/core"
)

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Ledger", 2024, "2024 Ledger"},
		{"  Ledger  ", 2024, "2024 Ledger"},
		{"2023 Ledger", 2024, "2023 Ledger"}, // already prefixed, keep as-is
		{"", 2024, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestMonthRowLayout(t *testing.T) {
	rec := core.EmptyMonth(7, 2024, 3)
	rec.RentalIncome = 123456
	rec.Trips = 9
	rec.Mode = core.SplitOwnerHeavy
	rec.SkiRackOwner = core.PartyOwner

	row := monthRow(rec)
	if len(row) != 20 {
		t.Fatalf("monthRow length = %d, want 20 (columns A:T)", len(row))
	}
	if row[0] != int64(7) || row[1] != 3 {
		t.Errorf("identifier columns = %v, %v; want 7, 3", row[0], row[1])
	}
	if row[2] != 1234.56 {
		t.Errorf("rental income column = %v, want 1234.56", row[2])
	}
	if row[16] != int64(9) {
		t.Errorf("trips column = %v, want 9", row[16])
	}
	if row[18] != 70 || row[19] != "owner" {
		t.Errorf("mode/owner columns = %v, %v; want 70, owner", row[18], row[19])
	}
}

func TestWriteMonthRejectsInvalidRecord(t *testing.T) {
	c := &Client{spreadsheetID: "test", ledgerBase: "Ledger"}
	rec := core.EmptyMonth(1, 2024, 13)
	if _, err := c.WriteMonth(context.Background(), rec); err == nil {
		t.Error("WriteMonth should reject an invalid month")
	}
}
