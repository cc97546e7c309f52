package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xuri/excelize/v2"

	"fleetdesk/internal/core"
	"fleetdesk/internal/earnings"
)

// handleEarningsReport renders a car's year breakdown as an XLSX
// workbook, one row per month plus a totals row.
func (s *Server) handleEarningsReport(w http.ResponseWriter, r *http.Request) {
	carID, ok := urlParamInt64(r, "carID")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid car id")
		return
	}
	year, ok := urlParamInt(r, "year")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid year")
		return
	}

	car, err := s.deps.Repo.GetCar(r.Context(), carID)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	breakdown, err := s.deps.Earnings.ComputeYear(r.Context(), carID, year)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}

	f, err := buildEarningsWorkbook(car, breakdown)
	if err != nil {
		respondDomainError(r.Context(), w, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("earnings_%s_%d.xlsx", car.LicensePlate, year)
	if car.LicensePlate == "" {
		filename = fmt.Sprintf("earnings_car%d_%d.xlsx", car.ID, year)
	}
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		// Headers are already out; nothing left to do but log.
		slog.ErrorContext(r.Context(), "Failed to stream report", "error", err)
	}
}

var monthNames = []string{"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December"}

func buildEarningsWorkbook(car core.Car, b earnings.YearBreakdown) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := fmt.Sprintf("Earnings %d", b.Year)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	title := fmt.Sprintf("%s %s (%s) - %d", car.Make, car.Model, car.LicensePlate, b.Year)
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		f.Close()
		return nil, fmt.Errorf("write title: %w", err)
	}

	header := []any{"Month", "Mode", "Carry In", "Owner Share",
		"Owner Net", "Payout", "Carry Out", "Management Net"}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, m := range b.Months {
		row := []any{
			monthNames[m.Month-1],
			fmt.Sprintf("%d:%d", 100-int(m.Mode), int(m.Mode)),
			cents(m.CarryIn),
			cents(m.OwnerShare),
			cents(m.OwnerNet),
			cents(m.Payout),
			cents(m.CarryOut),
			cents(m.ManagementNet),
		}
		cell := fmt.Sprintf("A%d", 4+i)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write month row: %w", err)
		}
	}

	totals := []any{"Total", "", "", "",
		"", cents(b.OwnerPayoutTotal), cents(b.CarryIntoNext), cents(b.ManagementTotal)}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", 4+len(b.Months)), &totals); err != nil {
		f.Close()
		return nil, fmt.Errorf("write totals row: %w", err)
	}
	return f, nil
}

func cents(v int64) float64 {
	return core.Money{Cents: v}.Euros()
}
