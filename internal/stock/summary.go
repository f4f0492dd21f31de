// Package stock holds the read-side policy for the derived stock summary:
// reconciling cumulative receipts and issues against the stored running
// balance and turning trailing-window issue totals into consumption rates and
// days-of-cover figures.
package stock

import (
	"github.com/shopspring/decimal"

	"backend/internal/domain"
)

const (
	ValidationOK       = "OK"
	ValidationMismatch = "MISMATCH"

	// balanceTolerance is the slack allowed between the stored running
	// balance and the recomputed one before the row is flagged. The flag is
	// diagnostic only; it never blocks reads or writes.
	balanceTolerance = 0.01

	// UnboundedCoverDays marks items holding stock with no recorded
	// consumption in the window. It means "no recent consumption data", not
	// a literal day count, and is far outside any plausible real cover
	// value.
	UnboundedCoverDays = 999999
)

// Unbounded reports whether a days-of-cover value is the no-consumption
// sentinel rather than a real estimate.
func Unbounded(daysOfCover float64) bool {
	return daysOfCover == UnboundedCoverDays
}

// ItemAggregate is the per-item raw material for one summary row: the item
// identity plus the sums the repository aggregates in SQL.
type ItemAggregate struct {
	ItemCode     string
	ItemName     string
	CategoryName string
	UOM          string
	Status       string
	OpeningQty   float64
	CurrentQty   float64

	TotalReceived float64
	TotalIssued   float64
	Issue7d       float64
	Issue30d      float64
	Issue90d      float64
}

// Summarize derives one summary row. Purely computational; the same inputs
// always give the same row.
func Summarize(a ItemAggregate) domain.StockSummaryRow {
	row := domain.StockSummaryRow{
		ItemCode:      a.ItemCode,
		ItemName:      a.ItemName,
		CategoryName:  a.CategoryName,
		UOM:           a.UOM,
		Status:        a.Status,
		OpeningQty:    a.OpeningQty,
		CurrentQty:    a.CurrentQty,
		TotalReceived: a.TotalReceived,
		TotalIssued:   a.TotalIssued,
		Issue7d:       a.Issue7d,
		Issue30d:      a.Issue30d,
		Issue90d:      a.Issue90d,
	}

	row.CalculatedQty = a.OpeningQty + a.TotalReceived - a.TotalIssued
	row.ValidationStatus = ValidationOK
	if diff := row.CalculatedQty - a.CurrentQty; diff > balanceTolerance || diff < -balanceTolerance {
		row.ValidationStatus = ValidationMismatch
	}

	row.ConsumptionRate7 = ConsumptionRate(a.Issue7d, 7)
	row.ConsumptionRate30 = ConsumptionRate(a.Issue30d, 30)
	row.ConsumptionRate90 = ConsumptionRate(a.Issue90d, 90)

	row.DaysOfCover7 = DaysOfCover(a.CurrentQty, a.Issue7d, row.ConsumptionRate7)
	row.DaysOfCover30 = DaysOfCover(a.CurrentQty, a.Issue30d, row.ConsumptionRate30)
	row.DaysOfCover90 = DaysOfCover(a.CurrentQty, a.Issue90d, row.ConsumptionRate90)
	row.DaysOfCover = row.DaysOfCover30

	return row
}

// ConsumptionRate is the issued quantity averaged over the window, rounded to
// three decimals. Zero issues mean a zero rate.
func ConsumptionRate(issued float64, windowDays int) float64 {
	if issued <= 0 {
		return 0
	}
	rate := decimal.NewFromFloat(issued).
		Div(decimal.NewFromInt(int64(windowDays))).
		Round(3)
	return rate.InexactFloat64()
}

// DaysOfCover estimates how long the current balance lasts at the window's
// consumption rate, rounded to one decimal. With no consumption in the
// window the answer is UnboundedCoverDays when stock is held, 0 otherwise.
// A rate that rounds all the way down to zero is treated as no consumption.
func DaysOfCover(currentQty, issued, rate float64) float64 {
	if issued <= 0 || rate == 0 {
		if currentQty > 0 {
			return UnboundedCoverDays
		}
		return 0
	}
	cover := decimal.NewFromFloat(currentQty).
		Div(decimal.NewFromFloat(rate)).
		Round(1)
	return cover.InexactFloat64()
}

// SummarizeAll maps aggregates to summary rows preserving order.
func SummarizeAll(aggregates []ItemAggregate) []domain.StockSummaryRow {
	rows := make([]domain.StockSummaryRow, 0, len(aggregates))
	for _, a := range aggregates {
		rows = append(rows, Summarize(a))
	}
	return rows
}
