package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeReconcilesBalances(t *testing.T) {
	row := Summarize(ItemAggregate{
		ItemCode:      "RAW-01",
		OpeningQty:    100,
		CurrentQty:    120,
		TotalReceived: 50,
		TotalIssued:   30,
		Issue7d:       30,
		Issue30d:      30,
		Issue90d:      30,
	})

	assert.Equal(t, 120.0, row.CalculatedQty)
	assert.Equal(t, ValidationOK, row.ValidationStatus)
	assert.Equal(t, 4.286, row.ConsumptionRate7)
	assert.Equal(t, 1.0, row.ConsumptionRate30)
	assert.Equal(t, 0.333, row.ConsumptionRate90)
	assert.Equal(t, 28.0, row.DaysOfCover7)
	assert.Equal(t, 120.0, row.DaysOfCover30)
	assert.Equal(t, row.DaysOfCover30, row.DaysOfCover)
}

func TestSummarizeFlagsMismatch(t *testing.T) {
	row := Summarize(ItemAggregate{
		OpeningQty:    100,
		CurrentQty:    115,
		TotalReceived: 50,
		TotalIssued:   30,
	})
	assert.Equal(t, 120.0, row.CalculatedQty)
	assert.Equal(t, ValidationMismatch, row.ValidationStatus)
}

func TestSummarizeToleratesRoundingDrift(t *testing.T) {
	// A discrepancy inside the tolerance is still OK; past it is not.
	within := Summarize(ItemAggregate{OpeningQty: 100, CurrentQty: 99.995})
	assert.Equal(t, ValidationOK, within.ValidationStatus)

	past := Summarize(ItemAggregate{OpeningQty: 100, CurrentQty: 99.98})
	assert.Equal(t, ValidationMismatch, past.ValidationStatus)
}

func TestSummarizeZeroActivityItem(t *testing.T) {
	row := Summarize(ItemAggregate{ItemCode: "RAW-02"})

	assert.Equal(t, 0.0, row.CalculatedQty)
	assert.Equal(t, ValidationOK, row.ValidationStatus)
	assert.Equal(t, 0.0, row.ConsumptionRate30)
	assert.Equal(t, 0.0, row.DaysOfCover30)
	assert.False(t, Unbounded(row.DaysOfCover))
}

func TestSummarizeStockWithoutConsumptionIsUnbounded(t *testing.T) {
	row := Summarize(ItemAggregate{
		OpeningQty: 200,
		CurrentQty: 200,
	})

	assert.True(t, Unbounded(row.DaysOfCover7))
	assert.True(t, Unbounded(row.DaysOfCover30))
	assert.True(t, Unbounded(row.DaysOfCover90))
	assert.Equal(t, float64(UnboundedCoverDays), row.DaysOfCover)
}

func TestSummarizeMixedWindows(t *testing.T) {
	// Consumption happened two weeks ago: the 7-day window is empty but the
	// longer ones are not.
	row := Summarize(ItemAggregate{
		OpeningQty:  100,
		CurrentQty:  85,
		TotalIssued: 15,
		Issue7d:     0,
		Issue30d:    15,
		Issue90d:    15,
	})

	assert.True(t, Unbounded(row.DaysOfCover7))
	assert.Equal(t, 0.5, row.ConsumptionRate30)
	assert.Equal(t, 170.0, row.DaysOfCover30)
	assert.Equal(t, 170.0, row.DaysOfCover)
}

func TestConsumptionRateRounding(t *testing.T) {
	assert.Equal(t, 0.143, ConsumptionRate(1, 7))
	assert.Equal(t, 0.333, ConsumptionRate(10, 30))
	assert.Equal(t, 0.0, ConsumptionRate(0, 7))
	assert.Equal(t, 0.0, ConsumptionRate(-5, 7))
}

func TestDaysOfCoverRounding(t *testing.T) {
	assert.Equal(t, 23.3, DaysOfCover(10, 3, 0.429))
	assert.Equal(t, 0.0, DaysOfCover(0, 0, 0))
	assert.Equal(t, float64(UnboundedCoverDays), DaysOfCover(10, 0, 0))
}

func TestDaysOfCoverVanishinglySmallRate(t *testing.T) {
	// A positive issue total whose rate rounds to 0.000 must not divide by
	// zero; it reads as no consumption.
	rate := ConsumptionRate(0.00001, 90)
	assert.Equal(t, 0.0, rate)
	assert.Equal(t, float64(UnboundedCoverDays), DaysOfCover(10, 0.00001, rate))
}

func TestSummarizeAllPreservesOrder(t *testing.T) {
	rows := SummarizeAll([]ItemAggregate{
		{ItemCode: "RAW-02"},
		{ItemCode: "RAW-01"},
	})
	assert.Equal(t, "RAW-02", rows[0].ItemCode)
	assert.Equal(t, "RAW-01", rows[1].ItemCode)
}
