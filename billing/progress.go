package billing

import (
	"github.com/shopspring/decimal"

	"github.com/warp/fulfillment-engine/schedule"
)

// =============================================================================
// DERIVED COMPLETION - Always counted from tasks, never cached
// =============================================================================

// LineItemCompletedCount counts tasks linked to line item index of pkg that
// are in a terminal status.
func LineItemCompletedCount(pkg Package, index int, tasks []schedule.Task) int {
	n := 0
	for _, t := range tasks {
		if t.PackageID == pkg.ID && t.LineItemIndex() == index && t.Status.IsTerminal() {
			n++
		}
	}
	return n
}

// PackageCompletedTotal sums the completed counts of every line item.
// Tasks pointing at an index the package no longer has are ignored.
func PackageCompletedTotal(pkg Package, tasks []schedule.Task) int {
	total := 0
	for i := range pkg.LineItems {
		total += LineItemCompletedCount(pkg, i, tasks)
	}
	return total
}

// PackageProgressPercent is round(100 * completed / quantity), or 0 for a
// package with no units.
func PackageProgressPercent(pkg Package, tasks []schedule.Task) int {
	quantity := pkg.TotalQuantity()
	if quantity == 0 {
		return 0
	}
	done := PackageCompletedTotal(pkg, tasks)
	return int(decimal.NewFromInt(int64(100 * done)).
		Div(decimal.NewFromInt(int64(quantity))).
		Round(0).
		IntPart())
}

// LineItemProgress is the live completion of one line item.
type LineItemProgress struct {
	Index       int    `json:"index"`
	ServiceName string `json:"service_name"`
	Quantity    int    `json:"quantity"`
	Completed   int    `json:"completed"`
}

// PackageProgress is the live completion of a package.
type PackageProgress struct {
	PackageID      string             `json:"package_id"`
	LineItems      []LineItemProgress `json:"line_items"`
	Completed      int                `json:"completed"`
	Quantity       int                `json:"quantity"`
	Percent        int                `json:"percent"`
	TotalAmount    int64              `json:"total_amount"`
	ReceivedAmount int64              `json:"received_amount"`
	Balance        int64              `json:"balance"`
}

// ProgressOf builds the progress report of pkg from its tasks.
func ProgressOf(pkg Package, tasks []schedule.Task) PackageProgress {
	out := PackageProgress{
		PackageID:      pkg.ID,
		LineItems:      make([]LineItemProgress, len(pkg.LineItems)),
		Quantity:       pkg.TotalQuantity(),
		Percent:        PackageProgressPercent(pkg, tasks),
		TotalAmount:    pkg.TotalAmount,
		ReceivedAmount: pkg.ReceivedAmount,
		Balance:        pkg.Balance(),
	}
	for i, item := range pkg.LineItems {
		done := LineItemCompletedCount(pkg, i, tasks)
		out.LineItems[i] = LineItemProgress{
			Index:       i,
			ServiceName: item.ServiceName,
			Quantity:    item.Quantity,
			Completed:   done,
		}
		out.Completed += done
	}
	return out
}
