// README: Console rendering of run results and strategy comparisons.
package sim

import (
	"fmt"
	"io"
)

// MinuteClock renders a minute-of-day as HH:MM for report output.
func MinuteClock(min float64) string {
	m := int(min)
	return fmt.Sprintf("%02d:%02d", m/60%24, m%60)
}

// PrintReport writes a human-readable KPI report for one run.
func PrintReport(w io.Writer, res *Result) {
	k := res.KPI
	fmt.Fprintf(w, "=== Dispatch Report — %s ===\n", res.Policy)
	fmt.Fprintf(w, "Orders delivered: %d/%d (undelivered: %d)\n", k.OrdersDelivered, k.OrdersTotal, k.OrdersUndelivered)
	fmt.Fprintf(w, "Drivers activated: %d (%.2f orders/driver)\n", k.DriversActivated, k.OrdersPerDriver)
	fmt.Fprintf(w, "Fleet distance: %.2f km\n", k.TotalDistanceKm)
	fmt.Fprintf(w, "Delivery mins avg/median/p95/max: %.1f / %.1f / %.1f / %.1f\n",
		k.AvgDeliveryMins, k.MedianDeliveryMins, k.P95DeliveryMins, k.MaxDeliveryMins)
	fmt.Fprintf(w, "On-time rate: %.1f%%  late>45: %d  late>60: %d\n", k.OnTimeRate*100, k.LateOver45, k.LateOver60)
	fmt.Fprintf(w, "Fleet utilization: %.1f%%\n", k.FleetUtilization)
}

// PrintComparison writes one row per strategy for a same-input comparison.
func PrintComparison(w io.Writer, results []*Result) {
	fmt.Fprintf(w, "%-14s %9s %8s %10s %9s %8s %8s\n",
		"strategy", "delivered", "drivers", "dist_km", "avg_mins", "on_time", "late>45")
	for _, res := range results {
		k := res.KPI
		fmt.Fprintf(w, "%-14s %5d/%-3d %8d %10.2f %9.1f %7.1f%% %8d\n",
			res.Policy, k.OrdersDelivered, k.OrdersTotal, k.DriversActivated,
			k.TotalDistanceKm, k.AvgDeliveryMins, k.OnTimeRate*100, k.LateOver45)
	}
}

// PrintOrderLog writes the per-order diagnostic table.
func PrintOrderLog(w io.Writer, res *Result) {
	fmt.Fprintf(w, "%-12s %-10s %-10s %8s %8s %9s %7s\n",
		"order", "driver", "status", "created", "dropoff", "mins", "on_time")
	for _, l := range res.Orders {
		drv := "-"
		if l.DriverID != nil {
			drv = string(*l.DriverID)
		}
		dropoff := "-"
		mins := "-"
		onTime := "-"
		if l.DropoffTime != nil {
			dropoff = MinuteClock(*l.DropoffTime)
			mins = fmt.Sprintf("%.1f", l.DurationMins)
			onTime = fmt.Sprintf("%t", l.OnTime)
		}
		fmt.Fprintf(w, "%-12s %-10s %-10s %8s %8s %9s %7s\n",
			l.ID, drv, l.Status, MinuteClock(l.CreatedAt), dropoff, mins, onTime)
	}
}
