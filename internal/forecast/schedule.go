package forecast

import (
	"fmt"
	"math"
	"time"
)

// Schedule converts a monthly projection into months to minimum stock, a reorder date
// and a recommended order quantity.
//
// Without monthly consumption the item never foreseeably depletes: MonthsToMin is
// NoDepletionSentinel with no reorder date and no quantity.
func Schedule(currentStock, minStock, monthly, projectedAnnual float64, reference time.Time) (DepletionSchedule, error) {
	if invalid(currentStock) || invalid(minStock) || invalid(monthly) || invalid(projectedAnnual) {
		return DepletionSchedule{}, fmt.Errorf("%w: current=%v min=%v monthly=%v projected=%v",
			ErrInvalidInput, currentStock, minStock, monthly, projectedAnnual)
	}

	s := DepletionSchedule{MonthsToMin: NoDepletionSentinel}
	if monthly <= 0 {
		return s, nil
	}

	// 1. Months until stock reaches the minimum
	s.MonthsToMin = math.Max((currentStock-minStock)/monthly, 0)

	// 2. Reorder date within the planning horizon
	if s.MonthsToMin <= ReorderHorizonMonths {
		days := int(math.Round(s.MonthsToMin * DaysPerMonth))
		date := civilDate(reference).AddDate(0, 0, days)
		s.ReorderDate = &date
	}

	// 3. Recommended quantity inside the urgent window
	if s.MonthsToMin <= UrgentReorderMonths {
		qty := math.Max(math.Round(projectedAnnual*ReorderCoverFraction), minStock-currentStock)
		s.RecommendedQty = int(math.Round(math.Max(qty, 0)))
	}

	return s, nil
}
