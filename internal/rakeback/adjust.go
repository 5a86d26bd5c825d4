package rakeback

import (
	"rakeback-manager/internal/domain"
)

const taxRebateRate = 0.10

// TaxRebate is -10% of (rake + P/L): a losing downline earns a rebate, a
// winning one is taxed.
func TaxRebate(totalRake, totalPL float64, enabled bool) float64 {
	if !enabled {
		return 0
	}
	return -taxRebateRate * (totalPL + totalRake)
}

// Routing sums each entry's cut of its target's aggregated rake. Targets are
// always read from the raw aggregates, never from another entity's payout, so
// routes pointing at each other cannot recurse.
func Routing(routes []domain.RoutingEntry, agg *Aggregates) float64 {
	var total float64
	for _, r := range routes {
		rake, ok := agg.TargetRake(r.Type, r.Username)
		if !ok {
			continue
		}
		total += rake * r.Percentage / 100
	}
	return total
}
