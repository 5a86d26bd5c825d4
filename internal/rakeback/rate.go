package rakeback

import (
	"cmp"
	"slices"

	"rakeback-manager/internal/domain"
)

// ResolvePercentage returns the rate an entity earns on rake. Threshold lists
// are sorted by start and the first inclusive [start, end] match wins; no match
// means 0.
func ResolvePercentage(cfg domain.EntityConfig, rake float64) float64 {
	if cfg.RakebackType != domain.RakebackThreshold {
		return cfg.Rakeback
	}

	sorted := slices.Clone(cfg.Thresholds)
	slices.SortStableFunc(sorted, func(a, b domain.Threshold) int {
		return cmp.Compare(a.Start, b.Start)
	})

	for _, t := range sorted {
		if rake >= t.Start && rake <= t.End {
			return t.Percentage
		}
	}
	return 0
}
