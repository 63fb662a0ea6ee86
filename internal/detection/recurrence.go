package detection

import (
	"sort"

	"github.com/castlemilk/leakfinder/backend/internal/models"
)

const (
	// MinOccurrences is the smallest group size considered recurring.
	MinOccurrences = 3
	// Monthly cadence window for the median gap, in days (inclusive).
	MinMonthlyGapDays = 20.0
	MaxMonthlyGapDays = 40.0
	// A group is amount-stable when the largest deviation from the mean is within
	// either tolerance.
	AbsoluteToleranceCents = 200
	RelativeTolerance      = 0.20
)

// GroupByLabel keeps debits only and groups them by GroupKey. Each returned
// transaction carries its grouping key in NormalizedLabel.
func GroupByLabel(txs []models.Transaction) map[string][]models.Transaction {
	groups := make(map[string][]models.Transaction)
	for _, tx := range txs {
		if !tx.IsDebit() {
			continue
		}
		key := GroupKey(tx.RawLabel)
		tx.NormalizedLabel = key
		groups[key] = append(groups[key], tx)
	}
	return groups
}

// IsEligible reports whether a group has enough occurrences to be examined.
func IsEligible(group []models.Transaction) bool {
	return len(group) >= MinOccurrences
}

// HasMonthlyCadence reports whether the median gap between consecutive
// transactions, in days, falls within the monthly window.
func HasMonthlyCadence(group []models.Transaction) bool {
	if len(group) < 2 {
		return false
	}
	gaps := dayGaps(group)
	m := median(gaps)
	return m >= MinMonthlyGapDays && m <= MaxMonthlyGapDays
}

// IsAmountStable reports whether amounts stay close to their mean, by absolute
// or relative tolerance.
func IsAmountStable(group []models.Transaction) bool {
	if len(group) == 0 {
		return false
	}
	mean := meanAbsCents(group)
	var maxDev float64
	for _, tx := range group {
		dev := float64(absCents(tx.AmountCents)) - mean
		if dev < 0 {
			dev = -dev
		}
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev <= AbsoluteToleranceCents || maxDev <= RelativeTolerance*mean
}

// IsRecurring combines the eligibility, cadence and stability tests.
func IsRecurring(group []models.Transaction) bool {
	return IsEligible(group) && HasMonthlyCadence(group) && IsAmountStable(group)
}

func dayGaps(group []models.Transaction) []float64 {
	sorted := sortedByDate(group)
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].OccurredOn.Sub(sorted[i-1].OccurredOn).Hours()/24)
	}
	return gaps
}

func sortedByDate(group []models.Transaction) []models.Transaction {
	sorted := make([]models.Transaction, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredOn.Before(sorted[j].OccurredOn)
	})
	return sorted
}

// median of values; the mean of the two middle values for even lengths.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

func meanAbsCents(group []models.Transaction) float64 {
	var sum int64
	for _, tx := range group {
		sum += absCents(tx.AmountCents)
	}
	return float64(sum) / float64(len(group))
}

func absCents(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
