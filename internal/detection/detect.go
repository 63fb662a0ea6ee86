package detection

import (
	"sort"

	"github.com/castlemilk/leakfinder/backend/internal/models"
)

// MaxFindings caps the findings returned for one analysis.
const MaxFindings = 8

// Result is the outcome of one detection run. Empty Findings is a normal outcome.
type Result struct {
	Findings       []*models.Finding
	GroupsExamined int
	GroupsEligible int
}

// Detect groups debits by label, keeps the recurring groups and classifies them.
// Findings are ordered by yearly gain, largest first, then by grouping key.
func Detect(txs []models.Transaction) Result {
	groups := GroupByLabel(txs)

	var res Result
	res.GroupsExamined = len(groups)
	for key, group := range groups {
		if !IsEligible(group) {
			continue
		}
		res.GroupsEligible++
		if !HasMonthlyCadence(group) || !IsAmountStable(group) {
			continue
		}
		res.Findings = append(res.Findings, Classify(key, group))
	}

	sort.Slice(res.Findings, func(i, j int) bool {
		a, b := res.Findings[i], res.Findings[j]
		if a.GainEstimatedYearlyCents != b.GainEstimatedYearlyCents {
			return a.GainEstimatedYearlyCents > b.GainEstimatedYearlyCents
		}
		return a.GroupKey < b.GroupKey
	})
	if len(res.Findings) > MaxFindings {
		res.Findings = res.Findings[:MaxFindings]
	}
	return res
}

// TotalGain sums the yearly gain of findings.
func TotalGain(findings []*models.Finding) int64 {
	var total int64
	for _, f := range findings {
		total += f.GainEstimatedYearlyCents
	}
	return total
}
