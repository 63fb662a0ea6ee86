package documents

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/castlemilk/leakfinder/backend/internal/csvimport"
	"github.com/castlemilk/leakfinder/backend/internal/detection"
	"github.com/castlemilk/leakfinder/backend/internal/models"
)

const (
	EnergySavingPercent    = 10
	InsuranceSavingPercent = 15

	EnergyConfidence    = 0.60
	InsuranceConfidence = 0.55
	TaxConfidence       = 0.50
)

// yearlyKeywords mark the line holding the yearly total of a bill or contract.
var yearlyKeywords = []string{
	"total annuel",
	"montant annuel",
	"cotisation annuelle",
	"prime annuelle",
	"cout annuel",
	"estimation annuelle",
	"annual total",
	"annual premium",
	"total ttc",
	"total a payer",
}

var referenceIncomeKeywords = []string{
	"revenu fiscal de reference",
	"reference tax income",
	"taxable income",
}

// amountPattern matches "1 234,56", "1.234,56", "1,234.56", "120,50" and "95.00".
var amountPattern = regexp.MustCompile(`\d{1,3}(?:[ .,\x{00a0}\x{202f}]\d{3})+(?:[.,]\d{2})?|\d+[.,]\d{2}|\d{4,}`)

// DetectFindings returns the savings a document points to. It returns nothing
// when the kind is unknown or no usable amount is found.
func DetectFindings(a *Analysis) []*models.Finding {
	if a == nil || a.Text == "" {
		return nil
	}

	switch Classify(a.Text) {
	case KindEnergy:
		if yearly, ok := findAmount(a.Lines, yearlyKeywords); ok {
			return []*models.Finding{energyFinding(yearly)}
		}
	case KindInsurance:
		if yearly, ok := findAmount(a.Lines, yearlyKeywords); ok {
			return []*models.Finding{insuranceFinding(yearly)}
		}
	case KindTax:
		income, ok := findAmount(a.Lines, referenceIncomeKeywords)
		return []*models.Finding{taxFinding(income, ok)}
	}
	return nil
}

// findAmount returns the largest amount on lines containing one of keywords.
func findAmount(lines []string, keywords []string) (int64, bool) {
	var best int64
	found := false
	for _, line := range lines {
		folded := detection.Fold(line)
		if !containsAny(folded, keywords) {
			continue
		}
		matches := amountPattern.FindAllString(line, -1)
		for _, m := range matches {
			cents, err := csvimport.ParseAmountCents(m)
			if err != nil || cents <= 0 {
				continue
			}
			if cents > best {
				best = cents
			}
			found = true
		}
	}
	return best, found
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// percentOf rounds cents*pct/100 half up.
func percentOf(cents int64, pct int64) int64 {
	return (cents*pct + 50) / 100
}

func energyFinding(yearly int64) *models.Finding {
	gain := percentOf(yearly, EnergySavingPercent)
	return &models.Finding{
		Category:                 models.CategoryEnergy,
		Title:                    "Switch energy supplier",
		Description:              fmt.Sprintf("Your energy contract costs about %s per year.", detection.FormatCents(yearly)),
		GainEstimatedYearlyCents: gain,
		EffortMinutes:            30,
		RiskLevel:                models.RiskLow,
		Confidence:               EnergyConfidence,
		Status:                   models.FindingOpen,
		Explain: models.Explain{
			CalcSteps: []string{
				fmt.Sprintf("Yearly amount on the bill: %s", detection.FormatCents(yearly)),
				fmt.Sprintf("%d%% of %s = %s", EnergySavingPercent, detection.FormatCents(yearly), detection.FormatCents(gain)),
			},
			Assumptions: []string{
				fmt.Sprintf("Market offers are typically %d%% below a regulated or legacy tariff.", EnergySavingPercent),
				"Your consumption stays the same next year.",
			},
			Recommendation: "Compare offers with an energy comparator and switch; your supplier cannot charge for leaving.",
		},
	}
}

func insuranceFinding(yearly int64) *models.Finding {
	gain := percentOf(yearly, InsuranceSavingPercent)
	return &models.Finding{
		Category:                 models.CategoryInsurance,
		Title:                    "Compare your insurance contract",
		Description:              fmt.Sprintf("Your insurance premium is about %s per year.", detection.FormatCents(yearly)),
		GainEstimatedYearlyCents: gain,
		EffortMinutes:            45,
		RiskLevel:                models.RiskMedium,
		Confidence:               InsuranceConfidence,
		Status:                   models.FindingOpen,
		Explain: models.Explain{
			CalcSteps: []string{
				fmt.Sprintf("Yearly premium on the notice: %s", detection.FormatCents(yearly)),
				fmt.Sprintf("%d%% of %s = %s", InsuranceSavingPercent, detection.FormatCents(yearly), detection.FormatCents(gain)),
			},
			Assumptions: []string{
				fmt.Sprintf("Equivalent cover is often available about %d%% cheaper.", InsuranceSavingPercent),
				"Contracts older than one year can be cancelled at any time.",
			},
			Recommendation: "Ask for two or three quotes with the same cover and deductible, then renegotiate or switch.",
		},
	}
}

func taxFinding(referenceIncome int64, known bool) *models.Finding {
	calc := []string{"No reference income found on the notice."}
	if known {
		calc = []string{fmt.Sprintf("Reference tax income on the notice: %s", detection.FormatCents(referenceIncome))}
	}
	return &models.Finding{
		Category:                 models.CategoryTax,
		Title:                    "Review your tax credits",
		Description:              "Your tax notice may not include every credit or deduction you are entitled to.",
		GainEstimatedYearlyCents: 0,
		EffortMinutes:            60,
		RiskLevel:                models.RiskLow,
		Confidence:               TaxConfidence,
		Status:                   models.FindingOpen,
		Explain: models.Explain{
			CalcSteps: calc,
			Assumptions: []string{
				"The saving depends on expenses that are not visible on the notice.",
			},
			Recommendation: "Check home-service, childcare and donation credits and correct your return online if any are missing.",
		},
	}
}
