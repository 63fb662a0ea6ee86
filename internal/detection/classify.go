package detection

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/castlemilk/leakfinder/backend/internal/models"
)

const (
	SubscriptionConfidence = 0.90
	BankFeeConfidence      = 0.85

	SubscriptionEffortMinutes = 10
	BankFeeEffortMinutes      = 20

	// MaxEvidence caps the transactions attached to a finding.
	MaxEvidence = 5
)

// bankFeeKeywords are matched on whole words of the grouping key.
var bankFeeKeywords = []string{
	"frais",
	"fee",
	"fees",
	"cotis",
	"cotisation",
	"tenue compte",
	"tenue de compte",
	"commission",
	"commissions",
	"agios",
	"overdraft",
	"decouvert",
	"incident",
	"incidents",
	"rejet",
	"maintenance",
	"account fee",
}

// cardFeeTerms name a charge for the card itself. "card" and "carte" are stripped from
// grouping keys, so these are matched on the raw label together with a card word.
var cardFeeTerms = []string{
	"cotis",
	"cotisation",
	"annual",
	"annuel",
	"annuelle",
	"charge",
	"charges",
	"membership",
	"renewal",
	"premier",
	"gold",
	"platinum",
	"infinite",
}

// brandKeywords maps a keyword found in a grouping key to the display name of
// the service. Longer keywords are tried first.
var brandKeywords = map[string]string{
	// Streaming
	"netflix":      "Netflix",
	"disney":       "Disney+",
	"disneyplus":   "Disney+",
	"amazon prime": "Amazon Prime",
	"prime video":  "Amazon Prime",
	"canal":        "Canal+",
	"canalplus":    "Canal+",
	"youtube":      "YouTube Premium",
	"molotov":      "Molotov",
	"salto":        "Salto",
	"twitch":       "Twitch",

	// Music and audio
	"spotify":     "Spotify",
	"deezer":      "Deezer",
	"apple music": "Apple Music",
	"audible":     "Audible",

	// Cloud and software
	"icloud":     "Apple iCloud",
	"apple com":  "Apple",
	"google one": "Google One",
	"dropbox":    "Dropbox",
	"microsoft":  "Microsoft 365",
	"adobe":      "Adobe",
	"openai":     "ChatGPT",
	"chatgpt":    "ChatGPT",

	// Social
	"linkedin": "LinkedIn Premium",
}

var orderedBrandKeywords = func() []string {
	keys := make([]string, 0, len(brandKeywords))
	for k := range brandKeywords {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

func containsWord(key, phrase string) bool {
	return strings.Contains(" "+key+" ", " "+phrase+" ")
}

// IsBankFee reports whether a grouping key names a bank charge.
func IsBankFee(key string) bool {
	for _, kw := range bankFeeKeywords {
		if containsWord(key, kw) {
			return true
		}
	}
	return false
}

// IsCardFee reports whether a raw label is a card fee, such as "COTIS CARTE VISA PREMIER"
// or "CARD ANNUAL CHARGE".
func IsCardFee(rawLabel string) bool {
	words := strings.FieldsFunc(Fold(rawLabel), func(r rune) bool { return !unicode.IsLetter(r) })
	folded := strings.Join(words, " ")
	if !containsWord(folded, "card") && !containsWord(folded, "carte") {
		return false
	}
	for _, term := range cardFeeTerms {
		if containsWord(folded, term) {
			return true
		}
	}
	return false
}

func isBankFeeGroup(key string, group []models.Transaction) bool {
	if IsBankFee(key) {
		return true
	}
	for _, tx := range group {
		if IsCardFee(tx.RawLabel) {
			return true
		}
	}
	return false
}

// MatchBrand returns the display name of a known service named in key, or "".
func MatchBrand(key string) string {
	for _, kw := range orderedBrandKeywords {
		if containsWord(key, kw) {
			return brandKeywords[kw]
		}
	}
	return ""
}

// EstimatedYearlyGain is the mean absolute amount, rounded half up to the cent,
// times twelve.
func EstimatedYearlyGain(group []models.Transaction) int64 {
	if len(group) == 0 {
		return 0
	}
	var sum int64
	for _, tx := range group {
		sum += absCents(tx.AmountCents)
	}
	n := int64(len(group))
	return monthlyCents(sum, n) * 12
}

// monthlyCents rounds sum/n half up using integers only. sum and n are non-negative.
func monthlyCents(sum, n int64) int64 {
	q, r := sum/n, sum%n
	if r >= n-r {
		q++
	}
	return q
}

// Classify builds the finding for a recurring group. The caller sets ids and owner.
func Classify(key string, group []models.Transaction) *models.Finding {
	n := int64(len(group))
	var sum int64
	for _, tx := range group {
		sum += absCents(tx.AmountCents)
	}
	monthly := monthlyCents(sum, n)
	gain := monthly * 12
	display := displayName(key, group)

	f := &models.Finding{
		GroupKey:                 key,
		GainEstimatedYearlyCents: gain,
		RiskLevel:                models.RiskLow,
		Evidence:                 evidence(group),
		Status:                   models.FindingOpen,
	}

	calc := []string{
		fmt.Sprintf("%d monthly payments found, average %s", n, FormatCents(monthly)),
		fmt.Sprintf("%s x 12 months = %s per year", FormatCents(monthly), FormatCents(gain)),
	}

	if isBankFeeGroup(key, group) {
		f.Category = models.CategoryBankFee
		f.Title = fmt.Sprintf("Bank fees: %s", display)
		f.Description = fmt.Sprintf("Your bank charges about %s every month for %q.", FormatCents(monthly), display)
		f.Confidence = BankFeeConfidence
		f.EffortMinutes = BankFeeEffortMinutes
		f.Explain = models.Explain{
			CalcSteps: calc,
			Assumptions: []string{
				"The fee keeps being charged every month at the same amount.",
				"Most account fees can be waived on request or avoided with a cheaper account.",
			},
			Recommendation: "Ask your bank to waive this fee, or compare with a no-fee online bank.",
		}
		return f
	}

	brand := MatchBrand(key)
	f.Category = models.CategorySubscription
	f.Brand = brand
	f.Confidence = SubscriptionConfidence
	f.EffortMinutes = SubscriptionEffortMinutes
	if brand != "" {
		f.Title = fmt.Sprintf("%s subscription", brand)
		f.Description = fmt.Sprintf("You pay %s about %s every month.", brand, FormatCents(monthly))
		f.Explain.Recommendation = fmt.Sprintf("Check whether you still use %s. Cancel it or switch to a cheaper plan if not.", brand)
	} else {
		f.Title = fmt.Sprintf("Recurring payment: %s", display)
		f.Description = fmt.Sprintf("%q takes about %s from your account every month.", display, FormatCents(monthly))
		f.Explain.Recommendation = "Check what this payment is for and cancel it if you no longer need it."
	}
	f.Explain.CalcSteps = calc
	f.Explain.Assumptions = []string{
		"The subscription renews every month at the same price.",
		"Cancelling stops every future payment.",
	}
	return f
}

// displayName prefers the most recent raw label when the key is only placeholders.
func displayName(key string, group []models.Transaction) string {
	if strings.Trim(key, "# ") != "" {
		return key
	}
	ev := evidence(group)
	if len(ev) > 0 {
		return strings.TrimSpace(ev[0].RawLabel)
	}
	return key
}

// evidence returns the most recent transactions first, capped at MaxEvidence.
func evidence(group []models.Transaction) []models.Transaction {
	sorted := sortedByDate(group)
	out := make([]models.Transaction, 0, MaxEvidence)
	for i := len(sorted) - 1; i >= 0 && len(out) < MaxEvidence; i-- {
		out = append(out, sorted[i])
	}
	return out
}

// FormatCents renders cents as euros, e.g. 1299 -> "€12.99".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s€%d.%02d", sign, cents/100, cents%100)
}
