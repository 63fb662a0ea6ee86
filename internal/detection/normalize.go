// Package detection finds recurring leaks (subscriptions and bank fees) in a set of
// normalized transactions. Every function here is pure and deterministic.
package detection

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLabelRunes is the length a grouping key is cut to, at a word boundary.
const MaxLabelRunes = 40

// boilerplateTokens are payment-rail words banks prepend to labels. They carry no
// information about the merchant.
var boilerplateTokens = map[string]bool{
	"cb":          true,
	"carte":       true,
	"card":        true,
	"prlv":        true,
	"prelevement": true,
	"sepa":        true,
	"vir":         true,
	"virement":    true,
	"transfer":    true,
	"paiement":    true,
	"payment":     true,
	"pmt":         true,
	"dd":          true,
	"direct":      true,
	"debit":       true,
	"achat":       true,
	"purchase":    true,
	"echeance":    true,
	"facture":     true,
}

// NormalizeLabel turns a raw bank label into a grouping key. Applying it twice gives
// the same result as applying it once. It may return "" for labels made only of
// boilerplate; callers then group by the raw label.
func NormalizeLabel(raw string) string {
	folded := Fold(raw)

	var b strings.Builder
	inDigits := false
	for _, r := range folded {
		switch {
		case unicode.IsDigit(r):
			if !inDigits {
				b.WriteRune('#')
			}
			inDigits = true
			continue
		case unicode.IsLetter(r) || r == '#':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
		inDigits = false
	}

	var kept []string
	for _, tok := range strings.Fields(b.String()) {
		if boilerplateTokens[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return truncateWords(kept, MaxLabelRunes)
}

// Fold lower-cases s and strips accents ("Échéance" -> "echeance").
func Fold(s string) string {
	// Transformers keep state, so each call builds its own.
	lower := cases.Lower(language.Und).String(s)
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), lower)
	if err != nil {
		return lower
	}
	return folded
}

// truncateWords joins tokens with single spaces, stopping before the token that
// would exceed limit runes. A first token longer than limit is cut hard.
func truncateWords(tokens []string, limit int) string {
	if len(tokens) == 0 {
		return ""
	}
	first := []rune(tokens[0])
	if len(first) >= limit {
		return string(first[:limit])
	}

	out := tokens[0]
	n := len(first)
	for _, tok := range tokens[1:] {
		l := len([]rune(tok))
		if n+1+l > limit {
			break
		}
		out += " " + tok
		n += 1 + l
	}
	return out
}

// GroupKey returns the key a transaction is grouped under.
func GroupKey(raw string) string {
	if key := NormalizeLabel(raw); key != "" {
		return key
	}
	return raw
}
