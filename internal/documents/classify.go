package documents

import (
	"strings"

	"github.com/castlemilk/leakfinder/backend/internal/detection"
)

// Kind is the document family recognised from its text.
type Kind string

const (
	KindEnergy    Kind = "energy"
	KindInsurance Kind = "insurance"
	KindTax       Kind = "tax"
	KindUnknown   Kind = "unknown"
)

// minKindScore is the keyword hits needed before a kind is trusted.
const minKindScore = 2

// kindKeywords are matched on folded text (lower case, no accents).
var kindKeywords = map[Kind][]string{
	KindTax: {
		"avis d'impot",
		"avis d impot",
		"impot sur le revenu",
		"revenu fiscal de reference",
		"impots.gouv",
		"dgfip",
		"quotient familial",
		"tax notice",
		"taxable income",
	},
	KindEnergy: {
		"kwh",
		"electricite",
		"electricity",
		"gaz naturel",
		"consommation",
		"fournisseur d'energie",
		"point de livraison",
		"edf",
		"engie",
		"totalenergies",
		"energy",
		"tarif bleu",
	},
	KindInsurance: {
		"assurance",
		"insurance",
		"assure",
		"prime annuelle",
		"cotisation annuelle",
		"franchise",
		"garanties",
		"avis d'echeance",
		"policy",
		"premium",
	},
}

// kindOrder breaks score ties.
var kindOrder = []Kind{KindTax, KindEnergy, KindInsurance}

// Classify picks the document kind with the most keyword hits.
func Classify(text string) Kind {
	folded := detection.Fold(text)

	best, bestScore := KindUnknown, 0
	for _, kind := range kindOrder {
		score := 0
		for _, kw := range kindKeywords[kind] {
			score += strings.Count(folded, kw)
		}
		if score > bestScore {
			best, bestScore = kind, score
		}
	}
	if bestScore < minKindScore {
		return KindUnknown
	}
	return best
}
