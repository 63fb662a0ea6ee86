package csvimport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/shopspring/decimal"
)

// ErrInvalidMapping is returned when a column mapping cannot apply to the file.
var ErrInvalidMapping = errors.New("invalid column mapping")

// ColumnMapping tells which 0-based columns hold the date, label and amount.
type ColumnMapping struct {
	DateCol   int `json:"date_col"`
	LabelCol  int `json:"label_col"`
	AmountCol int `json:"amount_col"`
}

// Validate checks the mapping against a file with ncols columns.
func (m ColumnMapping) Validate(ncols int) error {
	cols := []struct {
		name string
		idx  int
	}{{"date", m.DateCol}, {"label", m.LabelCol}, {"amount", m.AmountCol}}
	for _, c := range cols {
		name, idx := c.name, c.idx
		if idx < 0 {
			return fmt.Errorf("%w: %s column must not be negative", ErrInvalidMapping, name)
		}
		if idx >= ncols {
			return fmt.Errorf("%w: %s column %d out of range (file has %d columns)", ErrInvalidMapping, name, idx, ncols)
		}
	}
	if m.DateCol == m.LabelCol || m.DateCol == m.AmountCol || m.LabelCol == m.AmountCol {
		return fmt.Errorf("%w: columns must be distinct", ErrInvalidMapping)
	}
	return nil
}

// Result is the outcome of normalizing a whole table.
type Result struct {
	Transactions []models.Transaction
	Dropped      int
}

// NormalizeTable converts every row it can and counts the rest as dropped.
func NormalizeTable(table *Table, mapping ColumnMapping) Result {
	var res Result
	for _, row := range table.Rows {
		tx, ok := NormalizeRow(row, mapping)
		if !ok {
			res.Dropped++
			continue
		}
		res.Transactions = append(res.Transactions, *tx)
	}
	return res
}

// NormalizeRow converts one row. It reports false when a mapped cell is missing,
// empty or unparsable.
func NormalizeRow(cells []string, mapping ColumnMapping) (*models.Transaction, bool) {
	dateCell, ok := cellAt(cells, mapping.DateCol)
	if !ok {
		return nil, false
	}
	label, ok := cellAt(cells, mapping.LabelCol)
	if !ok {
		return nil, false
	}
	amountCell, ok := cellAt(cells, mapping.AmountCol)
	if !ok {
		return nil, false
	}

	date, err := ParseDate(dateCell)
	if err != nil {
		return nil, false
	}
	amount, err := ParseAmountCents(amountCell)
	if err != nil {
		return nil, false
	}

	return &models.Transaction{
		OccurredOn:  date,
		RawLabel:    label,
		AmountCents: amount,
	}, true
}

func cellAt(cells []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(cells) {
		return "", false
	}
	v := strings.TrimSpace(cells[idx])
	return v, v != ""
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"02/01/06",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// ParseDate reads a bank date. Day-first numeric dates (DD/MM/YYYY, DD-MM-YYYY,
// DD.MM.YYYY) are tried before the generic layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}

	if t, ok := parseDayFirst(s); ok {
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseDayFirst(s string) (time.Time, bool) {
	var parts []string
	for _, sep := range []string{"/", "-", "."} {
		if p := strings.Split(s, sep); len(p) == 3 {
			parts = p
			break
		}
	}
	if parts == nil || len(parts[0]) > 2 || len(parts[1]) > 2 || len(parts[2]) != 4 {
		return time.Time{}, false
	}

	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	// time.Date normalizes 31/02 into March; reject anything that moved.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// MaxAmountCents bounds the absolute value of a single amount. Sums over a full
// file of such amounts stay far inside int64.
const MaxAmountCents int64 = 100_000_000_000_000

var (
	hundred   = decimal.NewFromInt(100)
	maxAmount = decimal.NewFromInt(MaxAmountCents)
)

// ParseAmountCents reads a signed amount such as "-12,99", "1 234,56 €", "(8.00)"
// or "12,00-" and returns it in cents, rounded half away from zero.
func ParseAmountCents(s string) (int64, error) {
	cleaned := cleanAmount(s)
	if cleaned == "" {
		return 0, errors.New("empty amount")
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	if strings.HasSuffix(cleaned, "-") {
		negative = !negative
		cleaned = strings.TrimSuffix(cleaned, "-")
	}
	if strings.HasPrefix(cleaned, "-") {
		negative = !negative
		cleaned = strings.TrimPrefix(cleaned, "-")
	} else {
		cleaned = strings.TrimPrefix(cleaned, "+")
	}

	cleaned = normalizeSeparators(cleaned)
	if cleaned == "" || strings.ContainsAny(cleaned, "+-eE") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("amount %q is out of range", s)
	}
	if negative {
		cents = cents.Neg()
	}
	return cents.IntPart(), nil
}

var currencyMarkers = []string{"€", "$", "£", "EUR", "USD", "GBP", "eur"}

func cleanAmount(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f', '\u2009', '\'':
			return -1
		}
		return r
	}, s)
	for _, marker := range currencyMarkers {
		s = strings.ReplaceAll(s, marker, "")
	}
	return s
}

// normalizeSeparators drops thousands separators and turns a decimal comma into a period.
// When both separators appear the last one is the decimal mark.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}
