package csvimport

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("detects semicolon delimiter and header", func(t *testing.T) {
		data := []byte("Date;Libelle;Montant\n15/01/2024;NETFLIX;-12,99\n15/02/2024;NETFLIX;-12,99\n")
		table, err := Parse(data, ParseOptions{HasHeader: true})
		require.NoError(t, err)
		assert.Equal(t, ";", table.Delimiter)
		assert.Equal(t, []string{"Date", "Libelle", "Montant"}, table.Header)
		assert.Len(t, table.Rows, 2)
		assert.Equal(t, "-12,99", table.Rows[0][2])
	})

	t.Run("comma delimiter with quoted decimal comma", func(t *testing.T) {
		data := []byte("2024-01-15,\"SPOTIFY, AB\",\"-9,99\"\n")
		table, err := Parse(data, ParseOptions{})
		require.NoError(t, err)
		assert.Equal(t, ",", table.Delimiter)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, []string{"2024-01-15", "SPOTIFY, AB", "-9,99"}, table.Rows[0])
	})

	t.Run("strips BOM and skips blank lines", func(t *testing.T) {
		data := []byte("\xEF\xBB\xBFdate;label;amount\n\n01/01/2024;A;-1\n;;\n02/01/2024;B;-2\n")
		table, err := Parse(data, ParseOptions{HasHeader: true})
		require.NoError(t, err)
		assert.Equal(t, "date", table.Header[0])
		assert.Len(t, table.Rows, 2)
	})

	t.Run("tolerates ragged rows", func(t *testing.T) {
		data := []byte("a;b;c\nd;e\nf;g;h;i\n")
		table, err := Parse(data, ParseOptions{})
		require.NoError(t, err)
		assert.Len(t, table.Rows, 3)
		assert.Equal(t, 4, table.ColumnCount())
	})

	t.Run("caps rows and marks truncation", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 10; i++ {
			fmt.Fprintf(&b, "01/01/2024;row %d;-1\n", i)
		}
		table, err := Parse([]byte(b.String()), ParseOptions{MaxRows: 4})
		require.NoError(t, err)
		assert.Len(t, table.Rows, 4)
		assert.True(t, table.Truncated)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := Parse([]byte("  \n\n"), ParseOptions{})
		assert.ErrorIs(t, err, ErrEmptyFile)
	})
}

func TestPreviewCapsAtPreviewRows(t *testing.T) {
	var b strings.Builder
	for i := 0; i < MaxPreviewRows+50; i++ {
		fmt.Fprintf(&b, "01/01/2024;row %d;-1\n", i)
	}
	table, err := Preview([]byte(b.String()), false)
	require.NoError(t, err)
	assert.Len(t, table.Rows, MaxPreviewRows)
	assert.True(t, table.Truncated)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"15/01/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"5/3/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"15-01-2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15.01.2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15/01/24", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2 Jan 2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	for _, bad := range []string{"", "31/02/2024", "13/13/2024", "yesterday", "2024-02-30"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseDate(bad)
			assert.Error(t, err)
		})
	}
}

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"-12,99", -1299},
		{"-12.99", -1299},
		{"12", 1200},
		{"+8,00", 800},
		{"1 234,56", 123456},
		{"1 234,56 €", 123456},
		{"1.234,56", 123456},
		{"1,234.56", 123456},
		{"-1,234,567", -123456700},
		{"12,00-", -1200},
		{"(8.00)", -800},
		{"€ -4,50", -450},
		{"0,005", 1},
		{"-0,005", -1},
		{"9,994", 999},
		{"-1 000 000 000 000,00", -MaxAmountCents},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmountCents(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{
		"", "abc", "--", "12-3", "€",
		"-1e30", "1E3", "2,5e2",
		"-99999999999999999999",
		"1 000 000 000 000,01",
	} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseAmountCents(bad)
			assert.Error(t, err)
		})
	}
}

func TestColumnMappingValidate(t *testing.T) {
	assert.NoError(t, ColumnMapping{DateCol: 0, LabelCol: 1, AmountCol: 2}.Validate(3))
	assert.ErrorIs(t, ColumnMapping{DateCol: -1, LabelCol: 1, AmountCol: 2}.Validate(3), ErrInvalidMapping)
	assert.ErrorIs(t, ColumnMapping{DateCol: 0, LabelCol: 1, AmountCol: 3}.Validate(3), ErrInvalidMapping)
	assert.ErrorIs(t, ColumnMapping{DateCol: 0, LabelCol: 0, AmountCol: 2}.Validate(3), ErrInvalidMapping)
}

func TestNormalizeRow(t *testing.T) {
	mapping := ColumnMapping{DateCol: 0, LabelCol: 1, AmountCol: 2}

	t.Run("valid row", func(t *testing.T) {
		tx, ok := NormalizeRow([]string{"15/01/2024", "PRLV NETFLIX", "-12,99"}, mapping)
		require.True(t, ok)
		assert.Equal(t, "PRLV NETFLIX", tx.RawLabel)
		assert.Equal(t, int64(-1299), tx.AmountCents)
		assert.Equal(t, 15, tx.OccurredOn.Day())
	})

	t.Run("drops rows it cannot read", func(t *testing.T) {
		rows := [][]string{
			{"15/01/2024", "NETFLIX"},
			{"", "NETFLIX", "-12,99"},
			{"15/01/2024", "  ", "-12,99"},
			{"31/02/2024", "NETFLIX", "-12,99"},
			{"15/01/2024", "NETFLIX", "n/a"},
		}
		for _, row := range rows {
			_, ok := NormalizeRow(row, mapping)
			assert.False(t, ok, "row %v", row)
		}
	})
}

func TestNormalizeTable(t *testing.T) {
	table := &Table{Rows: [][]string{
		{"15/01/2024", "NETFLIX", "-12,99"},
		{"bad", "NETFLIX", "-12,99"},
		{"15/02/2024", "NETFLIX", "-12,99"},
	}}
	res := NormalizeTable(table, ColumnMapping{DateCol: 0, LabelCol: 1, AmountCol: 2})
	assert.Len(t, res.Transactions, 2)
	assert.Equal(t, 1, res.Dropped)
}
