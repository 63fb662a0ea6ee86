// Command leakscan runs the leak finder on a local bank export or document and
// prints the findings and action plan. Nothing is stored.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/castlemilk/leakfinder/backend/internal/config"
	"github.com/castlemilk/leakfinder/backend/internal/csvimport"
	"github.com/castlemilk/leakfinder/backend/internal/detection"
	"github.com/castlemilk/leakfinder/backend/internal/documents"
	"github.com/castlemilk/leakfinder/backend/internal/llm"
	"github.com/castlemilk/leakfinder/backend/internal/logger"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/plan"
	"github.com/fatih/color"
)

var (
	csvFile   = flag.String("csv", "", "Bank export to analyze (comma or semicolon separated).")
	docFile   = flag.String("doc", "", "Energy bill, insurance contract or tax notice (PDF or text) to analyze.")
	header    = flag.Bool("header", true, "CSV has a header line.")
	dateCol   = flag.Int("date", 0, "0-based column holding the date.")
	labelCol  = flag.Int("label", 1, "0-based column holding the label.")
	amountCol = flag.Int("amount", 2, "0-based column holding the signed amount.")
	preview   = flag.Bool("preview", false, "Only print the first rows and detected delimiter.")
	provider  = flag.String("ai", "", "Step generator: gemini, anthropic or none. Defaults to AI_PROVIDER.")
	debug     = flag.Bool("debug", false, "Log generator fallbacks.")
)

var errc = color.New(color.BgRed, color.FgWhite).PrintfFunc()

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: leakscan -csv export.csv [-date 0 -label 1 -amount 2]\n")
	fmt.Fprintf(os.Stderr, "       leakscan -doc bill.pdf\n\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if (*csvFile == "") == (*docFile == "") {
		usage()
		os.Exit(2)
	}

	path := *csvFile
	if path == "" {
		path = *docFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		errc("Unable to read %s: %v", path, err)
		fmt.Println()
		os.Exit(1)
	}

	if *csvFile != "" && *preview {
		if err := printPreview(data); err != nil {
			errc("%v", err)
			fmt.Println()
			os.Exit(1)
		}
		return
	}

	var findings []*models.Finding
	if *csvFile != "" {
		findings, err = scanCSV(data)
	} else {
		findings, err = scanDocument(data)
	}
	if err != nil {
		errc("%v", err)
		fmt.Println()
		os.Exit(1)
	}

	if len(findings) == 0 {
		color.New(color.FgYellow).Println("No recurring leak found.")
		return
	}
	printFindings(findings)

	builder, err := newBuilder()
	if err != nil {
		errc("%v", err)
		fmt.Println()
		os.Exit(1)
	}
	printPlan(builder.Build(context.Background(), findings))
}

func printPreview(data []byte) error {
	table, err := csvimport.Preview(data, *header)
	if err != nil {
		return fmt.Errorf("unable to read csv: %w", err)
	}
	color.New(color.BgBlue, color.FgWhite).Printf(" delimiter %q, %d columns ", table.Delimiter, table.ColumnCount())
	fmt.Println()
	if len(table.Header) > 0 {
		printRow(-1, table.Header)
	}
	for i, row := range table.Rows {
		if i >= 10 {
			break
		}
		printRow(i, row)
	}
	return nil
}

func printRow(idx int, row []string) {
	prefix := "  head"
	if idx >= 0 {
		prefix = fmt.Sprintf("%6d", idx)
	}
	color.New(color.FgCyan).Printf("%s ", prefix)
	for col, cell := range row {
		color.New(color.FgYellow).Printf("[%d]", col)
		fmt.Printf(" %-20s ", cell)
	}
	fmt.Println()
}

func scanCSV(data []byte) ([]*models.Finding, error) {
	table, err := csvimport.Parse(data, csvimport.ParseOptions{HasHeader: *header})
	if err != nil {
		return nil, fmt.Errorf("unable to read csv: %w", err)
	}
	mapping := csvimport.ColumnMapping{DateCol: *dateCol, LabelCol: *labelCol, AmountCol: *amountCol}
	if err := mapping.Validate(table.ColumnCount()); err != nil {
		return nil, err
	}

	res := csvimport.NormalizeTable(table, mapping)
	if len(res.Transactions) == 0 {
		return nil, fmt.Errorf("no row could be read with columns date=%d label=%d amount=%d", *dateCol, *labelCol, *amountCol)
	}
	color.New(color.BgBlue, color.FgWhite).Printf(" %d rows read, %d skipped ", len(res.Transactions), res.Dropped)
	if table.Truncated {
		color.New(color.BgYellow, color.FgBlack).Printf(" truncated at %d rows ", csvimport.MaxAnalyzeRows)
	}
	fmt.Println()

	return detection.Detect(res.Transactions).Findings, nil
}

func scanDocument(data []byte) ([]*models.Finding, error) {
	a := documents.Analyze(data)
	if strings.TrimSpace(a.Text) == "" {
		return nil, fmt.Errorf("no readable text in document")
	}
	color.New(color.BgBlue, color.FgWhite).Printf(" %s, %d pages ", documents.Classify(a.Text), a.PageCount)
	fmt.Println()
	return documents.DetectFindings(a), nil
}

func newBuilder() (*plan.Builder, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *provider != "" {
		cfg.AI.Provider = *provider
	}

	log := logger.Nop()
	if *debug {
		log = logger.New()
	}

	gen, err := llm.NewFromConfig(context.Background(), cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("unable to create step generator: %w", err)
	}
	return plan.NewBuilder(gen, plan.WithStepTimeout(cfg.AI.StepTimeout), plan.WithLogger(log), plan.WithClock(time.Now)), nil
}

func printFindings(findings []*models.Finding) {
	fmt.Println()
	for _, f := range findings {
		color.New(color.BgGreen, color.FgBlack).Printf(" %-12s ", f.Category)
		color.New(color.BgWhite, color.FgBlack).Printf(" %-40s ", f.Title)
		color.New(color.BgRed, color.FgWhite).Printf(" %10s/yr ", detection.FormatCents(f.GainEstimatedYearlyCents))
		color.New(color.FgCyan).Printf(" %.0f%% ", f.Confidence*100)
		fmt.Println()
		for _, step := range f.Explain.CalcSteps {
			fmt.Printf("    %s\n", step)
		}
	}
	color.New(color.FgGreen).Printf("\nTotal: %s per year\n\n", detection.FormatCents(detection.TotalGain(findings)))
}

func printPlan(items []*models.PlanItem) {
	color.New(color.BgMagenta, color.FgWhite).Printf(" ACTION PLAN ")
	fmt.Println()
	for _, item := range items {
		color.New(color.FgYellow).Printf("%d. %s", item.Rank, item.Title)
		color.New(color.FgCyan).Printf(" (%s, ~%d min, steps: %s)\n", detection.FormatCents(item.GainEstimatedYearlyCents), item.EffortMinutes, item.StepsSource)
		for i, step := range item.Steps {
			fmt.Printf("   %d) %s\n", i+1, step)
		}
	}
}
