//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/csvimport"
	"github.com/castlemilk/leakfinder/backend/internal/service"
)

// demoLabels are debited every month of the demo export.
var demoLabels = []struct {
	label  string
	amount string
}{
	{"PRLV SEPA NETFLIX.COM", "-13,49"},
	{"PRLV SEPA SPOTIFY AB", "-10,99"},
	{"CB BASIC FIT", "-29,99"},
	{"FRAIS TENUE DE COMPTE", "-2,50"},
	{"COTISATION CARTE VISA PREMIER", "-11,25"},
}

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8111"
	}

	userID := os.Getenv("USER_ID")
	if userID == "" {
		userID = "local-dev-user"
	}

	authToken := os.Getenv("AUTH_TOKEN")

	log.Printf("Seeding data for user: %s", userID)
	log.Printf("API URL: %s", apiURL)

	opts := []connect.ClientOption{connect.WithCodec(service.Codec())}
	if authToken != "" {
		log.Println("Using provided auth token")
		opts = append(opts, connect.WithInterceptors(headerInterceptor("Authorization", "Bearer "+authToken)))
	} else {
		log.Println("No auth token provided - backend must be running with SKIP_AUTH=true or the memory store")
		opts = append(opts, connect.WithInterceptors(headerInterceptor("X-Debug-Impersonate-User", userID)))
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	analyze := connect.NewClient[service.AnalyzeCSVRequest, service.AnalyzeResponse](
		httpClient, apiURL+service.AnalyzeCSVProcedure, opts...)
	getPlan := connect.NewClient[service.GetCurrentPlanRequest, service.GetCurrentPlanResponse](
		httpClient, apiURL+service.GetCurrentPlanProcedure, opts...)

	ctx := context.Background()

	resp, err := analyze.CallUnary(ctx, connect.NewRequest(&service.AnalyzeCSVRequest{
		Filename:  "demo-export.csv",
		Content:   []byte(demoCSV(time.Now())),
		HasHeader: true,
		Mapping:   csvimport.ColumnMapping{DateCol: 0, LabelCol: 1, AmountCol: 2},
	}))
	if err != nil {
		log.Fatalf("Failed to analyze demo export: %v", err)
	}
	log.Printf("Scan %s: %d findings, %d cents per year", resp.Msg.Scan.ID, len(resp.Msg.Findings), resp.Msg.Scan.TotalGainCents)

	// Verify the plan is queryable
	plan, err := getPlan.CallUnary(ctx, connect.NewRequest(&service.GetCurrentPlanRequest{}))
	if err != nil {
		log.Fatalf("Failed to fetch current plan: %v", err)
	}
	if plan.Msg.Plan == nil {
		log.Fatal("Current plan is empty after seeding")
	}
	for _, item := range plan.Msg.Plan.Items {
		log.Printf("  %d. %s (%s)", item.Rank, item.Title, item.StepsSource)
	}
	log.Println("Successfully seeded demo data!")
}

// demoCSV builds six months of a French bank export ending last month.
func demoCSV(now time.Time) string {
	var b strings.Builder
	b.WriteString("Date;Libelle;Montant\n")
	start := time.Date(now.Year(), now.Month(), 5, 0, 0, 0, 0, time.UTC).AddDate(0, -6, 0)
	for m := 0; m < 6; m++ {
		day := start.AddDate(0, m, 0)
		for _, d := range demoLabels {
			fmt.Fprintf(&b, "%s;%s;%s\n", day.Format("02/01/2006"), d.label, d.amount)
		}
		fmt.Fprintf(&b, "%s;CARREFOUR CITY;-%d,%02d\n", day.AddDate(0, 0, 3).Format("02/01/2006"), 20+m*7, m*13%100)
	}
	return b.String()
}

func headerInterceptor(key, value string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set(key, value)
			return next(ctx, req)
		}
	}
}
