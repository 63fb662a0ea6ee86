// algolia-setup applies the settings of the findings search index.
//
// Usage:
//
//	ALGOLIA_APP_ID=... ALGOLIA_ADMIN_KEY=... go run ./scripts/algolia-setup
//	ALGOLIA_APP_ID=... ALGOLIA_ADMIN_KEY=... ALGOLIA_INDEX=findings-staging go run ./scripts/algolia-setup
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/algolia/algoliasearch-client-go/v4/algolia/search"
)

// Attribute names match the records written by internal/search.
var (
	searchable = []string{"Title", "Brand", "Description", "GroupKey"}
	facets     = []string{"filterOnly(UserId)", "filterOnly(ScanId)", "searchable(Category)", "filterOnly(Status)"}
	numeric    = []string{"GainYearlyCents", "CreatedAtUnix"}
	ranking    = []string{"desc(GainYearlyCents)", "desc(CreatedAtUnix)"}
	// UserId is a tenant filter and never returned to clients
	retrieved = []string{"objectID", "ScanId", "Title", "Brand", "Category", "Status", "GainYearlyCents", "CreatedAtUnix"}
)

func findingsIndexSettings() *search.IndexSettings {
	hitsPerPage, maxFacetValues := int32(25), int32(20)
	oneTypo, twoTypos := int32(4), int32(8)
	return &search.IndexSettings{
		SearchableAttributes:          searchable,
		AttributesForFaceting:         facets,
		NumericAttributesForFiltering: numeric,
		CustomRanking:                 ranking,
		AttributesToRetrieve:          retrieved,
		AttributesToHighlight:         []string{"Title", "Brand"},
		HitsPerPage:                   &hitsPerPage,
		MaxValuesPerFacet:             &maxFacetValues,
		MinWordSizefor1Typo:           &oneTypo,
		MinWordSizefor2Typos:          &twoTypos,
	}
}

func main() {
	appID, adminKey := os.Getenv("ALGOLIA_APP_ID"), os.Getenv("ALGOLIA_ADMIN_KEY")
	if appID == "" || adminKey == "" {
		log.Fatal("ALGOLIA_APP_ID and ALGOLIA_ADMIN_KEY are required")
	}
	indexName := os.Getenv("ALGOLIA_INDEX")
	if indexName == "" {
		indexName = "findings"
	}

	client, err := search.NewClient(appID, adminKey)
	if err != nil {
		log.Fatalf("algolia client: %v", err)
	}

	resp, err := client.SetSettings(client.NewApiSetSettingsRequest(indexName, findingsIndexSettings()))
	if err != nil {
		log.Fatalf("set settings on %s: %v", indexName, err)
	}

	fmt.Printf("index %s (app %s): settings queued as task %d at %s\n", indexName, appID, resp.TaskID, resp.UpdatedAt)
	fmt.Printf("  searchable: %s\n", strings.Join(searchable, ", "))
	fmt.Printf("  facets:     %s\n", strings.Join(facets, ", "))
	fmt.Printf("  ranking:    %s\n", strings.Join(ranking, ", "))
}
