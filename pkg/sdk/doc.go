// Package cardquery is a Go client for the cardquery translation service.
//
// The client turns natural-language card searches into search syntax by
// calling the service. When the service cannot be reached, Translate
// answers from the bundled offline compiler (pkg/fallback) instead of
// failing, and marks the result with SourceFallback.
//
//	client, _ := cardquery.New(
//	    cardquery.WithBaseURL("https://cardquery.example"),
//	    cardquery.WithAPIKey(os.Getenv("CARDQUERY_API_KEY")),
//	)
//	tr, _ := client.Translate(ctx, "5 mana mono red creature")
//	fmt.Println(tr.Compiled) // c=r id=r t:creature mv=5
//
// Searches run the translated query against the card database:
//
//	page, _ := client.Search(ctx, "cheap pauper removal", cardquery.SearchOptions{Order: "usd"})
//	for _, card := range page.Cards {
//	    fmt.Println(card.Name)
//	}
package cardquery
