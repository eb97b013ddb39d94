// Package pixxearch is a Go client for the pixxearch picture search API.
//
// Client is a thin HTTP wrapper: one call per endpoint, errors decoded
// into *APIError.
//
//	client, _ := pixxearch.New("http://localhost:8080")
//	state := pixxearch.ParseState("q=eiffel&l=Tower")
//	page, _ := client.Pictures(ctx, state)
//
// Browser keeps the facet state of one search session and refetches on
// every change. Calls may overlap; only the newest call updates the view,
// older ones return ErrSuperseded.
//
//	b := pixxearch.NewBrowser(client)
//	b.Search(ctx, "sunset")
//	b.AddFacet(ctx, pixxearch.KindColor, "#ff8800")
//	view, _ := b.NextPage(ctx)
//	fmt.Println(view.Query, len(view.Pictures), view.Total)
package pixxearch
