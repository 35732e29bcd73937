// Package crawler fetches the public JSON and HTML endpoints of a storefront.
//
// # Components
//
//   - Client: HTTP client with per-request timeout, request rate limit,
//     body size cap, User-Agent and extra headers
//   - Paginate: walks a paginated JSON listing until an empty or short page
//   - FetchProducts / NormalizeProducts: the product table with derived fields
//   - FetchCollections / NormalizeCollections: the collection table
//   - FetchHomepage: the raw homepage document for tech fingerprinting
//   - ExtractText: visible text of an HTML fragment
//
// # Usage
//
//	client := crawler.NewClient(crawler.WithTimeout(10*time.Second))
//	products, requests, err := crawler.FetchProducts(ctx, client, "https://shop.example.com", 250)
//
// # Politeness
//
// Every request waits on a token bucket limiter (two requests per second
// by default) and identifies itself with a descriptive User-Agent.
// Only GET requests are issued, so the upstream store is never modified.
package crawler
