// Package main provides the entry point for the storeprofile CLI.
//
// storeprofile builds a profile of a public storefront from its catalog
// endpoints, sitemap and homepage: price and product-type statistics,
// collections, SEO footprint, tech stack and text clusters of products.
//
// Usage:
//
//	storeprofile profile <store-url>
//	storeprofile profile <store-url> <store-url> --batch 4
//
// See --help for all available options.
package main

// main is the entry point for storeprofile.
func main() {
	Execute()
}
