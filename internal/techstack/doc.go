// Package techstack fingerprints the technology behind a storefront from
// its homepage markup.
//
// Detection is substring based: a signature matches when any of its
// needles occurs in the lowercased document. This is rough by nature and
// meant to show which apps, pixels and theme a store probably uses, not
// to prove it. The parsed document additionally yields the hosts of
// external scripts, the generator meta tag and, when the storefront
// exposes it, the theme name declared in Shopify.theme.
package techstack
