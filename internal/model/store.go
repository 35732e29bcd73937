package model

import (
	"net/url"
	"strings"
)

// NormalizeStoreURL reduces user input to the canonical store origin
// "scheme://host[:port]". Input without a scheme is treated as https.
// Path, query and fragment are discarded. Malformed input yields a
// degenerate origin rather than an error.
func NormalizeStoreURL(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		scheme, rest, _ := strings.Cut(s, "://")
		host, _, _ := strings.Cut(rest, "/")
		return strings.ToLower(scheme) + "://" + host
	}
	return u.Scheme + "://" + u.Host
}

// StoreSlug returns a filesystem-friendly name for a store reference.
// The host of the normalized reference has "." and ":" replaced by "_".
func StoreSlug(storeURL string) string {
	ref := NormalizeStoreURL(storeURL)
	_, host, _ := strings.Cut(ref, "://")
	return strings.NewReplacer(".", "_", ":", "_").Replace(host)
}
