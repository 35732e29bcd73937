// Package log builds the slog loggers used by storeprofile and redacts
// secrets before they reach the output.
//
// The RedactingHandler masks:
//   - values of sensitive attribute keys (Authorization, Cookie, tokens, passwords)
//   - values that look like Shopify access tokens (shpat_, shpss_, shpca_, shppa_)
//   - bearer and basic credentials
//   - secret query parameters inside URL values (access_token, key, token, signature)
//
// Even in verbose mode, these values are masked so that logs can be shared.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("fetching page", "url", "https://shop.example.com/products.json?page=2")
package log
