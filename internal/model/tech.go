package model

// Pixel names reported by the tech fingerprint.
const (
	PixelGoogleAnalytics  = "Google Analytics / gtag"
	PixelGoogleTagManager = "Google Tag Manager"
	PixelFacebook         = "Facebook Pixel"
	PixelSnap             = "Snap Pixel"
	PixelTikTok           = "TikTok Pixel"
	PixelHotjar           = "Hotjar"
)

// Pixels lists every known pixel in report order.
var Pixels = []string{
	PixelGoogleAnalytics,
	PixelGoogleTagManager,
	PixelFacebook,
	PixelSnap,
	PixelTikTok,
	PixelHotjar,
}

// TechFingerprint is what the homepage markup reveals about the store's stack.
type TechFingerprint struct {
	// AppsDetected is sorted and free of duplicates.
	AppsDetected []string `json:"apps_detected"`
	// AppsByCategory groups the detected apps by signature category.
	AppsByCategory map[string][]string `json:"apps_by_category,omitempty"`
	// Pixels maps a pixel name to true for each pixel that was found.
	Pixels map[string]bool `json:"pixels"`
	// ThemeHint is a best-effort guess at the storefront theme.
	ThemeHint *string `json:"theme_hint"`
	// Generator is the content of <meta name="generator">, if any.
	Generator string `json:"generator,omitempty"`
	// ScriptHosts are the distinct hosts of external scripts, sorted.
	ScriptHosts []string `json:"script_hosts,omitempty"`
	// SnapshotSHA3 is the hex SHA3-256 digest of the homepage document.
	SnapshotSHA3 string `json:"snapshot_sha3,omitempty"`
}

// HasPixel reports whether the named pixel was detected.
func (t *TechFingerprint) HasPixel(name string) bool {
	if t == nil {
		return false
	}
	return t.Pixels[name]
}

// DetectedPixels returns the detected pixel names in report order.
func (t *TechFingerprint) DetectedPixels() []string {
	var out []string
	for _, p := range Pixels {
		if t.HasPixel(p) {
			out = append(out, p)
		}
	}
	return out
}
