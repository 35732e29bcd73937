package techstack

import (
	"bytes"
	"encoding/hex"
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/sha3"

	"github.com/nao1215/storeprofile/internal/model"
)

// themeNamePattern captures the name from `Shopify.theme = {"name":"Dawn",...}`.
var themeNamePattern = regexp.MustCompile(`Shopify\.theme\s*=\s*\{[^}]*?"name"\s*:\s*"([^"]+)"`)

// Detector fingerprints homepage documents.
type Detector struct {
	signatures []Signature
	logger     *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithSignatures appends app signatures to the built-in table.
func WithSignatures(sigs ...Signature) Option {
	return func(d *Detector) {
		d.signatures = append(d.signatures, sigs...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDetector creates a Detector using DefaultSignatures.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		signatures: slices.Clone(DefaultSignatures),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect fingerprints doc with the built-in signatures.
func Detect(doc []byte) model.TechFingerprint {
	return NewDetector().Detect(doc)
}

// Detect fingerprints one homepage document. It never fails; a document
// that matches nothing yields an empty fingerprint.
func (d *Detector) Detect(doc []byte) model.TechFingerprint {
	lower := strings.ToLower(string(doc))

	fp := model.TechFingerprint{
		AppsDetected:   []string{},
		AppsByCategory: map[string][]string{},
		Pixels:         map[string]bool{},
	}

	for _, sig := range d.signatures {
		if !containsAny(lower, sig.Needles) || slices.Contains(fp.AppsDetected, sig.Name) {
			continue
		}
		fp.AppsDetected = append(fp.AppsDetected, sig.Name)
		fp.AppsByCategory[sig.Category] = append(fp.AppsByCategory[sig.Category], sig.Name)
	}
	slices.Sort(fp.AppsDetected)

	for _, p := range pixelSignatures {
		if containsAny(lower, p.needles) {
			fp.Pixels[p.name] = true
		}
	}

	for _, h := range themeHeuristics {
		if containsAny(lower, h.needles) {
			hint := h.hint
			fp.ThemeHint = &hint
		}
	}

	sum := sha3.Sum256(doc)
	fp.SnapshotSHA3 = hex.EncodeToString(sum[:])

	d.inspectMarkup(doc, &fp)
	return fp
}

// inspectMarkup fills in what needs a parsed document: the generator,
// the external script hosts and the declared theme name.
func (d *Detector) inspectMarkup(doc []byte, fp *model.TechFingerprint) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		d.logger.Debug("homepage is not parseable markup", "error", err)
		return
	}

	fp.Generator = strings.TrimSpace(page.Find(`meta[name="generator"]`).First().AttrOr("content", ""))

	hosts := map[string]bool{}
	page.Find("script").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			if host := scriptHost(src); host != "" {
				hosts[host] = true
			}
			return
		}
		if m := themeNamePattern.FindStringSubmatch(s.Text()); m != nil {
			name := strings.TrimSpace(m[1])
			if name != "" {
				fp.ThemeHint = &name
			}
		}
	})

	for h := range hosts {
		fp.ScriptHosts = append(fp.ScriptHosts, h)
	}
	slices.Sort(fp.ScriptHosts)
}

func scriptHost(src string) string {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
