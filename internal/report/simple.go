package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/storeprofile/internal/model"
)

// SimpleWriter outputs a short human-readable summary for the terminal:
// the store, its product count, price statistics, the leading product
// types and tags, and one line per optional section.
//
// Plain text without ANSI colors keeps the output pipeable.
type SimpleWriter struct {
	baseWriter

	// topTypes and topTags limit the frequency tables.
	topTypes int
	topTags  int

	// sources, when set, are listed so the user sees which sources degraded.
	sources []model.SourceResult
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithTopN sets how many product types and tags are listed.
func WithTopN(types, tags int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		if types > 0 {
			w.topTypes = types
		}
		if tags > 0 {
			w.topTags = tags
		}
	}
}

// WithSources lists the source outcomes of the run below the summary.
func WithSources(sources []model.SourceResult) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.sources = sources
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		topTypes:   5,
		topTags:    10,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *SimpleWriter) Write(profile *model.StoreProfile) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, profile)
	w.writePrices(&sb, profile.PriceStats)
	w.writeCounts(&sb, "TOP PRODUCT TYPES", profile.ProductTypes.Top(w.topTypes))
	w.writeCounts(&sb, "TOP TAGS", profile.TopTags.Top(w.topTags))
	w.writeSections(&sb, profile)
	w.writeSources(&sb)

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, p *model.StoreProfile) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          STORE PROFILE\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Store:     %s\n", p.StoreURL)
	fmt.Fprintf(sb, "Products:  %d\n", p.NProducts)
	if !p.GeneratedAt.IsZero() {
		fmt.Fprintf(sb, "Generated: %s\n", p.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePrices(sb *strings.Builder, s *model.NumericSummary) {
	writeSectionTitle(sb, "PRICES")
	if s == nil {
		sb.WriteString("  No priced products\n\n")
		return
	}
	fmt.Fprintf(sb, "  priced: %d\n", s.Count)
	fmt.Fprintf(sb, "  min:    %.2f\n", s.Min)
	fmt.Fprintf(sb, "  median: %.2f\n", s.Median)
	fmt.Fprintf(sb, "  mean:   %.2f\n", s.Mean)
	fmt.Fprintf(sb, "  max:    %.2f\n", s.Max)
	fmt.Fprintf(sb, "  p25:    %.2f   p75: %.2f\n", s.P25, s.P75)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, title string, counts model.Counts) {
	if len(counts) == 0 {
		return
	}
	writeSectionTitle(sb, title)
	for _, c := range counts {
		fmt.Fprintf(sb, "  %-40s %d\n", truncateString(c.Name, 40), c.Count)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSections(sb *strings.Builder, p *model.StoreProfile) {
	writeSectionTitle(sb, "SECTIONS")

	if c := p.Collections; c != nil {
		fmt.Fprintf(sb, "  [+] collections: %d (%d with product counts)\n", c.NCollections, c.CollectionsWithProductCounts)
	} else {
		sb.WriteString("  [-] collections: unavailable\n")
	}

	if s := p.Sitemap; s != nil {
		fmt.Fprintf(sb, "  [+] sitemap:     %d URLs\n", s.TotalURLs)
	} else {
		sb.WriteString("  [-] sitemap:     unavailable\n")
	}

	if t := p.TechStack; t != nil {
		theme := "unknown theme"
		if t.ThemeHint != nil {
			theme = "theme " + *t.ThemeHint
		}
		fmt.Fprintf(sb, "  [+] tech stack:  %d apps, %d pixels, %s\n", len(t.AppsDetected), len(t.DetectedPixels()), theme)
	} else {
		sb.WriteString("  [-] tech stack:  unavailable\n")
	}

	if c := p.Clustering; c != nil {
		fmt.Fprintf(sb, "  [+] clustering:  %d clusters\n", c.NClusters)
	} else {
		sb.WriteString("  [-] clustering:  unavailable\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSources(sb *strings.Builder) {
	var failed []model.SourceResult
	for _, s := range w.sources {
		if !s.OK && !s.Skipped {
			failed = append(failed, s)
		}
	}
	if len(failed) == 0 {
		return
	}

	writeSectionTitle(sb, "DEGRADED SOURCES")
	for _, s := range failed {
		fmt.Fprintf(sb, "  %s: %s\n", s.Source, s.Reason)
	}
	sb.WriteString("\n")
}

func writeSectionTitle(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
}
