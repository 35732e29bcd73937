package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/storeprofile/internal/model"
)

// Row limits of the Markdown tables.
const (
	maxProductTypeRows  = 20
	maxCollectionRows   = 20
	maxTagRows          = 30
	maxPieSlices        = 8
	maxExampleTitleLen  = 40
	maxExampleURLLength = 100
)

// MarkdownWriter outputs the human-readable report document.
// Sections appear only when the corresponding summary is not empty.
type MarkdownWriter struct {
	baseWriter

	// charts adds mermaid pie charts of product types and URL types.
	charts bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithCharts enables or disables the mermaid pie charts.
func WithCharts(enabled bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.charts = enabled
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{baseWriter: newBaseWriter(output), charts: true}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the profile in Markdown format.
func (w *MarkdownWriter) Write(profile *model.StoreProfile) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, profile)
	w.writePrices(md, profile)
	w.writeProductTypes(md, profile)
	w.writeCollections(md, profile.Collections)
	w.writeSitemap(md, profile.Sitemap)
	w.writeTechStack(md, profile.TechStack)
	w.writeClusters(md, profile.Clustering)
	w.writeTags(md, profile.TopTags)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, p *model.StoreProfile) {
	md.H1("Store profile: " + p.StoreURL)
	md.PlainText("")
	items := []string{
		"Store slug: `" + p.StoreSlug + "`",
		"Total products (from `/products.json`): **" + strconv.Itoa(p.NProducts) + "**",
	}
	if !p.GeneratedAt.IsZero() {
		items = append(items, "Generated: "+p.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writePrices(md *markdown.Markdown, p *model.StoreProfile) {
	s := p.PriceStats
	if s == nil {
		return
	}

	md.H2("Price overview")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"min", formatFloat(s.Min)},
			{"max", formatFloat(s.Max)},
			{"mean", formatFloat(s.Mean)},
			{"median", formatFloat(s.Median)},
			{"p25", formatFloat(s.P25)},
			{"p75", formatFloat(s.P75)},
		},
	})
	md.PlainText("")
	if s.Count < p.NProducts {
		md.Notef("%d of %d products have no parseable price and are excluded.", p.NProducts-s.Count, p.NProducts)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeProductTypes(md *markdown.Markdown, p *model.StoreProfile) {
	if len(p.ProductTypes) == 0 {
		return
	}

	md.H2("Top product types")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Product type", "Count"},
		Rows:   countRows(p.ProductTypes.Top(maxProductTypeRows), false),
	})
	md.PlainText("")

	if w.charts && len(p.ProductTypes) > 1 {
		w.writePieChart(md, "Product types", p.ProductTypes)
	}
}

func (w *MarkdownWriter) writeCollections(md *markdown.Markdown, c *model.CollectionsSummary) {
	if c == nil {
		return
	}

	md.H2("Collections overview")
	md.PlainText("")
	md.BulletList(
		"Total collections (from `/collections.json`): **"+strconv.Itoa(c.NCollections)+"**",
		"Collections with explicit `products_count`: **"+strconv.Itoa(c.CollectionsWithProductCounts)+"**",
	)
	md.PlainText("")

	if len(c.TopCollectionsByProducts) > 0 {
		md.H3("Top collections by product count")
		md.PlainText("")
		rows := make([][]string, 0, len(c.TopCollectionsByProducts))
		for i, top := range c.TopCollectionsByProducts {
			if i == maxCollectionRows {
				break
			}
			rows = append(rows, []string{top.Title, "`" + top.Handle + "`", strconv.FormatInt(top.ProductsCount, 10)})
		}
		md.Table(markdown.TableSet{Header: []string{"Title", "Handle", "Products"}, Rows: rows})
		md.PlainText("")
	}

	if len(c.TemplateSuffixCounts) > 0 {
		md.H3("Collection templates")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Template suffix", "Count"},
			Rows:   countRows(c.TemplateSuffixCounts, true),
		})
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSitemap(md *markdown.Markdown, s *model.SitemapSummary) {
	if s == nil {
		return
	}

	md.H2("Sitemap / SEO footprint")
	md.PlainText("")
	items := []string{"Total URLs in sitemap: **" + strconv.Itoa(s.TotalURLs) + "**"}
	if s.LatestLastmod != nil {
		items = append(items, "Latest `lastmod`: `"+*s.LatestLastmod+"`")
	}
	md.BulletList(items...)
	md.PlainText("")

	if len(s.ByType) > 0 {
		md.H3("URLs by type")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: []string{"Type", "Count"}, Rows: countRows(s.ByType, false)})
		md.PlainText("")
		if w.charts && len(s.ByType) > 1 {
			w.writePieChart(md, "Sitemap URLs by type", s.ByType)
		}
	}

	if len(s.ExampleURLs) > 0 {
		md.H3("Example URLs by type")
		md.PlainText("")
		for _, t := range model.URLTypes {
			urls := s.ExampleURLs[t]
			if len(urls) == 0 {
				continue
			}
			md.PlainText("**" + string(t) + "**")
			md.PlainText("")
			shown := make([]string, len(urls))
			for i, u := range urls {
				shown[i] = truncateString(u, maxExampleURLLength)
			}
			md.BulletList(shown...)
			md.PlainText("")
		}
	}
}

func (w *MarkdownWriter) writeTechStack(md *markdown.Markdown, t *model.TechFingerprint) {
	if t == nil {
		return
	}

	md.H2("Tech stack (heuristic)")
	md.PlainText("")

	var items []string
	if t.ThemeHint != nil {
		items = append(items, "Theme hint: **"+*t.ThemeHint+"**")
	}
	if t.Generator != "" {
		items = append(items, "Generator: `"+t.Generator+"`")
	}
	if len(items) > 0 {
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(t.AppsDetected) > 0 {
		md.H3("Detected apps")
		md.PlainText("")
		rows := make([][]string, 0, len(t.AppsDetected))
		for _, app := range t.AppsDetected {
			rows = append(rows, []string{app, categoryOf(t, app)})
		}
		md.Table(markdown.TableSet{Header: []string{"App", "Category"}, Rows: rows})
		md.PlainText("")
	}

	md.H3("Tracking / pixels")
	md.PlainText("")
	rows := make([][]string, 0, len(model.Pixels))
	for _, name := range model.Pixels {
		detected := "no"
		if t.HasPixel(name) {
			detected = "yes"
		}
		rows = append(rows, []string{name, detected})
	}
	md.Table(markdown.TableSet{Header: []string{"Tool", "Detected"}, Rows: rows})
	md.PlainText("")

	if len(t.ScriptHosts) > 0 {
		md.Details("External script hosts ("+strconv.Itoa(len(t.ScriptHosts))+")", strings.Join(t.ScriptHosts, "\n"))
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeClusters(md *markdown.Markdown, c *model.ClusteringSummary) {
	if c == nil || len(c.Clusters) == 0 {
		return
	}

	md.H2("Product clustering (heuristic)")
	md.PlainText("")
	md.BulletList("Number of clusters: **" + strconv.Itoa(c.NClusters) + "**")
	md.PlainText("")

	rows := make([][]string, 0, len(c.Clusters))
	for _, cl := range c.Clusters {
		avg := ""
		if cl.AvgPrice != nil {
			avg = formatFloat(*cl.AvgPrice)
		}
		types := make([]string, len(cl.TopProductTypes))
		for i, t := range cl.TopProductTypes {
			types[i] = fmt.Sprintf("%s (%d)", t.Name, t.Count)
		}
		titles := make([]string, len(cl.ExampleTitles))
		for i, title := range cl.ExampleTitles {
			titles[i] = truncateString(title, maxExampleTitleLen)
		}
		rows = append(rows, []string{
			"C" + strconv.Itoa(cl.ClusterID),
			strconv.Itoa(cl.Size),
			avg,
			strings.Join(types, ", "),
			escapeCell(strings.Join(titles, "; ")),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Cluster", "Size", "Avg price", "Top product types", "Example titles"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeTags(md *markdown.Markdown, tags model.Counts) {
	if len(tags) == 0 {
		return
	}

	md.H2("Top tags")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Tag", "Count"},
		Rows:   countRows(tags.Top(maxTagRows), true),
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the leading entries of counts.
// The remainder is folded into an "Other" slice.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, title string, counts model.Counts) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)

	top := counts.Top(maxPieSlices)
	for _, c := range top {
		chart.LabelAndIntValue(cases.Title(language.English).String(c.Name), uint64(c.Count))
	}
	if rest := counts.Total() - top.Total(); rest > 0 {
		chart.LabelAndIntValue("Other", uint64(rest))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [storeprofile](https://github.com/nao1215/storeprofile)*")
}

func countRows(counts model.Counts, quote bool) [][]string {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		name := escapeCell(c.Name)
		if quote {
			name = "`" + name + "`"
		}
		rows[i] = []string{name, strconv.Itoa(c.Count)}
	}
	return rows
}

func categoryOf(t *model.TechFingerprint, app string) string {
	for category, apps := range t.AppsByCategory {
		for _, a := range apps {
			if a == app {
				return category
			}
		}
	}
	return "-"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// escapeCell keeps user text from breaking a table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
