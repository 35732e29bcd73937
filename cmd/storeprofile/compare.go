package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/storeprofile/internal/config"
	"github.com/nao1215/storeprofile/internal/database"
	"github.com/nao1215/storeprofile/internal/model"
)

// Metric names of a comparison, in display order.
const (
	metricProducts    = "products"
	metricPriceMean   = "price mean"
	metricPriceMedian = "price median"
	metricCollections = "collections"
	metricSitemapURLs = "sitemap URLs"
	metricClusters    = "clusters"
)

// NewCompareCmd creates the compare command.
// It compares two profiles of a store stored in the history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <store-url>",
		Short: "Compare stored profiles of a store",
		Long: `Compare shows what changed between two stored profiles of a store.

By default the latest profile is compared with the one before it. It shows:
- Changes in catalog size, prices, collections, sitemap and clusters
- Apps and tracking pixels that appeared or disappeared
- A change of the storefront theme

A section that was unavailable in either profile is shown as N/A.

Examples:
  # Compare the latest two profiles
  storeprofile compare shop.example.com

  # Compare the latest profile with a specific run
  storeprofile compare --with-id 0b5c... shop.example.com

  # Compare with the first profile since a date
  storeprofile compare --since 2025-01-01 shop.example.com

  # Output the comparison as JSON
  storeprofile compare --json shop.example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().StringP("with-id", "i", "",
		"Compare with a specific run by ID (see 'storeprofile history <store-url>')")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first run on or after this date (format: YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// compareOptions selects the profiles to compare and the output format.
type compareOptions struct {
	withID   string
	since    string
	json     bool
	markdown bool
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	var (
		opts compareOptions
		err  error
	)
	if opts.withID, err = cmd.Flags().GetString("with-id"); err != nil {
		return err
	}
	if opts.since, err = cmd.Flags().GetString("since"); err != nil {
		return err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if opts.withID != "" && opts.since != "" {
		return errors.New("--with-id and --since cannot be used together")
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	prev, cur, err := selectProfiles(ctx, db, args[0], opts)
	if err != nil {
		return err
	}

	result := compareProfiles(prev, cur)
	out := cmd.OutOrStdout()
	switch {
	case opts.json:
		return outputComparisonJSON(out, result)
	case opts.markdown:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// selectProfiles returns the previous and the current profile of a store.
// The current profile is always the latest one.
func selectProfiles(ctx context.Context, db *database.ProfileDB, store string, opts compareOptions) (prev, cur *model.StoreProfile, err error) {
	storeURL := model.NormalizeStoreURL(store)

	history, err := db.History(ctx, storeURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get history: %w", err)
	}
	if len(history) == 0 {
		return nil, nil, fmt.Errorf("no profile history found for %s", storeURL)
	}

	prevID := ""
	switch {
	case opts.withID != "":
		prevID = opts.withID
	case opts.since != "":
		since, err := time.Parse("2006-01-02", opts.since)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		// History is newest first; the oldest matching run is the last one.
		for i := len(history) - 1; i >= 0; i-- {
			if !history[i].Timestamp.Before(since) {
				prevID = history[i].ID
				break
			}
		}
		if prevID == "" {
			return nil, nil, fmt.Errorf("no profiles found since %s", opts.since)
		}
		if prevID == history[0].ID {
			return nil, nil, fmt.Errorf("only one profile found since %s; at least 2 profiles are required for comparison", opts.since)
		}
	default:
		if len(history) < 2 {
			return nil, nil, fmt.Errorf("at least 2 profiles are required for comparison (found %d)", len(history))
		}
		prevID = history[1].ID
	}

	cur, err = db.ProfileByID(ctx, history[0].ID)
	if err != nil {
		return nil, nil, err
	}
	prev, err = db.ProfileByID(ctx, prevID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get profile %s: %w", prevID, err)
	}
	if prev.StoreURL != storeURL {
		return nil, nil, fmt.Errorf("profile %s belongs to %s, not %s", prevID, prev.StoreURL, storeURL)
	}
	return prev, cur, nil
}

// ComparisonResult holds the differences between two profiles of a store.
type ComparisonResult struct {
	// StoreURL is the compared store.
	StoreURL string `json:"store_url"`

	// PreviousGeneratedAt is when the previous profile was built.
	PreviousGeneratedAt time.Time `json:"previous_generated_at"`

	// CurrentGeneratedAt is when the current profile was built.
	CurrentGeneratedAt time.Time `json:"current_generated_at"`

	// Metrics lists the numeric changes in display order.
	Metrics []MetricChange `json:"metrics"`

	// AppsAdded and AppsRemoved are sorted app names.
	AppsAdded   []string `json:"apps_added,omitempty"`
	AppsRemoved []string `json:"apps_removed,omitempty"`

	// PixelsAdded and PixelsRemoved are pixel names in report order.
	PixelsAdded   []string `json:"pixels_added,omitempty"`
	PixelsRemoved []string `json:"pixels_removed,omitempty"`

	// ThemeChange is set when the theme hint differs.
	ThemeChange *ThemeChange `json:"theme_change,omitempty"`
}

// MetricChange is one numeric value of both profiles.
// A value is nil when its section was unavailable.
type MetricChange struct {
	Name     string   `json:"name"`
	Previous *float64 `json:"previous"`
	Current  *float64 `json:"current"`
}

// Delta returns current minus previous, or nil when either is missing.
func (m MetricChange) Delta() *float64 {
	if m.Previous == nil || m.Current == nil {
		return nil
	}
	d := *m.Current - *m.Previous
	return &d
}

// MarshalJSON adds the delta to the encoded metric.
func (m MetricChange) MarshalJSON() ([]byte, error) {
	type plain MetricChange
	return json.Marshal(struct {
		plain
		Delta *float64 `json:"delta"`
	}{plain(m), m.Delta()})
}

// ThemeChange records the previous and current theme hints.
type ThemeChange struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// compareProfiles compares two profiles of the same store.
func compareProfiles(prev, cur *model.StoreProfile) *ComparisonResult {
	result := &ComparisonResult{
		StoreURL:            cur.StoreURL,
		PreviousGeneratedAt: prev.GeneratedAt,
		CurrentGeneratedAt:  cur.GeneratedAt,
	}

	for _, name := range []string{metricProducts, metricPriceMean, metricPriceMedian, metricCollections, metricSitemapURLs, metricClusters} {
		result.Metrics = append(result.Metrics, MetricChange{
			Name:     name,
			Previous: metricValue(prev, name),
			Current:  metricValue(cur, name),
		})
	}

	prevApps, curApps := appsOf(prev), appsOf(cur)
	result.AppsAdded = difference(curApps, prevApps)
	result.AppsRemoved = difference(prevApps, curApps)

	for _, pixel := range model.Pixels {
		had, has := prev.TechStack.HasPixel(pixel), cur.TechStack.HasPixel(pixel)
		switch {
		case has && !had:
			result.PixelsAdded = append(result.PixelsAdded, pixel)
		case had && !has:
			result.PixelsRemoved = append(result.PixelsRemoved, pixel)
		}
	}

	if p, c := themeOf(prev), themeOf(cur); p != c {
		result.ThemeChange = &ThemeChange{Previous: p, Current: c}
	}
	return result
}

// metricValue extracts a named metric from a profile.
func metricValue(p *model.StoreProfile, name string) *float64 {
	v := func(f float64) *float64 { return &f }
	switch name {
	case metricProducts:
		return v(float64(p.NProducts))
	case metricPriceMean:
		if p.PriceStats != nil {
			return v(p.PriceStats.Mean)
		}
	case metricPriceMedian:
		if p.PriceStats != nil {
			return v(p.PriceStats.Median)
		}
	case metricCollections:
		if p.Collections != nil {
			return v(float64(p.Collections.NCollections))
		}
	case metricSitemapURLs:
		if p.Sitemap != nil {
			return v(float64(p.Sitemap.TotalURLs))
		}
	case metricClusters:
		if p.Clustering != nil {
			return v(float64(p.Clustering.NClusters))
		}
	}
	return nil
}

func appsOf(p *model.StoreProfile) []string {
	if p.TechStack == nil {
		return nil
	}
	return p.TechStack.AppsDetected
}

func themeOf(p *model.StoreProfile) string {
	if p.TechStack == nil || p.TechStack.ThemeHint == nil {
		return ""
	}
	return *p.TechStack.ThemeHint
}

// difference returns the sorted elements of a that are not in b.
func difference(a, b []string) []string {
	var out []string
	for _, s := range a {
		if !slices.Contains(b, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(w)
	md.H1("Profile comparison: " + result.StoreURL)
	md.PlainText("")
	md.BulletList(
		"Previous: "+formatTime(result.PreviousGeneratedAt),
		"Current: "+formatTime(result.CurrentGeneratedAt),
	)
	md.PlainText("")

	rows := make([][]string, 0, len(result.Metrics))
	for _, m := range result.Metrics {
		rows = append(rows, []string{m.Name, formatValue(m.Previous), formatValue(m.Current), formatDelta(m.Delta())})
	}
	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Metric", "Previous", "Current", "Change"}, Rows: rows})
	md.PlainText("")

	writeMarkdownList(md, "Apps added", result.AppsAdded)
	writeMarkdownList(md, "Apps removed", result.AppsRemoved)
	writeMarkdownList(md, "Pixels added", result.PixelsAdded)
	writeMarkdownList(md, "Pixels removed", result.PixelsRemoved)

	if tc := result.ThemeChange; tc != nil {
		md.H2("Theme")
		md.PlainText("")
		md.PlainTextf("%s → %s", formatTheme(tc.Previous), formatTheme(tc.Current))
		md.PlainText("")
	}
	return md.Build()
}

func writeMarkdownList(md *markdown.Markdown, title string, items []string) {
	if len(items) == 0 {
		return
	}
	md.H2(fmt.Sprintf("%s (%d)", title, len(items)))
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(w io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(w, "Profile Comparison: %s\n", result.StoreURL)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "\nPrevious profile: %s\n", formatTime(result.PreviousGeneratedAt))
	fmt.Fprintf(w, "Current profile:  %s\n", formatTime(result.CurrentGeneratedAt))

	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  %-14s  %-12s  %-12s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 54))
	for _, m := range result.Metrics {
		fmt.Fprintf(w, "  %-14s  %-12s  %-12s  %-10s\n",
			m.Name, formatValue(m.Previous), formatValue(m.Current), formatDelta(m.Delta()))
	}

	writeTextList(w, "Apps added", "+", result.AppsAdded)
	writeTextList(w, "Apps removed", "-", result.AppsRemoved)
	writeTextList(w, "Pixels added", "+", result.PixelsAdded)
	writeTextList(w, "Pixels removed", "-", result.PixelsRemoved)

	if tc := result.ThemeChange; tc != nil {
		fmt.Fprintf(w, "\nTheme: %s -> %s\n", formatTheme(tc.Previous), formatTheme(tc.Current))
	}
	return nil
}

func writeTextList(w io.Writer, title, marker string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(w, "  [%s] %s\n", marker, item)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTheme(theme string) string {
	if theme == "" {
		return "(none)"
	}
	return theme
}

// formatValue prints whole numbers without decimals.
func formatValue(v *float64) string {
	if v == nil {
		return "N/A"
	}
	if *v == float64(int64(*v)) {
		return strconv.FormatInt(int64(*v), 10)
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(d *float64) string {
	switch {
	case d == nil:
		return "-"
	case *d > 0:
		return "+" + formatValue(d)
	default:
		return formatValue(d)
	}
}
