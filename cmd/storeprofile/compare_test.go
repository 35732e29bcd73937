package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/storeprofile/internal/database"
	"github.com/nao1215/storeprofile/internal/model"
)

const testStoreURL = "https://shop.example.com"

func ptr[T any](v T) *T { return &v }

// testProfile builds a profile with every section present.
func testProfile(generated time.Time, nProducts int, mean float64, apps []string, pixels map[string]bool, theme *string) *model.StoreProfile {
	p := model.NewStoreProfile(testStoreURL)
	p.GeneratedAt = generated
	p.NProducts = nProducts
	p.PriceStats = &model.NumericSummary{Count: nProducts, Mean: mean, Median: mean}
	p.Collections = &model.CollectionsSummary{NCollections: 4}
	p.Sitemap = &model.SitemapSummary{TotalURLs: 120}
	p.Clustering = &model.ClusteringSummary{NClusters: 3}
	p.TechStack = &model.TechFingerprint{AppsDetected: apps, Pixels: pixels, ThemeHint: theme}
	return p
}

// saveTestRun stores a profile in the history database.
func saveTestRun(t *testing.T, db *database.ProfileDB, id string, profile *model.StoreProfile) {
	t.Helper()

	run := model.NewRun(id, profile.StoreURL)
	run.Profile = profile
	run.RecordSource(model.SourceResult{Source: model.SourceProducts, OK: true})
	run.RecordSource(model.SourceResult{Source: model.SourceSitemap, Reason: "resource not available (status 404)"})
	if err := db.SaveProfile(context.Background(), run); err != nil {
		t.Fatalf("failed to save profile: %v", err)
	}
}

// newTestHistory creates a database holding three weekly profiles of the test store.
func newTestHistory(t *testing.T) string {
	t.Helper()

	dbDir := filepath.Join(t.TempDir(), "db")
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	saveTestRun(t, db, "run-1", testProfile(day, 100, 20, []string{"Klaviyo"},
		map[string]bool{model.PixelFacebook: true}, ptr("Dawn")))
	saveTestRun(t, db, "run-2", testProfile(day.AddDate(0, 0, 7), 110, 22.5, []string{"Klaviyo", "Yotpo"},
		map[string]bool{model.PixelTikTok: true}, ptr("Sense")))
	saveTestRun(t, db, "run-3", testProfile(day.AddDate(0, 0, 14), 120, 25, []string{"Yotpo"},
		map[string]bool{model.PixelTikTok: true}, ptr("Sense")))
	return dbDir
}

func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	if cmd.Use != "compare <store-url>" {
		t.Errorf("unexpected Use: got %q", cmd.Use)
	}

	flagsWithShort := map[string]string{
		"with-id":  "i",
		"since":    "s",
		"json":     "j",
		"markdown": "m",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}
	if cmd.Flags().Lookup("db-dir") == nil {
		t.Error("expected db-dir flag")
	}
}

func TestCompareProfiles(t *testing.T) {
	t.Parallel()

	t.Run("detects every kind of change", func(t *testing.T) {
		t.Parallel()

		day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		prev := testProfile(day, 100, 20, []string{"Klaviyo", "Recharge"},
			map[string]bool{model.PixelFacebook: true, model.PixelHotjar: true}, ptr("Dawn"))
		cur := testProfile(day.AddDate(0, 0, 1), 120, 25, []string{"Klaviyo", "Yotpo"},
			map[string]bool{model.PixelFacebook: true, model.PixelTikTok: true}, ptr("Sense"))

		result := compareProfiles(prev, cur)

		if result.StoreURL != testStoreURL {
			t.Errorf("store url = %s", result.StoreURL)
		}
		if len(result.Metrics) != 6 {
			t.Fatalf("expected 6 metrics, got %d", len(result.Metrics))
		}
		products := result.Metrics[0]
		if products.Name != metricProducts || *products.Delta() != 20 {
			t.Errorf("unexpected products metric: %+v", products)
		}
		if mean := result.Metrics[1]; *mean.Delta() != 5 {
			t.Errorf("unexpected mean delta: %v", *mean.Delta())
		}
		if strings.Join(result.AppsAdded, ",") != "Yotpo" || strings.Join(result.AppsRemoved, ",") != "Recharge" {
			t.Errorf("apps added=%v removed=%v", result.AppsAdded, result.AppsRemoved)
		}
		if strings.Join(result.PixelsAdded, ",") != model.PixelTikTok {
			t.Errorf("pixels added = %v", result.PixelsAdded)
		}
		if strings.Join(result.PixelsRemoved, ",") != model.PixelHotjar {
			t.Errorf("pixels removed = %v", result.PixelsRemoved)
		}
		if result.ThemeChange == nil || result.ThemeChange.Previous != "Dawn" || result.ThemeChange.Current != "Sense" {
			t.Errorf("unexpected theme change: %+v", result.ThemeChange)
		}
	})

	t.Run("missing sections have no delta", func(t *testing.T) {
		t.Parallel()

		prev := model.NewStoreProfile(testStoreURL)
		prev.NProducts = 5
		cur := testProfile(time.Now(), 6, 10, []string{"Klaviyo"}, nil, nil)

		result := compareProfiles(prev, cur)

		for _, m := range result.Metrics {
			if m.Name == metricProducts {
				continue
			}
			if m.Previous != nil || m.Delta() != nil {
				t.Errorf("metric %s should have no previous value", m.Name)
			}
		}
		if strings.Join(result.AppsAdded, ",") != "Klaviyo" {
			t.Errorf("apps added = %v", result.AppsAdded)
		}
		if result.ThemeChange != nil {
			t.Errorf("no theme in either profile, got %+v", result.ThemeChange)
		}
	})

	t.Run("identical profiles", func(t *testing.T) {
		t.Parallel()

		p := testProfile(time.Now(), 10, 10, []string{"Klaviyo"}, map[string]bool{model.PixelSnap: true}, ptr("Dawn"))
		result := compareProfiles(p, p)

		if len(result.AppsAdded)+len(result.AppsRemoved)+len(result.PixelsAdded)+len(result.PixelsRemoved) != 0 {
			t.Errorf("expected no set changes: %+v", result)
		}
		if result.ThemeChange != nil {
			t.Error("expected no theme change")
		}
		for _, m := range result.Metrics {
			if d := m.Delta(); d == nil || *d != 0 {
				t.Errorf("metric %s delta = %v", m.Name, d)
			}
		}
	})
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"nil value", formatValue(nil), "N/A"},
		{"whole value", formatValue(ptr(12.0)), "12"},
		{"fractional value", formatValue(ptr(12.345)), "12.35"},
		{"nil delta", formatDelta(nil), "-"},
		{"positive delta", formatDelta(ptr(3.0)), "+3"},
		{"negative delta", formatDelta(ptr(-2.5)), "-2.50"},
		{"zero delta", formatDelta(ptr(0.0)), "0"},
		{"empty theme", formatTheme(""), "(none)"},
		{"zero time", formatTime(time.Time{}), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestOutputComparison(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	result := compareProfiles(
		testProfile(day, 100, 20, []string{"Klaviyo"}, nil, ptr("Dawn")),
		testProfile(day.AddDate(0, 0, 1), 90, 20, []string{"Yotpo"}, map[string]bool{model.PixelSnap: true}, ptr("Sense")),
	)

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := outputComparisonText(&buf, result); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{"Profile Comparison: " + testStoreURL, "-10", "[+] Yotpo", "[-] Klaviyo", "[+] " + model.PixelSnap, "Dawn -> Sense"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := outputComparisonMarkdown(&buf, result); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{"# Profile comparison: " + testStoreURL, "| Metric", "## Apps added (1)", "Yotpo", "## Theme"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := outputComparisonJSON(&buf, result); err != nil {
			t.Fatal(err)
		}
		var decoded struct {
			StoreURL string `json:"store_url"`
			Metrics  []struct {
				Name  string   `json:"name"`
				Delta *float64 `json:"delta"`
			} `json:"metrics"`
			AppsAdded []string `json:"apps_added"`
		}
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.StoreURL != testStoreURL || len(decoded.Metrics) != 6 {
			t.Errorf("unexpected decoded result: %+v", decoded)
		}
		if decoded.Metrics[0].Delta == nil || *decoded.Metrics[0].Delta != -10 {
			t.Errorf("expected products delta -10, got %v", decoded.Metrics[0].Delta)
		}
		if len(decoded.AppsAdded) != 1 || decoded.AppsAdded[0] != "Yotpo" {
			t.Errorf("apps added = %v", decoded.AppsAdded)
		}
	})
}

func TestRunCompareCmd(t *testing.T) {
	t.Parallel()

	dbDir := newTestHistory(t)

	execute := func(t *testing.T, args ...string) (string, error) {
		t.Helper()
		cmd := NewCompareCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs(append([]string{"--db-dir", dbDir}, args...))
		err := cmd.Execute()
		return buf.String(), err
	}

	t.Run("latest two profiles", func(t *testing.T) {
		out, err := execute(t, "shop.example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "[-] Klaviyo") || strings.Contains(out, "Theme:") {
			t.Errorf("expected run-2 vs run-3 comparison:\n%s", out)
		}
	})

	t.Run("with a specific id", func(t *testing.T) {
		out, err := execute(t, "--with-id", "run-1", "--json", "shop.example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var result ComparisonResult
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if result.ThemeChange == nil || result.ThemeChange.Previous != "Dawn" {
			t.Errorf("expected comparison with run-1: %+v", result.ThemeChange)
		}
	})

	t.Run("since a date", func(t *testing.T) {
		out, err := execute(t, "--since", "2026-03-05", "--markdown", "shop.example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "## Apps removed (1)") {
			t.Errorf("expected run-2 vs run-3 comparison:\n%s", out)
		}
	})

	t.Run("errors", func(t *testing.T) {
		cases := map[string][]string{
			"unknown store":       {"other.example.com"},
			"unknown id":          {"--with-id", "missing", "shop.example.com"},
			"bad date":            {"--since", "03/05/2026", "shop.example.com"},
			"no profile since":    {"--since", "2030-01-01", "shop.example.com"},
			"only latest since":   {"--since", "2026-03-14", "shop.example.com"},
			"conflicting targets": {"--with-id", "run-1", "--since", "2026-03-01", "shop.example.com"},
			"missing argument":    {},
		}
		for name, args := range cases {
			if _, err := execute(t, args...); err == nil {
				t.Errorf("%s: expected error", name)
			}
		}
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := execute(t, "--with-id", "missing", "shop.example.com")
		if !errors.Is(err, database.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	dbDir := newTestHistory(t)

	execute := func(t *testing.T, args ...string) string {
		t.Helper()
		cmd := NewHistoryCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs(append([]string{"--db-dir", dbDir}, args...))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return buf.String()
	}

	t.Run("lists stores", func(t *testing.T) {
		out := execute(t)
		if !strings.Contains(out, "Profiled stores (1)") || !strings.Contains(out, testStoreURL) {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("lists runs newest first", func(t *testing.T) {
		out := execute(t, "shop.example.com")
		if !strings.Contains(out, "(3 runs)") {
			t.Errorf("unexpected output:\n%s", out)
		}
		first, last := strings.Index(out, "run-3"), strings.Index(out, "run-1")
		if first < 0 || last < 0 || first > last {
			t.Errorf("expected newest run first:\n%s", out)
		}
		if !strings.Contains(out, "22.50") || !strings.Contains(out, model.SourceSitemap) {
			t.Errorf("expected price mean and degraded source:\n%s", out)
		}
	})

	t.Run("unknown store", func(t *testing.T) {
		out := execute(t, "other.example.com")
		if !strings.Contains(out, "No profile history found") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("empty database", func(t *testing.T) {
		cmd := NewHistoryCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})
		if err := cmd.Execute(); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No profiled stores") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}

func TestFormatDegraded(t *testing.T) {
	t.Parallel()

	got := formatDegraded([]model.SourceResult{
		{Source: model.SourceProducts, OK: true},
		{Source: model.SourceSitemap},
		{Source: model.SourceClustering, Skipped: true},
	})
	if got != "sitemap, clustering (skipped)" {
		t.Errorf("got %q", got)
	}
	if formatDegraded(nil) != "-" {
		t.Error("expected dash for a clean run")
	}
}
