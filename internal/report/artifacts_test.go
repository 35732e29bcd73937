package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/storeprofile/internal/database"
	"github.com/nao1215/storeprofile/internal/log"
	"github.com/nao1215/storeprofile/internal/model"
)

func newArtifactRun() *model.Run {
	run := model.NewRun("run-1", "https://shop.example.com")
	run.Profile = createTestProfile()
	run.Products = []model.ProductRecord{
		{ID: "1", Title: "Blue tee", Tags: []string{"summer"}, FirstVariantPrice: ptr(10.0), TitleLen: 8},
		{ID: "2", Title: "Red tee", Tags: []string{}, TitleLen: 7},
	}
	run.Collections = []model.CollectionRecord{{ID: "c1", Title: "All", Handle: "all", ProductsCount: ptr(int64(2))}}
	run.Homepage = []byte("<html></html>")
	return run
}

func TestArtifactWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes every artifact", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		out := t.TempDir()
		run := newArtifactRun()

		w := NewArtifactWriter(out, WithArtifactLogger(log.Discard()))
		if err := w.WriteAll(ctx, run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		dir := filepath.Join(out, "shop_example_com")
		if run.ArtifactDir != dir {
			t.Errorf("ArtifactDir = %s, want %s", run.ArtifactDir, dir)
		}
		for _, name := range []string{CatalogFile, ProductsSummaryFile, CollectionsSummaryFile, ProfileFile, ReportFile, HomepageFile} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("%s missing: %v", name, err)
			}
		}

		data, err := os.ReadFile(filepath.Join(dir, ProfileFile))
		if err != nil {
			t.Fatal(err)
		}
		var profile model.StoreProfile
		if err := json.Unmarshal(data, &profile); err != nil {
			t.Fatalf("profile.json invalid: %v", err)
		}
		if profile.NProducts != 4 || profile.TechStack == nil {
			t.Errorf("unexpected profile: %+v", profile)
		}

		catalog, err := database.OpenCatalog(ctx, filepath.Join(dir, CatalogFile))
		if err != nil {
			t.Fatalf("open catalog: %v", err)
		}
		defer catalog.Close()
		products, err := catalog.Products(ctx)
		if err != nil {
			t.Fatalf("read products: %v", err)
		}
		if len(products) != 2 {
			t.Errorf("expected 2 products in catalog, got %d", len(products))
		}
	})

	t.Run("removes stale optional artifacts", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		out := t.TempDir()
		w := NewArtifactWriter(out, WithArtifactLogger(log.Discard()), WithReportCharts(false))

		if err := w.WriteAll(ctx, newArtifactRun()); err != nil {
			t.Fatalf("first run: %v", err)
		}

		run := newArtifactRun()
		run.Collections = nil
		run.Homepage = nil
		run.Profile.Collections = nil
		if err := w.WriteAll(ctx, run); err != nil {
			t.Fatalf("second run: %v", err)
		}

		dir := w.Dir(run.Slug)
		for _, name := range []string{CollectionsSummaryFile, HomepageFile} {
			if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
				t.Errorf("%s should have been removed", name)
			}
		}
		if _, err := os.Stat(filepath.Join(dir, ProductsSummaryFile)); err != nil {
			t.Errorf("products summary missing: %v", err)
		}
	})

	t.Run("fails when the output dir is a file", func(t *testing.T) {
		t.Parallel()

		out := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(out, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := NewArtifactWriter(out, WithArtifactLogger(log.Discard())).WriteAll(context.Background(), newArtifactRun()); err == nil {
			t.Fatal("expected error")
		}
	})
}
