package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/storeprofile/internal/database"
	"github.com/nao1215/storeprofile/internal/model"
)

// Artifact file names inside a store directory.
const (
	ProfileFile            = "profile.json"
	ReportFile             = "report.md"
	ProductsSummaryFile    = "products_summary.csv"
	CollectionsSummaryFile = "collections_summary.csv"
	HomepageFile           = "homepage.html"
	CatalogFile            = database.CatalogDBFile
)

// ArtifactWriter persists a finished run under <outputDir>/<store slug>/.
type ArtifactWriter struct {
	outputDir string
	charts    bool
	logger    *slog.Logger
}

// ArtifactOption configures an ArtifactWriter.
type ArtifactOption func(*ArtifactWriter)

// WithArtifactLogger sets the logger.
func WithArtifactLogger(logger *slog.Logger) ArtifactOption {
	return func(a *ArtifactWriter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithReportCharts enables or disables the pie charts in report.md.
func WithReportCharts(enabled bool) ArtifactOption {
	return func(a *ArtifactWriter) {
		a.charts = enabled
	}
}

// NewArtifactWriter creates an ArtifactWriter rooted at outputDir.
func NewArtifactWriter(outputDir string, opts ...ArtifactOption) *ArtifactWriter {
	a := &ArtifactWriter{outputDir: outputDir, charts: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dir returns the artifact directory of a store slug.
func (a *ArtifactWriter) Dir(slug string) string {
	return filepath.Join(a.outputDir, slug)
}

// WriteAll writes every artifact of run and records the directory in
// run.ArtifactDir. Collection artifacts and the homepage snapshot are
// written only when the run has them; stale copies from an earlier run
// are removed so the directory always describes this run.
func (a *ArtifactWriter) WriteAll(ctx context.Context, run *model.Run) error {
	dir := a.Dir(run.Slug)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	if err := a.writeCatalog(ctx, filepath.Join(dir, CatalogFile), run); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, ProductsSummaryFile), func(w io.Writer) error {
		return WriteProductsCSV(w, run.Products)
	}); err != nil {
		return err
	}

	collectionsPath := filepath.Join(dir, CollectionsSummaryFile)
	if len(run.Collections) > 0 {
		if err := writeFile(collectionsPath, func(w io.Writer) error {
			return WriteCollectionsCSV(w, run.Collections)
		}); err != nil {
			return err
		}
	} else if err := removeStale(collectionsPath); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, ProfileFile), func(w io.Writer) error {
		_, err := NewJSONWriter(w, WithPrettyPrint()).Write(run.Profile)
		return err
	}); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(dir, ReportFile), func(w io.Writer) error {
		_, err := NewMarkdownWriter(w, WithCharts(a.charts)).Write(run.Profile)
		return err
	}); err != nil {
		return err
	}

	homepagePath := filepath.Join(dir, HomepageFile)
	if run.Homepage != nil {
		if err := os.WriteFile(homepagePath, run.Homepage, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", HomepageFile, err)
		}
	} else if err := removeStale(homepagePath); err != nil {
		return err
	}

	run.ArtifactDir = dir
	a.logger.Info("artifacts written", "store", run.StoreURL, "dir", dir)
	return nil
}

func (a *ArtifactWriter) writeCatalog(ctx context.Context, path string, run *model.Run) error {
	catalog, err := database.CreateCatalog(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", CatalogFile, err)
	}
	defer catalog.Close()

	if err := catalog.WriteProducts(ctx, run.Products); err != nil {
		return err
	}
	if len(run.Collections) > 0 {
		if err := catalog.WriteCollections(ctx, run.Collections); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path is built from the output dir and a slug
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale %s: %w", filepath.Base(path), err)
	}
	return nil
}
