package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/storeprofile/internal/config"
	"github.com/nao1215/storeprofile/internal/database"
	"github.com/nao1215/storeprofile/internal/log"
	"github.com/nao1215/storeprofile/internal/model"
	"github.com/nao1215/storeprofile/internal/report"
)

// newTestStore serves a small storefront. Only products and the homepage
// exist; every other endpoint answers 404.
func newTestStore(t *testing.T, nProducts int, homepage string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/products.json", func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]any{}
		if r.URL.Query().Get("page") == "1" {
			for i := range nProducts {
				items = append(items, map[string]any{
					"id":           i + 1,
					"title":        fmt.Sprintf("Linen shirt %d", i+1),
					"handle":       fmt.Sprintf("linen-shirt-%d", i+1),
					"product_type": "Shirts",
					"tags":         "linen",
					"variants":     []map[string]any{{"id": (i + 1) * 10, "price": "20.00"}},
				})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"products": items})
	})
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(homepage))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newCLITestConfig(t *testing.T, targets ...string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.RequestsPerSecond = 0
	cfg.OutputDir = filepath.Join(t.TempDir(), "data")
	cfg.DBDir = filepath.Join(t.TempDir(), "db")
	cfg.StoreConfigs = &config.File{Stores: map[string]config.StoreConfig{}}
	cfg.Targets = targets
	return cfg
}

// TestNewProfileCmd tests the profile command creation.
func TestNewProfileCmd(t *testing.T) {
	t.Parallel()

	cmd := NewProfileCmd()

	if cmd.Use != "profile [store-url]..." {
		t.Errorf("unexpected Use: %q", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("expected descriptions")
	}

	flagsWithShort := map[string]string{
		"page-size":  "p",
		"timeout":    "t",
		"clusters":   "k",
		"batch":      "b",
		"config":     "c",
		"output-dir": "o",
		"json":       "j",
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
	for _, flag := range []string{"rps", "user-agent", "parallel", "skip", "seed", "no-history", "db-dir"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected flag %q to exist", flag)
		}
	}
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		emptyConfig := filepath.Join(t.TempDir(), "empty.yaml")
		if err := os.WriteFile(emptyConfig, []byte("stores: {}\n"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewProfileCmd()
		if err := cmd.ParseFlags([]string{"-c", emptyConfig}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"shop.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.PageSize != config.DefaultPageSize {
			t.Errorf("page size = %d", cfg.PageSize)
		}
		if cfg.BatchSize != config.DefaultBatchSize {
			t.Errorf("batch size = %d", cfg.BatchSize)
		}
		if !cfg.SaveToDB {
			t.Error("history should be saved by default")
		}
		if len(cfg.Pinned) != 0 {
			t.Errorf("no option should be pinned: %v", cfg.Pinned)
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "shop.example.com" {
			t.Errorf("targets = %v", cfg.Targets)
		}
	})

	t.Run("flags override defaults and pin options", func(t *testing.T) {
		t.Parallel()

		emptyConfig := filepath.Join(t.TempDir(), "empty.yaml")
		if err := os.WriteFile(emptyConfig, []byte("stores: {}\n"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewProfileCmd()
		err := cmd.ParseFlags([]string{
			"-c", emptyConfig,
			"-p", "100",
			"-k", "4",
			"--skip", "sitemap,tech_stack",
			"--parallel",
			"--no-history",
			"-j",
		})
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"a.example.com", "b.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.PageSize != 100 || cfg.ClusterCount != 4 {
			t.Errorf("page size = %d, clusters = %d", cfg.PageSize, cfg.ClusterCount)
		}
		if !cfg.Pinned[config.OptionPageSize] || !cfg.Pinned[config.OptionClusterCount] {
			t.Errorf("expected pinned options, got %v", cfg.Pinned)
		}
		if cfg.Pinned[config.OptionUserAgent] {
			t.Error("user agent was not given and must not be pinned")
		}
		if len(cfg.SkipSources) != 2 {
			t.Errorf("skip sources = %v", cfg.SkipSources)
		}
		if !cfg.ParallelSources || cfg.SaveToDB || !cfg.JSONOutput {
			t.Errorf("unexpected booleans: parallel=%v save=%v json=%v", cfg.ParallelSources, cfg.SaveToDB, cfg.JSONOutput)
		}
	})

	t.Run("loads the config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "store.yaml")
		content := "stores:\n  shop.example.com:\n    page_size: 50\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewProfileCmd()
		if err := cmd.ParseFlags([]string{"-c", path}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"shop.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := cfg.ForStore("https://shop.example.com").PageSize; got != 50 {
			t.Errorf("store page size = %d, want 50", got)
		}
	})

	t.Run("explicit missing config file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewProfileCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
			t.Fatal(err)
		}
		_, err := buildConfig(cmd, []string{"shop.example.com"})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestGetVerboseFlag(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	root.SetArgs([]string{"version", "-v"})
	root.SetOut(&bytes.Buffer{})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	sub, _, err := root.Find([]string{"version"})
	if err != nil {
		t.Fatal(err)
	}
	if !getVerboseFlag(sub) {
		t.Error("expected verbose flag from the root command")
	}
	if getVerboseFlag(NewProfileCmd()) {
		t.Error("a detached command has no verbose flag")
	}
}

func TestRunProfile(t *testing.T) {
	t.Parallel()

	t.Run("no targets", func(t *testing.T) {
		t.Parallel()

		cfg := newCLITestConfig(t)
		err := runProfile(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, cfg, log.Discard())
		if !errors.Is(err, config.ErrNoTarget) {
			t.Errorf("expected ErrNoTarget, got %v", err)
		}
	})

	t.Run("writes artifacts and history", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, 3, `<html><head><script>fbq('init','1')</script></head></html>`)
		cfg := newCLITestConfig(t, store.URL)

		var stdout, stderr bytes.Buffer
		if err := runProfile(context.Background(), &stdout, &stderr, cfg, log.Discard()); err != nil {
			t.Fatalf("unexpected error: %v (stderr: %s)", err, stderr.String())
		}

		out := stdout.String()
		for _, want := range []string{store.URL, "Artifacts:", "DEGRADED SOURCES"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}

		dir := filepath.Join(cfg.OutputDir, model.StoreSlug(store.URL))
		for _, name := range []string{report.ProfileFile, report.ReportFile, report.ProductsSummaryFile, report.CatalogFile, report.HomepageFile} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("expected artifact %s: %v", name, err)
			}
		}

		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		history, err := db.History(context.Background(), store.URL)
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 1 || history[0].NProducts != 3 {
			t.Errorf("unexpected history: %+v", history)
		}
	})

	t.Run("json output", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, 2, "<html></html>")
		cfg := newCLITestConfig(t, store.URL)
		cfg.JSONOutput = true
		cfg.SaveToDB = false

		var stdout bytes.Buffer
		if err := runProfile(context.Background(), &stdout, &bytes.Buffer{}, cfg, log.Discard()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
		}
		if _, ok := decoded["profile"]; !ok {
			t.Errorf("expected profile key, got %v", decoded)
		}
	})

	t.Run("single fatal store returns its error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)
		cfg := newCLITestConfig(t, srv.URL)
		cfg.SaveToDB = false

		var stderr bytes.Buffer
		err := runProfile(context.Background(), &bytes.Buffer{}, &stderr, cfg, log.Discard())
		if !errors.Is(err, model.ErrNotAvailable) {
			t.Errorf("expected ErrNotAvailable, got %v", err)
		}
		if !strings.Contains(stderr.String(), "Profile error") {
			t.Errorf("expected error report on stderr, got %q", stderr.String())
		}
	})

	t.Run("batch isolates failing stores", func(t *testing.T) {
		t.Parallel()

		good := newTestStore(t, 2, "<html></html>")
		bad := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(bad.Close)

		cfg := newCLITestConfig(t, good.URL, bad.URL)
		cfg.SaveToDB = false
		cfg.BatchSize = 2

		var stdout bytes.Buffer
		err := runProfile(context.Background(), &stdout, &bytes.Buffer{}, cfg, log.Discard())
		if err == nil || !strings.Contains(err.Error(), "1 of 2 stores failed") {
			t.Errorf("expected batch summary error, got %v", err)
		}
		if !strings.Contains(stdout.String(), "Profile completed: "+good.URL) {
			t.Errorf("expected the healthy store to complete:\n%s", stdout.String())
		}
	})
}

func TestJoinFailures(t *testing.T) {
	t.Parallel()

	errA := errors.New("a")
	errB := errors.New("b")

	if err := joinFailures(nil, 3); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := joinFailures([]error{errA}, 1); err != errA { //nolint:errorlint // identity is the contract
		t.Errorf("expected the single error, got %v", err)
	}
	err := joinFailures([]error{errA, errB}, 3)
	if err == nil || !strings.HasPrefix(err.Error(), "2 of 3 stores failed") {
		t.Errorf("unexpected error: %v", err)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Error("joined error should wrap every failure")
	}
}
