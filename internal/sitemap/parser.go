package sitemap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/nao1215/storeprofile/internal/crawler"
	"github.com/nao1215/storeprofile/internal/model"
)

// Path is where a storefront publishes its sitemap.
const Path = "/sitemap.xml"

// Kind is the root element of a sitemap document.
type Kind int

const (
	// KindURLSet is a leaf document listing page URLs.
	KindURLSet Kind = iota
	// KindIndex is an index document listing child sitemaps.
	KindIndex
)

// errUnsupported is returned for documents whose root is neither urlset nor sitemapindex.
var errUnsupported = errors.New("unsupported sitemap structure")

// Document is a parsed sitemap.
type Document struct {
	Kind Kind
	// Entries are set for KindURLSet.
	Entries []model.SitemapEntry
	// Children are the child sitemap locations of a KindIndex document.
	Children []string
}

// Parse reads one sitemap document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, err
	}

	root := firstElement(doc)
	if root == nil {
		return nil, errUnsupported
	}

	switch strings.ToLower(root.Data) {
	case "urlset":
		entries := []model.SitemapEntry{}
		for _, u := range childElements(root, "url") {
			loc := childText(u, "loc")
			if loc == "" {
				continue
			}
			entry := model.SitemapEntry{Loc: loc}
			if lastmod := childText(u, "lastmod"); lastmod != "" {
				entry.LastMod = &lastmod
			}
			entries = append(entries, entry)
		}
		return &Document{Kind: KindURLSet, Entries: entries}, nil

	case "sitemapindex":
		var children []string
		for _, s := range childElements(root, "sitemap") {
			if loc := childText(s, "loc"); loc != "" {
				children = append(children, loc)
			}
		}
		return &Document{Kind: KindIndex, Children: children}, nil
	}

	return nil, fmt.Errorf("%w: root element <%s>", errUnsupported, root.Data)
}

func firstElement(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

func childElements(n *xmlquery.Node, name string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && strings.EqualFold(c.Data, name) {
			out = append(out, c)
		}
	}
	return out
}

func childText(n *xmlquery.Node, name string) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && strings.EqualFold(c.Data, name) {
			return strings.TrimSpace(c.InnerText())
		}
	}
	return ""
}

// Fetcher retrieves sitemap documents of a store.
type Fetcher struct {
	client crawler.Fetcher
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a Fetcher that issues requests through client.
func NewFetcher(client crawler.Fetcher, opts ...Option) *Fetcher {
	f := &Fetcher{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns every entry of the store's sitemap.
//
// A failing /sitemap.xml request or an undecodable or unsupported root
// document is a *model.ScrapeError. An index whose children all failed
// or were empty is a *model.ScrapeError wrapping model.ErrNoData.
// An empty urlset is not an error.
func (f *Fetcher) Fetch(ctx context.Context, base string) ([]model.SitemapEntry, error) {
	sitemapURL := strings.TrimRight(base, "/") + Path

	doc, err := f.fetchDocument(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	if doc.Kind == KindURLSet {
		return doc.Entries, nil
	}

	var entries []model.SitemapEntry
	for _, childURL := range doc.Children {
		child, err := f.fetchDocument(ctx, childURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Debug("skipping child sitemap", "url", childURL, "error", err)
			continue
		}
		if child.Kind != KindURLSet {
			f.logger.Debug("skipping nested sitemap index", "url", childURL)
			continue
		}
		entries = append(entries, child.Entries...)
	}

	if len(entries) == 0 {
		return nil, &model.ScrapeError{URL: sitemapURL, Reason: model.ErrNoData, Err: errors.New("no URLs found in sitemap index")}
	}
	return entries, nil
}

func (f *Fetcher) fetchDocument(ctx context.Context, rawURL string) (*Document, error) {
	body, err := f.client.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &model.ScrapeError{URL: rawURL, Reason: model.ErrMalformed, Err: err}
	}
	return doc, nil
}
