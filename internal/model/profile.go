package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ProductAnalysis holds the statistics derived from the product table.
type ProductAnalysis struct {
	NProducts              int             `json:"n_products"`
	PriceStats             *NumericSummary `json:"price_stats"`
	TitleLengthStats       *NumericSummary `json:"title_length_stats"`
	DescriptionLengthStats *NumericSummary `json:"description_length_stats"`
	ProductTypes           Counts          `json:"product_types"`
	TopTags                Counts          `json:"top_tags"`
}

// StoreProfile is the aggregated description of one store.
//
// Every optional section is always present in the JSON form. A section whose
// source failed or was skipped is nil in Go and encodes as an empty object,
// so consumers never see a missing key and never see an error flag.
type StoreProfile struct {
	StoreURL    string    `json:"store_url"`
	StoreSlug   string    `json:"store_slug"`
	GeneratedAt time.Time `json:"generated_at"`

	ProductAnalysis

	Collections *CollectionsSummary `json:"collections"`
	Sitemap     *SitemapSummary     `json:"sitemap"`
	TechStack   *TechFingerprint    `json:"tech_stack"`
	Clustering  *ClusteringSummary  `json:"clustering"`
}

// NewStoreProfile returns a profile whose optional sections are all empty.
func NewStoreProfile(storeURL string) *StoreProfile {
	return &StoreProfile{
		StoreURL:  storeURL,
		StoreSlug: StoreSlug(storeURL),
		ProductAnalysis: ProductAnalysis{
			ProductTypes: Counts{},
			TopTags:      Counts{},
		},
	}
}

// MarshalJSON encodes nil sections as empty objects.
func (p StoreProfile) MarshalJSON() ([]byte, error) {
	type alias StoreProfile
	return json.Marshal(struct {
		alias
		PriceStats             any `json:"price_stats"`
		TitleLengthStats       any `json:"title_length_stats"`
		DescriptionLengthStats any `json:"description_length_stats"`
		Collections            any `json:"collections"`
		Sitemap                any `json:"sitemap"`
		TechStack              any `json:"tech_stack"`
		Clustering             any `json:"clustering"`
	}{
		alias:                  alias(p),
		PriceStats:             section(p.PriceStats),
		TitleLengthStats:       section(p.TitleLengthStats),
		DescriptionLengthStats: section(p.DescriptionLengthStats),
		Collections:            section(p.Collections),
		Sitemap:                section(p.Sitemap),
		TechStack:              section(p.TechStack),
		Clustering:             section(p.Clustering),
	})
}

// UnmarshalJSON decodes empty-object sections back to nil.
func (p *StoreProfile) UnmarshalJSON(data []byte) error {
	type alias StoreProfile
	aux := struct {
		*alias
		PriceStats             json.RawMessage `json:"price_stats"`
		TitleLengthStats       json.RawMessage `json:"title_length_stats"`
		DescriptionLengthStats json.RawMessage `json:"description_length_stats"`
		Collections            json.RawMessage `json:"collections"`
		Sitemap                json.RawMessage `json:"sitemap"`
		TechStack              json.RawMessage `json:"tech_stack"`
		Clustering             json.RawMessage `json:"clustering"`
	}{alias: (*alias)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if p.PriceStats, err = decodeSection[NumericSummary](aux.PriceStats); err != nil {
		return err
	}
	if p.TitleLengthStats, err = decodeSection[NumericSummary](aux.TitleLengthStats); err != nil {
		return err
	}
	if p.DescriptionLengthStats, err = decodeSection[NumericSummary](aux.DescriptionLengthStats); err != nil {
		return err
	}
	if p.Collections, err = decodeSection[CollectionsSummary](aux.Collections); err != nil {
		return err
	}
	if p.Sitemap, err = decodeSection[SitemapSummary](aux.Sitemap); err != nil {
		return err
	}
	if p.TechStack, err = decodeSection[TechFingerprint](aux.TechStack); err != nil {
		return err
	}
	p.Clustering, err = decodeSection[ClusteringSummary](aux.Clustering)
	return err
}

func section[T any](v *T) any {
	if v == nil {
		return struct{}{}
	}
	return v
}

func decodeSection[T any](raw json.RawMessage) (*T, error) {
	compact := strings.Join(strings.Fields(string(raw)), "")
	if compact == "" || compact == "null" || compact == "{}" {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}
	return v, nil
}
