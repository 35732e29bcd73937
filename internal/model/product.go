package model

// UnspecifiedProductType replaces a blank product type in frequency tables.
const UnspecifiedProductType = "Unspecified"

// Variant is one purchasable variant of a product.
type Variant struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Price     *float64 `json:"price"`
	SKU       string   `json:"sku,omitempty"`
	Available *bool    `json:"available,omitempty"`
}

// ProductRecord is one normalized row of the product table.
//
// Upstream records are loosely typed. Missing text fields are empty,
// missing numbers are nil. The derived fields are computed once during
// normalization and never change afterwards, except Cluster which the
// clustering step fills in.
type ProductRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Handle      string    `json:"handle"`
	BodyHTML    string    `json:"body_html"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Tags        []string  `json:"tags_list"`
	Variants    []Variant `json:"variants"`
	CreatedAt   string    `json:"created_at,omitempty"`
	PublishedAt string    `json:"published_at,omitempty"`

	// FirstVariantPrice is the parsed price of the first variant.
	// It is nil when there are no variants or the price is not a finite number.
	FirstVariantPrice *float64 `json:"first_variant_price"`
	// TitleLen is the character length of Title.
	TitleLen int `json:"title_len"`
	// DescLen is the character length of the raw BodyHTML, markup included.
	DescLen int `json:"desc_len"`
	// Cluster is the cluster assignment, nil until clustering succeeds.
	Cluster *int `json:"cluster"`
}

// TypeLabel returns the product type, or UnspecifiedProductType when blank.
func (p ProductRecord) TypeLabel() string {
	if p.ProductType == "" {
		return UnspecifiedProductType
	}
	return p.ProductType
}

// CollectionRecord is one normalized row of the collection table.
type CollectionRecord struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Handle         string  `json:"handle"`
	BodyHTML       string  `json:"body_html,omitempty"`
	TemplateSuffix *string `json:"template_suffix"`
	PublishedAt    string  `json:"published_at,omitempty"`
	UpdatedAt      string  `json:"updated_at,omitempty"`
	// ProductsCount is nil when the upstream record did not carry a usable count.
	ProductsCount *int64 `json:"products_count"`
}

// TemplateLabel returns the template suffix, or "default" when missing or blank.
func (c CollectionRecord) TemplateLabel() string {
	if c.TemplateSuffix == nil || *c.TemplateSuffix == "" {
		return "default"
	}
	return *c.TemplateSuffix
}
