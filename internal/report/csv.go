package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/nao1215/storeprofile/internal/model"
)

// ProductsCSVHeader lists the key fields of the products summary table.
var ProductsCSVHeader = []string{
	"id", "title", "handle", "first_variant_price", "product_type",
	"tags_list", "title_len", "desc_len", "cluster",
}

// CollectionsCSVHeader lists the key fields of the collections summary table.
var CollectionsCSVHeader = []string{"id", "title", "handle", "products_count"}

// WriteProductsCSV writes the key fields of the product table.
// Null prices and clusters are empty cells; tags are a JSON array.
func WriteProductsCSV(w io.Writer, products []model.ProductRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ProductsCSVHeader); err != nil {
		return err
	}
	for _, p := range products {
		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return err
		}
		price := ""
		if p.FirstVariantPrice != nil {
			price = strconv.FormatFloat(*p.FirstVariantPrice, 'f', -1, 64)
		}
		cluster := ""
		if p.Cluster != nil {
			cluster = strconv.Itoa(*p.Cluster)
		}
		if err := cw.Write([]string{
			p.ID, p.Title, p.Handle, price, p.ProductType,
			string(tags), strconv.Itoa(p.TitleLen), strconv.Itoa(p.DescLen), cluster,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCollectionsCSV writes the key fields of the collection table.
// A missing products_count is an empty cell, not zero.
func WriteCollectionsCSV(w io.Writer, collections []model.CollectionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CollectionsCSVHeader); err != nil {
		return err
	}
	for _, c := range collections {
		count := ""
		if c.ProductsCount != nil {
			count = strconv.FormatInt(*c.ProductsCount, 10)
		}
		if err := cw.Write([]string{c.ID, c.Title, c.Handle, count}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
