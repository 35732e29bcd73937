package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nao1215/storeprofile/internal/model"
)

// CatalogDBFile is the file name of the per-run catalog tables.
const CatalogDBFile = "catalog.db"

const catalogSchema = `
	CREATE TABLE IF NOT EXISTS products (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		title TEXT,
		handle TEXT,
		body_html TEXT,
		vendor TEXT,
		product_type TEXT,
		tags_json TEXT,
		variants_json TEXT,
		created_at TEXT,
		published_at TEXT,
		first_variant_price REAL,
		title_len INTEGER,
		desc_len INTEGER,
		cluster INTEGER
	);

	CREATE TABLE IF NOT EXISTS collections (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		title TEXT,
		handle TEXT,
		body_html TEXT,
		template_suffix TEXT,
		published_at TEXT,
		updated_at TEXT,
		products_count INTEGER
	);
`

// CatalogDB holds the product and collection tables of one run.
// Rows keep the order in which the store listed them.
type CatalogDB struct {
	db *sql.DB
}

// CreateCatalog creates a fresh catalog database at path, replacing any
// previous file so the tables always describe a single run.
func CreateCatalog(ctx context.Context, path string) (*CatalogDB, error) {
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove old catalog: %w", err)
		}
	}
	db, err := openSQLite(ctx, path, Options{CreateIfNotExists: true}, catalogSchema)
	if err != nil {
		return nil, err
	}
	return &CatalogDB{db: db}, nil
}

// OpenCatalog opens an existing catalog database for reading.
func OpenCatalog(ctx context.Context, path string) (*CatalogDB, error) {
	db, err := openSQLite(ctx, path, Options{}, catalogSchema)
	if err != nil {
		return nil, err
	}
	return &CatalogDB{db: db}, nil
}

// Close closes the database connection.
func (c *CatalogDB) Close() error {
	return c.db.Close()
}

// WriteProducts inserts the product table in one transaction.
func (c *CatalogDB) WriteProducts(ctx context.Context, products []model.ProductRecord) error {
	return c.inTx(ctx, `
	INSERT INTO products (position, id, title, handle, body_html, vendor, product_type, tags_json,
		variants_json, created_at, published_at, first_variant_price, title_len, desc_len, cluster)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, len(products), func(stmt *sql.Stmt, i int) error {
		p := products[i]
		tags, err := json.Marshal(p.Tags)
		if err != nil {
			return err
		}
		variants, err := json.Marshal(p.Variants)
		if err != nil {
			return err
		}
		var cluster sql.NullInt64
		if p.Cluster != nil {
			cluster = sql.NullInt64{Int64: int64(*p.Cluster), Valid: true}
		}
		_, err = stmt.ExecContext(ctx, i, p.ID, p.Title, p.Handle, p.BodyHTML, p.Vendor, p.ProductType,
			string(tags), string(variants), p.CreatedAt, p.PublishedAt,
			nullableFloat(p.FirstVariantPrice), p.TitleLen, p.DescLen, cluster)
		return err
	})
}

// WriteCollections inserts the collection table in one transaction.
func (c *CatalogDB) WriteCollections(ctx context.Context, collections []model.CollectionRecord) error {
	return c.inTx(ctx, `
	INSERT INTO collections (position, id, title, handle, body_html, template_suffix, published_at, updated_at, products_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, len(collections), func(stmt *sql.Stmt, i int) error {
		col := collections[i]
		var suffix sql.NullString
		if col.TemplateSuffix != nil {
			suffix = sql.NullString{String: *col.TemplateSuffix, Valid: true}
		}
		var count sql.NullInt64
		if col.ProductsCount != nil {
			count = sql.NullInt64{Int64: *col.ProductsCount, Valid: true}
		}
		_, err := stmt.ExecContext(ctx, i, col.ID, col.Title, col.Handle, col.BodyHTML, suffix,
			col.PublishedAt, col.UpdatedAt, count)
		return err
	})
}

func (c *CatalogDB) inTx(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range n {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Products reads the product table back in store order.
func (c *CatalogDB) Products(ctx context.Context) ([]model.ProductRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT id, title, handle, body_html, vendor, product_type, tags_json, variants_json,
		created_at, published_at, first_variant_price, title_len, desc_len, cluster
	FROM products ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []model.ProductRecord
	for rows.Next() {
		var (
			p                    model.ProductRecord
			tags, variants       string
			price                sql.NullFloat64
			cluster              sql.NullInt64
			createdAt, published sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Handle, &p.BodyHTML, &p.Vendor, &p.ProductType,
			&tags, &variants, &createdAt, &published, &price, &p.TitleLen, &p.DescLen, &cluster); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("failed to parse tags of %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(variants), &p.Variants); err != nil {
			return nil, fmt.Errorf("failed to parse variants of %s: %w", p.ID, err)
		}
		p.CreatedAt, p.PublishedAt = createdAt.String, published.String
		if price.Valid {
			v := price.Float64
			p.FirstVariantPrice = &v
		}
		if cluster.Valid {
			v := int(cluster.Int64)
			p.Cluster = &v
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CollectionCount returns the number of rows in the collection table.
func (c *CatalogDB) CollectionCount(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count collections: %w", err)
	}
	return n, nil
}
