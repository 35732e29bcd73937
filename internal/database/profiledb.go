package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nao1215/storeprofile/internal/model"
)

// ProfileDBFile is the file name of the history database.
const ProfileDBFile = "storeprofile.db"

const profileSchema = `
	-- One row per successful profiling run
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		store_url TEXT NOT NULL,
		store_slug TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		n_products INTEGER NOT NULL,
		price_mean REAL,
		sources_json TEXT,
		profile_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_profiles_store ON profiles(store_url);
	CREATE INDEX IF NOT EXISTS idx_profiles_timestamp ON profiles(timestamp);
`

// timestampLayout has a fixed width so that timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// ProfileDB stores the history of store profiles.
type ProfileDB struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*ProfileDB, error) {
	dbPath := filepath.Join(dbDir, ProfileDBFile)
	db, err := openSQLite(context.Background(), dbPath, opts, profileSchema)
	if err != nil {
		return nil, err
	}
	return &ProfileDB{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (pdb *ProfileDB) Path() string {
	return pdb.dbPath
}

// Close closes the database connection.
func (pdb *ProfileDB) Close() error {
	return pdb.db.Close()
}

// ProfileMetadata summarizes a stored profile without loading it.
type ProfileMetadata struct {
	ID        string
	StoreURL  string
	Timestamp time.Time
	NProducts int
	// PriceMean is nil when the profile had no priced product.
	PriceMean *float64
	Sources   []model.SourceResult
}

// SaveProfile stores the profile of a finished run.
func (pdb *ProfileDB) SaveProfile(ctx context.Context, run *model.Run) error {
	profile := run.Profile
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}
	sourcesJSON, err := json.Marshal(run.Sources())
	if err != nil {
		return fmt.Errorf("failed to serialize sources: %w", err)
	}

	var priceMean *float64
	if profile.PriceStats != nil {
		priceMean = &profile.PriceStats.Mean
	}

	generated := profile.GeneratedAt
	if generated.IsZero() {
		generated = run.StartedAt
	}

	query := `
	INSERT INTO profiles (id, store_url, store_slug, timestamp, n_products, price_mean, sources_json, profile_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		timestamp = excluded.timestamp,
		n_products = excluded.n_products,
		price_mean = excluded.price_mean,
		sources_json = excluded.sources_json,
		profile_json = excluded.profile_json
	`
	_, err = pdb.db.ExecContext(ctx, query,
		run.ID,
		run.StoreURL,
		run.Slug,
		generated.UTC().Format(timestampLayout),
		profile.NProducts,
		nullableFloat(priceMean),
		string(sourcesJSON),
		string(profileJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// ListStores returns every store with at least one stored profile.
func (pdb *ProfileDB) ListStores(ctx context.Context) ([]string, error) {
	rows, err := pdb.db.QueryContext(ctx, `SELECT DISTINCT store_url FROM profiles ORDER BY store_url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	var stores []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

// History returns the metadata of every stored profile of a store,
// newest first. storeURL is normalized before the lookup.
func (pdb *ProfileDB) History(ctx context.Context, storeURL string) ([]ProfileMetadata, error) {
	query := `
	SELECT id, store_url, timestamp, n_products, price_mean, sources_json
	FROM profiles
	WHERE store_url = ?
	ORDER BY timestamp DESC
	`
	rows, err := pdb.db.QueryContext(ctx, query, model.NormalizeStoreURL(storeURL))
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []ProfileMetadata
	for rows.Next() {
		var (
			meta        ProfileMetadata
			timestamp   string
			priceMean   sql.NullFloat64
			sourcesJSON sql.NullString
		)
		if err := rows.Scan(&meta.ID, &meta.StoreURL, &timestamp, &meta.NProducts, &priceMean, &sourcesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)
		if priceMean.Valid {
			v := priceMean.Float64
			meta.PriceMean = &v
		}
		if sourcesJSON.Valid && sourcesJSON.String != "" {
			if err := json.Unmarshal([]byte(sourcesJSON.String), &meta.Sources); err != nil {
				meta.Sources = nil
			}
		}
		results = append(results, meta)
	}
	return results, rows.Err()
}

// ProfileByID returns a stored profile. A missing id is ErrNotFound.
func (pdb *ProfileDB) ProfileByID(ctx context.Context, id string) (*model.StoreProfile, error) {
	var profileJSON string
	err := pdb.db.QueryRowContext(ctx, `SELECT profile_json FROM profiles WHERE id = ?`, id).Scan(&profileJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile model.StoreProfile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// Latest returns up to n profiles of a store, newest first.
// Malformed rows are skipped.
func (pdb *ProfileDB) Latest(ctx context.Context, storeURL string, n int) ([]*model.StoreProfile, error) {
	query := `
	SELECT profile_json FROM profiles
	WHERE store_url = ?
	ORDER BY timestamp DESC
	LIMIT ?
	`
	rows, err := pdb.db.QueryContext(ctx, query, model.NormalizeStoreURL(storeURL), n)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*model.StoreProfile
	for rows.Next() {
		var profileJSON string
		if err := rows.Scan(&profileJSON); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		var p model.StoreProfile
		if err := json.Unmarshal([]byte(profileJSON), &p); err != nil {
			continue
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}
