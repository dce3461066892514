package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const narrativeSchema = `
	CREATE TABLE IF NOT EXISTS narrative_cache (
		cache_key   TEXT PRIMARY KEY,
		provider    TEXT NOT NULL,
		model       TEXT NOT NULL,
		entry_json  JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// NarrativeEntry is a cached model answer for one exact prompt.
type NarrativeEntry struct {
	Key       string    `json:"key"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// NarrativeCache stores model answers keyed by the prompt that produced them.
// Supports DB (primary) + file system (fallback/local).
type NarrativeCache struct {
	pool    *pgxpool.Pool
	fileDir string
	ttl     time.Duration
}

// NewNarrativeCache creates a cache. If pool is nil it falls back to files in
// dir (default .cache/narratives). ttl <= 0 means entries never expire.
func NewNarrativeCache(pool *pgxpool.Pool, dir string, ttl time.Duration) *NarrativeCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "narratives")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check NarrativeCache dir: %v\n", err)
		}
	}
	return &NarrativeCache{pool: pool, fileDir: dir, ttl: ttl}
}

// EnsureSchema creates the cache table when running against a database.
func (c *NarrativeCache) EnsureSchema(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, narrativeSchema); err != nil {
		return fmt.Errorf("failed to create narrative_cache table: %w", err)
	}
	return nil
}

// Key derives the cache key for a generation request.
func Key(provider, model, system, user string, maxTokens int) string {
	h := sha256.New()
	for _, part := range []string{provider, model, system, user, fmt.Sprintf("%d", maxTokens)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached entry for key, or nil on a miss.
func (c *NarrativeCache) Get(ctx context.Context, key string) (*NarrativeEntry, error) {
	var entry *NarrativeEntry

	if c.pool != nil {
		var dataJSON []byte
		err := c.pool.QueryRow(ctx, `SELECT entry_json FROM narrative_cache WHERE cache_key = $1`, key).Scan(&dataJSON)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to load cached narrative: %w", err)
		}
		entry = &NarrativeEntry{}
		if err := json.Unmarshal(dataJSON, entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal db cached narrative: %w", err)
		}
	} else if c.fileDir != "" {
		data, err := os.ReadFile(c.path(key))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read cached narrative: %w", err)
		}
		entry = &NarrativeEntry{}
		if err := json.Unmarshal(data, entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached narrative: %w", err)
		}
	}

	if entry == nil || c.expired(entry) {
		return nil, nil
	}
	return entry, nil
}

// Save stores entry under entry.Key, replacing any previous answer.
func (c *NarrativeCache) Save(ctx context.Context, entry *NarrativeEntry) error {
	if entry.Key == "" {
		return fmt.Errorf("narrative cache key cannot be empty")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	dataJSON, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal narrative: %w", err)
	}

	if c.pool != nil {
		query := `
			INSERT INTO narrative_cache (cache_key, provider, model, entry_json, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cache_key)
			DO UPDATE SET
				entry_json = EXCLUDED.entry_json,
				created_at = EXCLUDED.created_at
		`
		if _, err := c.pool.Exec(ctx, query, entry.Key, entry.Provider, entry.Model, dataJSON, entry.CreatedAt); err != nil {
			return fmt.Errorf("failed to save to db cache: %w", err)
		}
	}

	if c.fileDir != "" {
		if err := os.WriteFile(c.path(entry.Key), dataJSON, 0644); err != nil {
			return fmt.Errorf("failed to write cache file: %w", err)
		}
	}
	return nil
}

func (c *NarrativeCache) expired(entry *NarrativeEntry) bool {
	return c.ttl > 0 && time.Since(entry.CreatedAt) > c.ttl
}

func (c *NarrativeCache) path(key string) string {
	return filepath.Join(c.fileDir, key+".json")
}
