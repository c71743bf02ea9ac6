// Package fitcache persists posterior draws in sqlite so re-rendering a
// chapter does not re-run its sampler. Purely an optimization: every reader
// treats a missing, stale, or unreadable row as a miss and refits.
package fitcache

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"rethink/errors"
	"rethink/posterior"
)

// Key identifies a fit. Any change to any field changes the hash, so a data
// revision, an edited model string, or a different seed all invalidate the
// cached draws.
type Key struct {
	ModelSource string
	Dataset     string
	DatasetHash string
	Engine      string
	Options     string // canonical engine options, e.g. "chains=4 iter=2000"
	Seed        uint64
}

// Hash returns the hex SHA-256 cache key
func (k Key) Hash() string {
	h := sha256.New()
	for _, part := range []string{
		k.ModelSource, k.Dataset, k.DatasetHash, k.Engine, k.Options,
		fmt.Sprintf("%d", k.Seed),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache is a sqlite-backed fit store
type Cache struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// Open opens (creating if needed) the fit cache at path and applies pending
// migrations. If logger is nil the cache operates silently.
func Open(path string, logger *zap.SugaredLogger) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open fit cache")
	}

	// WAL mode for concurrent reads during writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set busy timeout")
	}

	if err := Migrate(db, logger); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate fit cache")
	}

	if logger != nil {
		logger.Debugw("Fit cache opened", "path", path)
	}
	return &Cache{db: db, log: logger}, nil
}

// Wrap adapts an already-open database handle, for tests
func Wrap(db *sql.DB, logger *zap.SugaredLogger) *Cache {
	return &Cache{db: db, log: logger}
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

// Load returns the cached draws for key, or ErrCacheMiss. A row that fails
// to decode counts as a miss; Store will overwrite it.
func (c *Cache) Load(key Key) (*posterior.Draws, error) {
	var blob []byte
	err := c.db.QueryRow("SELECT draws FROM fits WHERE key = ?", key.Hash()).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrCacheMiss, "engine %s on %s", key.Engine, key.Dataset)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query fit cache")
	}

	var flat posterior.Flat
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&flat); err != nil {
		if c.log != nil {
			c.log.Warnw("Cached fit is unreadable, treating as miss",
				"key", key.Hash()[:8],
				"error", err.Error(),
			)
		}
		return nil, errors.Wrap(errors.ErrCacheMiss, "cached draws corrupt")
	}
	draws, err := posterior.FromFlat(flat)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCacheMiss, err.Error())
	}

	if c.log != nil {
		c.log.Infow("Fit cache hit",
			"dataset", key.Dataset,
			"engine", key.Engine,
			"draws", draws.N(),
		)
	}
	return draws, nil
}

// Store saves draws under key, replacing any previous row, and returns the
// run ID assigned to this fit.
func (c *Cache) Store(key Key, draws *posterior.Draws) (string, error) {
	var blob bytes.Buffer
	if err := gob.NewEncoder(&blob).Encode(draws.Flatten()); err != nil {
		return "", errors.Wrap(err, "encode draws")
	}

	runID := uuid.NewString()
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO fits
			(key, run_id, model_source, dataset, dataset_hash, engine, options, seed, params, n_draws, n_chains, draws)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key.Hash(), runID, key.ModelSource, key.Dataset, key.DatasetHash,
		key.Engine, key.Options, int64(key.Seed),
		strings.Join(draws.Params(), ","), draws.N(), draws.Chains(), blob.Bytes(),
	)
	if err != nil {
		return "", errors.Wrap(err, "store fit")
	}

	if c.log != nil {
		c.log.Infow("Fit cached",
			"dataset", key.Dataset,
			"engine", key.Engine,
			"draws", draws.N(),
			"run_id", runID,
		)
	}
	return runID, nil
}

// Stats summarizes the cache contents
type Stats struct {
	Fits     int
	Datasets int
	Bytes    int64
	ByEngine map[string]int
}

// Stats reports fit counts and storage use
func (c *Cache) Stats() (Stats, error) {
	s := Stats{ByEngine: map[string]int{}}

	err := c.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT dataset), COALESCE(SUM(LENGTH(draws)), 0)
		FROM fits`).Scan(&s.Fits, &s.Datasets, &s.Bytes)
	if err != nil {
		return Stats{}, errors.Wrap(err, "query fit cache stats")
	}

	rows, err := c.db.Query("SELECT engine, COUNT(*) FROM fits GROUP BY engine")
	if err != nil {
		return Stats{}, errors.Wrap(err, "query fit cache engines")
	}
	defer rows.Close()
	for rows.Next() {
		var engine string
		var count int
		if err := rows.Scan(&engine, &count); err != nil {
			return Stats{}, errors.Wrap(err, "scan engine row")
		}
		s.ByEngine[engine] = count
	}
	return s, rows.Err()
}

// Clear deletes every cached fit and returns the number removed
func (c *Cache) Clear() (int64, error) {
	res, err := c.db.Exec("DELETE FROM fits")
	if err != nil {
		return 0, errors.Wrap(err, "clear fit cache")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if c.log != nil {
		c.log.Infow("Fit cache cleared", "removed", n)
	}
	return n, nil
}
