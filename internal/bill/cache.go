package bill

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const extractionBucketName = "extractions"

// Extraction is a cached model reply for one image
type Extraction struct {
	Key       string    `json:"key"`
	Model     string    `json:"model"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache stores raw model replies keyed by image digest.
// Only model output is kept; people, assignments and payments never reach it.
type Cache interface {
	// Get returns the cached extraction for key, or nil when absent
	Get(key string) (*Extraction, error)
	// Put stores an extraction
	Put(extraction *Extraction) error
	// Close closes the cache
	Close() error
}

// BoltCache implements the Cache interface using BoltDB
type BoltCache struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

// NewBoltCache opens (or creates) a cache file. Entries older than ttl are
// ignored; a zero ttl keeps entries forever.
func NewBoltCache(path string, ttl time.Duration) (*BoltCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(extractionBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltCache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get retrieves an extraction by key
func (b *BoltCache) Get(key string) (*Extraction, error) {
	var extraction *Extraction
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(extractionBucketName))
		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &extraction)
	})
	if err != nil {
		return nil, fmt.Errorf("reading extraction %s: %w", key, err)
	}

	if extraction != nil && b.ttl > 0 && b.now().Sub(extraction.CreatedAt) > b.ttl {
		return nil, nil
	}
	return extraction, nil
}

// Put saves an extraction
func (b *BoltCache) Put(extraction *Extraction) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(extractionBucketName))
		data, err := json.Marshal(extraction)
		if err != nil {
			return fmt.Errorf("marshaling extraction: %w", err)
		}
		return bucket.Put([]byte(extraction.Key), data)
	})
}

// Prune deletes entries older than the ttl and returns how many were removed
func (b *BoltCache) Prune() (int, error) {
	if b.ttl <= 0 {
		return 0, nil
	}

	cutoff := b.now().Add(-b.ttl)
	removed := 0
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(extractionBucketName))
		var stale [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var extraction Extraction
			if err := json.Unmarshal(v, &extraction); err != nil {
				// Unreadable entries are as good as expired
				stale = append(stale, append([]byte(nil), k...))
				return nil
			}
			if extraction.CreatedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("pruning extractions: %w", err)
	}
	return removed, nil
}

// Close closes the database connection
func (b *BoltCache) Close() error {
	return b.db.Close()
}

// nopCache is used when caching is disabled
type nopCache struct{}

func (nopCache) Get(string) (*Extraction, error) { return nil, nil }
func (nopCache) Put(*Extraction) error           { return nil }
func (nopCache) Close() error                    { return nil }
