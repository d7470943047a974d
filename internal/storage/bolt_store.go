package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kidsact-hq/campwatch/internal/domain"
)

const (
	campBucket    = "camps_seen"
	listingBucket = "listing"
	listingKey    = "latest"

	expiryValueBytes = 8
)

// snapshot is the persisted form of the latest listing.
type snapshot struct {
	SavedAt time.Time     `json:"saved_at"`
	Camps   []domain.Camp `json:"camps"`
}

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	campTTL         time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(campBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(listingBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		campTTL:         opts.CampTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenCamp checks whether a camp with the given ID was already announced.
func (b *boltStore) SeenCamp(id string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	if err := b.maybeCleanupExpired(time.Now()); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(campBucket))
		if bucket == nil {
			return fmt.Errorf("camp bucket missing")
		}

		key := []byte(id)
		value := bucket.Get(key)
		if value == nil {
			exists = false
			return nil
		}

		expiry, ok := decodeExpiry(value)
		if !ok || !expiry.After(time.Now()) {
			exists = false
			return bucket.Delete(key)
		}

		exists = true
		return nil
	})
	return exists, err
}

// MarkCamp records a camp ID as announced, with TTL-based expiry.
func (b *boltStore) MarkCamp(id string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(campBucket))
		if bucket == nil {
			return fmt.Errorf("camp bucket missing")
		}
		buf := make([]byte, expiryValueBytes)
		binary.BigEndian.PutUint64(buf, uint64(now.Add(b.campTTL).Unix()))
		return bucket.Put([]byte(id), buf)
	})
}

// SaveListing replaces the persisted latest-listing snapshot.
func (b *boltStore) SaveListing(camps []domain.Camp) error {
	if b == nil || b.db == nil {
		return nil
	}

	payload, err := json.Marshal(snapshot{SavedAt: time.Now().UTC(), Camps: camps})
	if err != nil {
		return fmt.Errorf("marshal listing snapshot: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(listingBucket))
		if bucket == nil {
			return fmt.Errorf("listing bucket missing")
		}
		return bucket.Put([]byte(listingKey), payload)
	})
}

// LoadListing returns the last persisted listing, or nil when none exists.
func (b *boltStore) LoadListing() ([]domain.Camp, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	var snap snapshot
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(listingBucket))
		if bucket == nil {
			return fmt.Errorf("listing bucket missing")
		}
		value := bucket.Get([]byte(listingKey))
		if value == nil {
			return nil
		}
		return json.Unmarshal(value, &snap)
	})
	if err != nil {
		return nil, fmt.Errorf("load listing snapshot: %w", err)
	}
	return snap.Camps, nil
}

// maybeCleanupExpired removes expired camp IDs on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(campBucket))
		if bucket == nil {
			return fmt.Errorf("camp bucket missing")
		}
		cursor := bucket.Cursor()
		for key, value := cursor.First(); key != nil; key, value = cursor.Next() {
			expiry, ok := decodeExpiry(value)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cleanup expired camps: %w", err)
	}

	b.lastCleanup.Store(now.Unix())
	return nil
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	return time.Unix(int64(binary.BigEndian.Uint64(value)), 0), true
}
