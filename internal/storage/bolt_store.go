package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	heightBucket   = "heights"
	txBucket       = "txs"
	uint64Bytes    = 8
	txKeySeparator = "/"
)

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	txTTL           time.Duration
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
		for _, name := range []string{heightBucket, txBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		txTTL:           opts.TxTTL,
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

// LastHeight returns the checkpoint for nodeID; ok is false when none was stored.
func (b *boltStore) LastHeight(nodeID string) (uint64, bool, error) {
	if b == nil || b.db == nil {
		return 0, false, nil
	}

	var (
		height uint64
		ok     bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(heightBucket))
		if bucket == nil {
			return fmt.Errorf("height bucket missing")
		}
		value := bucket.Get([]byte(nodeID))
		if len(value) != uint64Bytes {
			return nil
		}
		height, ok = binary.BigEndian.Uint64(value), true
		return nil
	})
	return height, ok, err
}

// SetLastHeight stores the checkpoint for nodeID.
func (b *boltStore) SetLastHeight(nodeID string, height uint64) error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(heightBucket))
		if bucket == nil {
			return fmt.Errorf("height bucket missing")
		}
		buf := make([]byte, uint64Bytes)
		binary.BigEndian.PutUint64(buf, height)
		return bucket.Put([]byte(nodeID), buf)
	})
}

// SeenTx checks if the tx hash was already published for nodeID.
func (b *boltStore) SeenTx(nodeID, hash string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	if err := b.maybeCleanupExpired(time.Now()); err != nil {
		return false, err
	}

	var exists bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(txBucket))
		if bucket == nil {
			return fmt.Errorf("tx bucket missing")
		}

		key := txKey(nodeID, hash)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, ok := decodeExpiry(value)
		if !ok || !expiry.After(time.Now()) {
			return bucket.Delete(key)
		}

		exists = true
		return nil
	})
	return exists, err
}

// MarkTx records the tx hash as published for nodeID until the TTL passes.
func (b *boltStore) MarkTx(nodeID, hash string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(txBucket))
		if bucket == nil {
			return fmt.Errorf("tx bucket missing")
		}
		buf := make([]byte, uint64Bytes)
		binary.BigEndian.PutUint64(buf, uint64(now.Add(b.txTTL).Unix()))
		return bucket.Put(txKey(nodeID, hash), buf)
	})
}

// maybeCleanupExpired removes expired tx hashes on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
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
		bucket := tx.Bucket([]byte(txBucket))
		if bucket == nil {
			return fmt.Errorf("tx bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				key := append([]byte(nil), k...)
				if err := cursor.Delete(); err != nil {
					return err
				}
				// Next after Delete skips an entry; re-seek to the successor instead.
				k, v = cursor.Seek(key)
				continue
			}
			k, v = cursor.Next()
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func txKey(nodeID, hash string) []byte {
	return []byte(nodeID + txKeySeparator + hash)
}

// decodeExpiry decodes the expiry time from the stored byte slice.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != uint64Bytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
