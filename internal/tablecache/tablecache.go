// Package tablecache persists previously computed many-to-many tables
// on disk, the same way the teacher's pkg/kv wraps a key-value handle
// (there badger, here bbolt, per cmd/engine/main.go's own bucket-backed
// store) with kelindar/binary doing the encode/decode of the stored
// value (pkg/kv/encoder.go).
package tablecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	kbinary "github.com/kelindar/binary"
	bolt "go.etcd.io/bbolt"

	"routingtable/pkg/facade"
	"routingtable/pkg/ids"
	"routingtable/pkg/manytomany"
)

// BucketName is the single bolt bucket table results are stored under.
const BucketName = "routingtable_tables"

// Cache is a bbolt-backed cache of previously computed duration tables.
type Cache struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bolt file at path and ensures
// BucketName exists, mirroring cmd/engine/main.go's
// CreateBucketIfNotExists-on-startup pattern.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying bolt file handle.
func (c *Cache) Close() error { return c.db.Close() }

// cachedTable is the on-disk shape of one cache entry: a flattened
// Table plus enough to reconstruct it without the original request.
type cachedTable struct {
	Weights   []ids.Weight
	Durations []ids.Duration
	Rows      int
	Cols      int
}

// Key derives a stable cache key from a many-to-many request shape:
// the engine name, every phantom's segment identity and injected
// offsets, and the chosen source/target index subsets.
func Key(engine string, phantoms []facade.PhantomNode, sourceIdx, targetIdx []int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|", engine)
	for _, p := range phantoms {
		fmt.Fprintf(h, "%d,%t,%d,%d,%d,%d|%d,%t,%d,%d,%d,%d;",
			p.ForwardSegment.Node, p.ForwardSegment.Enabled,
			p.SourceForwardWeight, p.SourceForwardDuration, p.TargetForwardWeight, p.TargetForwardDuration,
			p.ReverseSegment.Node, p.ReverseSegment.Enabled,
			p.SourceReverseWeight, p.SourceReverseDuration, p.TargetReverseWeight, p.TargetReverseDuration)
	}
	fmt.Fprintf(h, "src=%v;dst=%v", sourceIdx, targetIdx)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached table for key, if any.
func (c *Cache) Get(key string) (*manytomany.Table, bool, error) {
	var found bool
	var ct cachedTable
	err := c.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket([]byte(BucketName)).Get([]byte(key))
		if val == nil {
			return nil
		}
		found = true
		return kbinary.Unmarshal(val, &ct)
	})
	if err != nil || !found {
		return nil, false, err
	}
	return &manytomany.Table{Weights: ct.Weights, Durations: ct.Durations, Rows: ct.Rows, Cols: ct.Cols}, true, nil
}

// Set stores table under key, overwriting any previous entry.
func (c *Cache) Set(key string, table *manytomany.Table) error {
	val, err := kbinary.Marshal(cachedTable{
		Weights:   table.Weights,
		Durations: table.Durations,
		Rows:      table.Rows,
		Cols:      table.Cols,
	})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketName)).Put([]byte(key), val)
	})
}
