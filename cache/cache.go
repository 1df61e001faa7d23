package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/numtide/fmtrc/config"
	bolt "go.etcd.io/bbolt"
)

// Entry records the effective options resolved for a path, and the digest of the config they were resolved from.
type Entry struct {
	Digest  []byte
	Options config.Options
}

type Cache struct {
	db  *bolt.DB
	log *log.Logger
}

// Path returns a unique local cache file path for the given root string, using its SHA-256 hash.
func Path(root string) (string, error) {
	digest := sha256.Sum256([]byte(root))

	name := hex.EncodeToString(digest[:])

	path, err := xdg.CacheFile(fmt.Sprintf("fmtrc/resolve-cache/%v.db", name))
	if err != nil {
		return "", fmt.Errorf("could not resolve local path for the cache: %w", err)
	}

	return path, nil
}

// Open initialises and opens the cache for the specified root path.
func Open(root string) (*Cache, error) {
	// determine the db location
	path, err := Path(root)
	if err != nil {
		return nil, err
	}

	// open db
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db at %s: %w", path, err)
	}

	// ensure bucket exist
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := pathEntries(tx)

		return err
	})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Cache{
		db:  db,
		log: log.WithPrefix("cache"),
	}, nil
}

// Remove deletes the cache db for root, if there is one.
func Remove(root string) error {
	// determine the db location
	path, err := Path(root)
	if err != nil {
		return err
	}

	// Remove any db which might already exist.
	// If another process currently has a db open at the same location, it will continue to function
	// as normal, however, when it exits the disk space its inode was referencing will be reclaimed.
	if err = os.Remove(path); !(err == nil || errors.Is(err, os.ErrNotExist)) {
		return fmt.Errorf("failed to remove cache db at %s: %w", path, err)
	}

	return nil
}

// Close closes the underlying db.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	return c.db.Close()
}

// Get looks up the options previously resolved for path. Entries recorded against a different config digest are
// treated as missing.
func (c *Cache) Get(path string, digest []byte) (*config.Options, bool, error) {
	var entry *Entry

	err := c.db.View(func(tx *bolt.Tx) error {
		bucket, err := pathEntries(tx)
		if err != nil {
			return err
		}

		entry, err = bucket.get(path)

		return err
	})

	if err != nil {
		return nil, false, err
	} else if entry == nil {
		return nil, false, nil
	}

	if !bytes.Equal(entry.Digest, digest) {
		c.log.Debugf("stale entry for %s", path)

		return nil, false, nil
	}

	return &entry.Options, true, nil
}

// Update records the resolved options for a batch of paths in a single transaction.
func (c *Cache) Update(digest []byte, resolved map[string]config.Options) error {
	if len(resolved) == 0 {
		return nil
	}

	err := c.db.Update(func(tx *bolt.Tx) error {
		bucket, err := pathEntries(tx)
		if err != nil {
			return err
		}

		for path, options := range resolved {
			if err = bucket.put(path, &Entry{Digest: digest, Options: options}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update cache: %w", err)
	}

	c.log.Debugf("updated %d entries", len(resolved))

	return nil
}

// Clear removes every entry from the cache.
func (c *Cache) Clear() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		bucket, err := pathEntries(tx)
		if err != nil {
			return err
		}

		return bucket.clear()
	})
}

// Size returns the number of entries in the cache.
func (c *Cache) Size() (int, error) {
	var size int

	err := c.db.View(func(tx *bolt.Tx) error {
		bucket, err := pathEntries(tx)
		if err != nil {
			return err
		}

		size = bucket.size()

		return nil
	})

	return size, err
}
