package cache

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

const bucketPaths = "paths"

// entries wraps the bolt bucket holding one msgpack encoded Entry per relative path.
type entries struct {
	bucket *bolt.Bucket
}

// pathEntries returns the paths bucket, creating it when tx is writable.
func pathEntries(tx *bolt.Tx) (*entries, error) {
	var (
		err error
		b   *bolt.Bucket
	)

	if tx.Writable() {
		b, err = tx.CreateBucketIfNotExists([]byte(bucketPaths))
	} else {
		b = tx.Bucket([]byte(bucketPaths))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get/create bucket %s: %w", bucketPaths, err)
	} else if b == nil {
		return nil, fmt.Errorf("bucket %s does not exist", bucketPaths)
	}

	return &entries{b}, nil
}

func (e *entries) size() int {
	return e.bucket.Stats().KeyN
}

// get returns the entry recorded for path, or nil when there is none.
func (e *entries) get(path string) (*Entry, error) {
	bytes := e.bucket.Get([]byte(path))
	if bytes == nil {
		return nil, nil
	}

	var entry Entry
	if err := msgpack.Unmarshal(bytes, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry for %s: %w", path, err)
	}

	return &entry, nil
}

func (e *entries) put(path string, entry *Entry) error {
	if bytes, err := msgpack.Marshal(entry); err != nil {
		return fmt.Errorf("failed to marshal cache entry for %s: %w", path, err)
	} else if err = e.bucket.Put([]byte(path), bytes); err != nil {
		return fmt.Errorf("failed to put cache entry for %s: %w", path, err)
	}

	return nil
}

func (e *entries) clear() error {
	// deleting whilst iterating with a cursor skips entries, so we collect the keys first
	var keys [][]byte

	if err := e.bucket.ForEach(func(k, _ []byte) error {
		keys = append(keys, append([]byte(nil), k...))

		return nil
	}); err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}

	for _, k := range keys {
		if err := e.bucket.Delete(k); err != nil {
			return fmt.Errorf("failed to remove cache entry for %s: %w", string(k), err)
		}
	}

	return nil
}
