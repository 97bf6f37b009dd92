package solar

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/aclements/envelope/internal/model"
)

// A Cache stores computed window results on disk, one gob file per
// content hash. It is safe for concurrent use: entries are written to a
// temporary file and renamed into place.
type Cache struct {
	dir string
	log *zap.Logger
}

// OpenCache returns a cache in dir, creating it if needed.
func OpenCache(dir string, log *zap.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return nil, fmt.Errorf("creating obstruction cache: %w", err)
	}
	return &Cache{dir, log}, nil
}

func (c *Cache) path(k model.Key) string {
	return filepath.Join(c.dir, k.String())
}

// Load decodes the entry for k into out and reports whether it was
// found.
func (c *Cache) Load(k model.Key, out any) bool {
	f, err := os.Open(c.path(k))
	if err != nil {
		return false
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		c.log.Warn("ignoring corrupt cache entry", zap.String("key", k.String()), zap.Error(err))
		return false
	}
	return true
}

// Save stores val as the entry for k. Failures are logged; a missing
// entry only costs a recomputation.
func (c *Cache) Save(k model.Key, val any) {
	f, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		c.log.Warn("error saving to cache", zap.Error(err))
		return
	}
	enc := gob.NewEncoder(f)
	err = enc.Encode(val)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(f.Name(), c.path(k))
	}
	if err != nil {
		os.Remove(f.Name())
		c.log.Warn("error saving to cache", zap.Error(err))
	}
}
