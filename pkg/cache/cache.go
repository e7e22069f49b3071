package cache

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bluelink-community/vehicle-connect/pkg/bluelink"
)

// Entry holds the last status document fetched for a vehicle.
type Entry struct {
	Status    *bluelink.VehicleStatus `json:"status"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// StatusCache holds recently fetched vehicle status documents, keyed by VIN.
// It can be exported to disk so a restarted server can serve cached reads before its
// first round trip to the backend.
type StatusCache struct {
	MaxEntries int
	Vehicles   map[string]Entry `json:"vehicles"`
	lock       sync.Mutex
}

// New returns a StatusCache that holds status for up to maxEntries vehicles, evicting
// the least recently updated entry when full. Set maxEntries to zero for an unbounded
// cache.
func New(maxEntries int) *StatusCache {
	return &StatusCache{
		MaxEntries: maxEntries,
		Vehicles:   make(map[string]Entry),
	}
}

// Import reads a StatusCache previously generated with [StatusCache.Export].
func Import(r io.Reader) (*StatusCache, error) {
	var cache StatusCache
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cache); err != nil {
		return nil, err
	}
	if cache.Vehicles == nil {
		cache.Vehicles = make(map[string]Entry)
	}
	return &cache, nil
}

// ImportFromFile reads a StatusCache from disk.
func ImportFromFile(filename string) (*StatusCache, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Import(file)
}

// Export writes a serialized StatusCache to w.
func (c *StatusCache) Export(w io.Writer) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	return json.NewEncoder(w).Encode(c)
}

// ExportToFile writes a StatusCache to disk.
func (c *StatusCache) ExportToFile(filename string) error {
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	return c.Export(file)
}

// Update stores a status document for vin, stamping it with the current time.
func (c *StatusCache) Update(vin string, status *bluelink.VehicleStatus) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.Vehicles[vin] = Entry{Status: status, UpdatedAt: time.Now()}
	if c.MaxEntries > 0 && len(c.Vehicles) > c.MaxEntries {
		oldestVIN := vin
		oldestUpdate := time.Now()
		for v, entry := range c.Vehicles {
			if entry.UpdatedAt.Before(oldestUpdate) {
				oldestVIN = v
				oldestUpdate = entry.UpdatedAt
			}
		}
		delete(c.Vehicles, oldestVIN)
	}
}

// Get returns the cached entry for vin.
func (c *StatusCache) Get(vin string) (Entry, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	entry, ok := c.Vehicles[vin]
	return entry, ok
}

// Fresh reports whether the entry for vin was updated within ttl. A zero or negative
// ttl means cached entries are never considered fresh.
func (c *StatusCache) Fresh(vin string, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	entry, ok := c.Get(vin)
	return ok && time.Since(entry.UpdatedAt) < ttl
}
