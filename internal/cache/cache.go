// Package cache persists and serves set inventories fetched from the remote
// catalog. Entries are shared across user sessions through per-set JSON
// files; a miss triggers a catalog fetch whose result is stored for later
// runs.
package cache

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/logging"
	"github.com/bricktools/brickpick/pkg/parts"
)

// Fetcher is the catalog client contract the cache depends on. Fetching must
// be idempotent per set number.
type Fetcher interface {
	SetInventory(ctx context.Context, setNumber string) (*parts.SetInventory, error)
}

// setNumberPattern limits set numbers to filename-safe characters so a set
// identifier can never escape the cache directory.
var setNumberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Cache is a read-mostly store of set inventories, keyed by set number.
// Safe for concurrent use within a process; concurrent fetches for the same
// set are deduplicated. Cross-process sharing relies on atomic replace-on-
// write of the entry files, not locking: both writers produce equivalent
// content, so last-writer-wins is harmless.
type Cache struct {
	dir    string
	client Fetcher
	logger zerolog.Logger

	mu      sync.Mutex
	entries map[string]*parts.SetInventory
	flights map[string]*flight
}

// flight tracks one in-progress fetch so concurrent callers share its
// result.
type flight struct {
	done chan struct{}
	inv  *parts.SetInventory
	err  error
}

// New creates a cache rooted at dir. The client may be nil, in which case
// misses fail with a fetch error; a nil logger disables logging.
func New(dir string, client Fetcher, logger *zerolog.Logger) *Cache {
	if logger == nil {
		logger = &logging.Nop
	}
	return &Cache{
		dir:     dir,
		client:  client,
		logger:  logger.With().Str("component", "cache").Logger(),
		entries: make(map[string]*parts.SetInventory),
		flights: make(map[string]*flight),
	}
}

// Get returns the inventory for the given set. On a hit it returns the
// stored entry unchanged. On a miss it fetches from the catalog, persists
// the result, and returns it; a fetch failure leaves the cache unmutated so
// a later retry can succeed. Callers must not modify the returned value.
func (c *Cache) Get(ctx context.Context, setNumber string) (*parts.SetInventory, error) {
	setNumber = strings.TrimSpace(setNumber)
	if err := validateSetNumber(setNumber); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if inv, ok := c.entries[setNumber]; ok {
		c.mu.Unlock()
		return inv, nil
	}

	// Warm start: a previous process may have persisted this entry.
	if inv := c.loadLocked(setNumber); inv != nil {
		c.entries[setNumber] = inv
		c.mu.Unlock()
		return inv, nil
	}

	// Join an in-progress fetch for the same set, or start one.
	if fl, ok := c.flights[setNumber]; ok {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.inv, fl.err
		case <-ctx.Done():
			return nil, errors.NewFetchError(setNumber, ctx.Err())
		}
	}
	fl := &flight{done: make(chan struct{})}
	c.flights[setNumber] = fl
	c.mu.Unlock()

	fl.inv, fl.err = c.fetch(ctx, setNumber)

	c.mu.Lock()
	delete(c.flights, setNumber)
	if fl.err == nil {
		c.entries[setNumber] = fl.inv
	}
	c.mu.Unlock()
	close(fl.done)

	return fl.inv, fl.err
}

// Put pre-seeds the cache with an inventory, persisting it to disk. Used by
// migration and import flows.
func (c *Cache) Put(setNumber string, inv *parts.SetInventory) error {
	setNumber = strings.TrimSpace(setNumber)
	if err := validateSetNumber(setNumber); err != nil {
		return err
	}
	if inv == nil {
		return errors.NewValidationError("inventory", nil, "inventory cannot be nil")
	}

	c.mu.Lock()
	c.entries[setNumber] = inv
	c.mu.Unlock()

	return c.persist(setNumber, inv)
}

// Invalidate removes an entry from memory and disk, forcing a re-fetch on
// the next Get.
func (c *Cache) Invalidate(setNumber string) error {
	setNumber = strings.TrimSpace(setNumber)
	if err := validateSetNumber(setNumber); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.entries, setNumber)
	c.mu.Unlock()

	if err := os.Remove(c.entryPath(setNumber)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Cached reports whether an entry for the set exists in memory or on disk.
func (c *Cache) Cached(setNumber string) bool {
	setNumber = strings.TrimSpace(setNumber)
	if validateSetNumber(setNumber) != nil {
		return false
	}

	c.mu.Lock()
	_, ok := c.entries[setNumber]
	c.mu.Unlock()
	if ok {
		return true
	}
	_, err := os.Stat(c.entryPath(setNumber))
	return err == nil
}

// List returns the set numbers with persisted entries, sorted.
func (c *Cache) List() ([]string, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sets []string
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		sets = append(sets, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(sets)
	return sets, nil
}

// Lines returns a set's inventory lines scaled for the number of owned
// copies, fetching through the cache as needed.
func (c *Cache) Lines(ctx context.Context, setNumber string, multiplier int, includeSpares bool) ([]parts.InventoryLine, error) {
	inv, err := c.Get(ctx, setNumber)
	if err != nil {
		return nil, err
	}
	return inv.Scaled(multiplier, includeSpares), nil
}

// fetch pulls a set from the catalog and persists it. A persistence failure
// is logged and swallowed: the fetched data is still usable in memory, and
// the next process start re-fetches.
func (c *Cache) fetch(ctx context.Context, setNumber string) (*parts.SetInventory, error) {
	if c.client == nil {
		return nil, &errors.FetchError{SetNumber: setNumber, Message: "no catalog client configured"}
	}

	inv, err := c.client.SetInventory(ctx, setNumber)
	if err != nil {
		var fetchErr *errors.FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, errors.NewFetchError(setNumber, err)
	}

	if err := c.persist(setNumber, inv); err != nil {
		c.logger.Warn().
			Err(err).
			Str("set", setNumber).
			Msg("failed to persist fetched inventory; continuing with in-memory copy")
	} else {
		c.logger.Debug().
			Str("set", setNumber).
			Int("parts", inv.PartCount()).
			Msg("cached set inventory")
	}

	return inv, nil
}

// loadLocked reads a persisted entry from disk. Must be called with c.mu
// held. A corrupt file is logged and treated as a miss so it gets re-fetched.
func (c *Cache) loadLocked(setNumber string) *parts.SetInventory {
	path := c.entryPath(setNumber)
	data, err := os.ReadFile(path)
	if err != nil {
		if !fsNotExist(err) {
			c.logger.Warn().Err(err).Str("set", setNumber).Msg("failed to read cache entry")
		}
		return nil
	}

	var inv parts.SetInventory
	if err := json.Unmarshal(data, &inv); err != nil {
		corrupt := &errors.CorruptError{Path: path, Err: err}
		c.logger.Warn().Err(corrupt).Str("set", setNumber).Msg("corrupt cache entry; will re-fetch")
		return nil
	}
	if inv.SetNumber != setNumber {
		corrupt := &errors.CorruptError{Path: path, Err: errors.New("set number mismatch")}
		c.logger.Warn().Err(corrupt).Str("set", setNumber).Msg("corrupt cache entry; will re-fetch")
		return nil
	}
	return &inv
}

// persist writes the entry atomically: marshal, write to a temp file in the
// same directory, then rename over the destination. A reader never observes
// a half-written file.
func (c *Cache) persist(setNumber string, inv *parts.SetInventory) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return &errors.CacheWriteError{SetNumber: setNumber, Path: c.entryPath(setNumber), Err: err}
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return &errors.CacheWriteError{SetNumber: setNumber, Path: c.dir, Err: err}
	}

	path := c.entryPath(setNumber)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return &errors.CacheWriteError{SetNumber: setNumber, Path: tmpPath, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &errors.CacheWriteError{SetNumber: setNumber, Path: path, Err: err}
	}
	return nil
}

func (c *Cache) entryPath(setNumber string) string {
	return filepath.Join(c.dir, setNumber+".json")
}

func validateSetNumber(setNumber string) error {
	if !setNumberPattern.MatchString(setNumber) {
		return errors.NewValidationError("set_number", setNumber, "set number must be non-empty and filename-safe")
	}
	return nil
}

func fsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
