package corpus

import (
	"context"
	"fmt"
)

// entry holds the cached state for one entity. Entries are created on
// first use and live until the session is torn down; switching entities
// never evicts another entity's entry.
type entry struct {
	handle      StoreHandle
	fingerprint string
	loaded      map[string]struct{}
	ready       bool
}

// Cache maps entity ids to their knowledge-store state for one session.
// It is not safe for concurrent use; a session processes one turn at a time.
type Cache struct {
	provisioner Provisioner
	entries     map[string]*entry
}

// NewCache creates an empty cache backed by the given provisioner.
func NewCache(p Provisioner) *Cache {
	return &Cache{
		provisioner: p,
		entries:     make(map[string]*entry),
	}
}

func (c *Cache) ensure(entityID string) *entry {
	e, ok := c.entries[entityID]
	if !ok {
		e = &entry{loaded: make(map[string]struct{})}
		c.entries[entityID] = e
	}
	return e
}

// GetOrCreate returns the entity's store handle, provisioning a new store
// on first use. Repeated calls for the same entity within a session return
// the cached handle without re-provisioning.
func (c *Cache) GetOrCreate(ctx context.Context, entityID string) (StoreHandle, error) {
	e := c.ensure(entityID)
	if e.handle != "" {
		return e.handle, nil
	}

	handle, err := c.provisioner.Provision(ctx, entityID+"_vs")
	if err != nil {
		return "", fmt.Errorf("provisioning store for %s: %w", entityID, err)
	}

	e.handle = handle
	e.ready = false
	return handle, nil
}

// NeedsSync compares the stored fingerprint against fp. When they differ
// the stored fingerprint is updated and the ready flag cleared; the loaded
// set is preserved so a filter-only change produces an incremental delta
// instead of a full reload.
func (c *Cache) NeedsSync(entityID, fp string) SyncState {
	e := c.ensure(entityID)
	if e.fingerprint == fp {
		return SyncUnchanged
	}

	prev := e.fingerprint
	e.fingerprint = fp
	e.ready = false

	if prev == "" {
		return SyncInitial
	}
	return SyncDelta
}

// MarkReady merges docIDs into the entity's loaded set and flags the
// store as current.
func (c *Cache) MarkReady(entityID string, docIDs []string) {
	e := c.ensure(entityID)
	for _, id := range docIDs {
		e.loaded[id] = struct{}{}
	}
	e.ready = true
}

// Ready reports whether the entity's store is current for the stored
// fingerprint.
func (c *Cache) Ready(entityID string) bool {
	e, ok := c.entries[entityID]
	return ok && e.ready
}

// Handle returns the cached store handle, if one has been provisioned.
func (c *Cache) Handle(entityID string) (StoreHandle, bool) {
	e, ok := c.entries[entityID]
	if !ok || e.handle == "" {
		return "", false
	}
	return e.handle, true
}

// Fingerprint returns the stored fingerprint for the entity, or the empty
// string if none is recorded.
func (c *Cache) Fingerprint(entityID string) string {
	e, ok := c.entries[entityID]
	if !ok {
		return ""
	}
	return e.fingerprint
}

// LoadedCount returns the size of the entity's loaded-document set.
func (c *Cache) LoadedCount(entityID string) int {
	e, ok := c.entries[entityID]
	if !ok {
		return 0
	}
	return len(e.loaded)
}
