// Package store holds the two process-wide, mutex-guarded services the
// reconciliation engine depends on: the bidirectional message-id mapping
// cache and the echo-suppression credit ledger. Both are small, ephemeral
// structures wiped wholesale on a timer rather than persisted.
package store

import "sync"

// MessageMapping is one bidirectional entry: a helpdesk message id tied
// to the provider message id it corresponds to, tagged with enough
// context (conversation, inbox, dialect, tenant) to act on later without
// a second round trip to either side.
type MessageMapping struct {
	ProviderMsgID  string
	ConversationID int64
	InboxID        int64
	ProviderDialect string
	TenantID       string
}

// MappingCache is a bidirectional index keyed by helpdesk message id.
// The reverse lookup (by provider message id) is a linear scan: the
// cache is small and wiped every few hours, so an occasional O(n) scan
// costs nothing worth indexing for.
type MappingCache struct {
	mu      sync.RWMutex
	byHdesk map[int64]MessageMapping
}

// NewMappingCache returns an empty cache.
func NewMappingCache() *MappingCache {
	return &MappingCache{byHdesk: make(map[int64]MessageMapping)}
}

// Store records the mapping for a helpdesk message id, overwriting any
// previous entry for the same id and dropping any other entry that
// carries the same non-empty provider message id, so each provider id
// maps to at most one helpdesk id.
func (c *MappingCache) Store(helpdeskMsgID int64, m MessageMapping) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.ProviderMsgID != "" {
		for hid, existing := range c.byHdesk {
			if hid != helpdeskMsgID && existing.ProviderMsgID == m.ProviderMsgID {
				delete(c.byHdesk, hid)
			}
		}
	}
	c.byHdesk[helpdeskMsgID] = m
}

// GetProviderMessageID returns the provider message id mapped to a
// helpdesk message id, and whether an entry exists.
func (c *MappingCache) GetProviderMessageID(helpdeskMsgID int64) (MessageMapping, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.byHdesk[helpdeskMsgID]
	return m, ok
}

// GetHelpdeskMessageID scans the cache for the helpdesk message id whose
// mapping carries the given provider message id.
func (c *MappingCache) GetHelpdeskMessageID(providerMsgID string) (int64, MessageMapping, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for hid, m := range c.byHdesk {
		if m.ProviderMsgID == providerMsgID {
			return hid, m, true
		}
	}
	return 0, MessageMapping{}, false
}

// Remove deletes the mapping for a helpdesk message id, if any. After
// removal both GetProviderMessageID and the reverse lookup for its
// provider id return not-found.
func (c *MappingCache) Remove(helpdeskMsgID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byHdesk, helpdeskMsgID)
}

// Wipe clears the entire cache. Called by the 5-hour eviction timer.
func (c *MappingCache) Wipe() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byHdesk = make(map[int64]MessageMapping)
}

// Len reports the number of live entries, for diagnostics/tests.
func (c *MappingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byHdesk)
}
