package store

import "testing"

func TestMappingRoundTrip(t *testing.T) {
	c := NewMappingCache()
	c.Store(42, MessageMapping{ProviderMsgID: "ABC", ConversationID: 7, InboxID: 1, ProviderDialect: "zapi", TenantID: "1"})

	m, ok := c.GetProviderMessageID(42)
	if !ok || m.ProviderMsgID != "ABC" {
		t.Fatalf("expected mapping for 42, got %+v ok=%v", m, ok)
	}

	hid, _, ok := c.GetHelpdeskMessageID("ABC")
	if !ok || hid != 42 {
		t.Fatalf("expected helpdesk id 42 for ABC, got %d ok=%v", hid, ok)
	}

	c.Remove(42)

	if _, ok := c.GetProviderMessageID(42); ok {
		t.Fatalf("expected no mapping after removal")
	}
	if _, _, ok := c.GetHelpdeskMessageID("ABC"); ok {
		t.Fatalf("expected no reverse mapping after removal")
	}
}

func TestMappingWipe(t *testing.T) {
	c := NewMappingCache()
	c.Store(1, MessageMapping{ProviderMsgID: "x"})
	c.Store(2, MessageMapping{ProviderMsgID: "y"})
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	c.Wipe()
	if c.Len() != 0 {
		t.Fatalf("expected 0 entries after wipe, got %d", c.Len())
	}
}

func TestMappingAtMostOneHelpdeskIDPerProviderID(t *testing.T) {
	c := NewMappingCache()
	c.Store(1, MessageMapping{ProviderMsgID: "dup"})
	c.Store(2, MessageMapping{ProviderMsgID: "dup"})

	// the second Store drops the earlier entry for "dup", so the reverse
	// lookup finds a single helpdesk id for it.
	hid, _, ok := c.GetHelpdeskMessageID("dup")
	if !ok {
		t.Fatalf("expected a match")
	}
	if hid != 1 && hid != 2 {
		t.Fatalf("unexpected helpdesk id %d", hid)
	}
}
