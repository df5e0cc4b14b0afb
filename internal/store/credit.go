package store

import "sync"

// creditKey identifies one echo-suppression counter: a recipient paired
// with a message kind. Both maps use the same canonical recipient key,
// whichever direction recorded it.
type creditKey struct {
	recipient string
	kind      string
}

// CreditLedger holds two independent echo-suppression counters: one
// for messages about to be echoed back by the provider
// (outgoingProvider) and one for messages about to be echoed back by
// the helpdesk callback (outgoingHelpdesk).
type CreditLedger struct {
	mu               sync.Mutex
	outgoingProvider map[creditKey]int
	outgoingHelpdesk map[creditKey]int
}

// NewCreditLedger returns an empty ledger.
func NewCreditLedger() *CreditLedger {
	return &CreditLedger{
		outgoingProvider: make(map[creditKey]int),
		outgoingHelpdesk: make(map[creditKey]int),
	}
}

// AddProviderCredit pre-credits one expected provider echo for
// (recipient, kind).
func (l *CreditLedger) AddProviderCredit(recipient, kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outgoingProvider[creditKey{recipient, kind}]++
}

// ConsumeProviderCredit consumes one provider-echo credit for
// (recipient, kind) if present. Returns false, with no state change,
// when the counter is absent or already zero.
func (l *CreditLedger) ConsumeProviderCredit(recipient, kind string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return consumeLocked(l.outgoingProvider, creditKey{recipient, kind})
}

// ReleaseProviderCredit undoes a pre-credit, used when the send that
// justified it failed. It is the mirror of AddProviderCredit: it
// decrements the counter only when it is positive (releasing an absent
// credit is a no-op), and callers only release credits they know they
// just added.
func (l *CreditLedger) ReleaseProviderCredit(recipient, kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	consumeLocked(l.outgoingProvider, creditKey{recipient, kind})
}

// AddHelpdeskCredit pre-credits one expected helpdesk-callback echo for
// (recipient, kind).
func (l *CreditLedger) AddHelpdeskCredit(recipient, kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outgoingHelpdesk[creditKey{recipient, kind}]++
}

// ReleaseHelpdeskCredit mirrors AddHelpdeskCredit for rollback on send
// failure.
func (l *CreditLedger) ReleaseHelpdeskCredit(recipient, kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	consumeLocked(l.outgoingHelpdesk, creditKey{recipient, kind})
}

// ConsumeHelpdeskCredit implements the inverted sentinel described in the
// spec: it returns true ("proceed, this is accounted for") either when a
// credit was present and is now consumed, OR when no counter exists at
// all for (recipient, kind) — that absence means the callback was never
// pre-credited by a provider-side echo and is therefore the first, and
// only legitimate, pass for a helpdesk-UI-originated message.
func (l *CreditLedger) ConsumeHelpdeskCredit(recipient, kind string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := creditKey{recipient, kind}
	if _, ok := l.outgoingHelpdesk[key]; !ok {
		return true
	}
	consumeLocked(l.outgoingHelpdesk, key)
	return true
}

// PeekHelpdeskCredit reports whether a helpdesk-echo credit is present
// for (recipient, kind) without consuming it. The outbound processor
// uses this to decide whether a message_created callback is the
// Chatwoot mirror of a self-send the bridge just created (credit
// present: do not forward back to the provider) or a genuine agent
// reply typed in the helpdesk UI (no credit: forward it).
func (l *CreditLedger) PeekHelpdeskCredit(recipient, kind string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.outgoingHelpdesk[creditKey{recipient, kind}]
	return ok && n > 0
}

// consumeLocked decrements m[key] if positive, collapsing a counter that
// reaches zero and the recipient entirely once it has no kinds left. It
// must be called with the ledger's mutex already held.
func consumeLocked(m map[creditKey]int, key creditKey) bool {
	n, ok := m[key]
	if !ok || n <= 0 {
		return false
	}
	n--
	if n == 0 {
		delete(m, key)
	} else {
		m[key] = n
	}
	return true
}

// Snapshot is a read-only view of the ledger for the ticket-stats
// endpoint.
type Snapshot struct {
	OutgoingProvider map[string]int `json:"outgoing_provider"`
	OutgoingHelpdesk map[string]int `json:"outgoing_helpdesk"`
}

// Snapshot renders both maps, keyed by "recipient|kind", for diagnostics.
func (l *CreditLedger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := Snapshot{
		OutgoingProvider: make(map[string]int, len(l.outgoingProvider)),
		OutgoingHelpdesk: make(map[string]int, len(l.outgoingHelpdesk)),
	}
	for k, v := range l.outgoingProvider {
		out.OutgoingProvider[k.recipient+"|"+k.kind] = v
	}
	for k, v := range l.outgoingHelpdesk {
		out.OutgoingHelpdesk[k.recipient+"|"+k.kind] = v
	}
	return out
}

// Wipe clears both maps. Called by the 5-hour eviction timer.
func (l *CreditLedger) Wipe() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outgoingProvider = make(map[creditKey]int)
	l.outgoingHelpdesk = make(map[creditKey]int)
}
