// Package reconcile drives the two halves of the bridge's state
// machine: inbound (a provider webhook, normalized, becomes a helpdesk
// message) and outbound (a helpdesk callback becomes a provider send
// or delete). Both halves run as queue consumers, decoupled from HTTP
// ingress by internal/queue.
//
// Follows a "consume one canonical event, dispatch by kind, log and
// move on" shape, generalized from a single fixed pipeline to the
// bridge's two-directions-times-three-dialects matrix.
package reconcile

import (
	"context"

	"github.com/rs/zerolog"

	"wootrico/internal/audit"
	"wootrico/internal/store"
	"wootrico/internal/tenant"
)

// Processor holds every shared dependency the inbound and outbound
// handlers need.
type Processor struct {
	registry *tenant.Registry
	mappings *store.MappingCache
	credits  *store.CreditLedger
	audit    *audit.Store
	log      zerolog.Logger
}

// New builds a Processor.
func New(registry *tenant.Registry, mappings *store.MappingCache, credits *store.CreditLedger, auditStore *audit.Store, log zerolog.Logger) *Processor {
	return &Processor{
		registry: registry,
		mappings: mappings,
		credits:  credits,
		audit:    auditStore,
		log:      log.With().Str("component", "reconcile").Logger(),
	}
}

func (p *Processor) recordDrop(ctx context.Context, envelopeID, tenantID, direction, dialect, kind, reason string) {
	p.audit.Record(audit.Entry{
		EnvelopeID: envelopeID,
		TenantID:   tenantID,
		Direction:  direction,
		Dialect:    dialect,
		Kind:       kind,
		DropReason: reason,
	})
	p.log.Debug().Str("envelope_id", envelopeID).Str("tenant", tenantID).Str("reason", reason).Msg("event dropped")
}

func (p *Processor) recordProcessed(ctx context.Context, envelopeID, tenantID, direction, dialect, kind string) {
	p.audit.Record(audit.Entry{
		EnvelopeID: envelopeID,
		TenantID:   tenantID,
		Direction:  direction,
		Dialect:    dialect,
		Kind:       kind,
	})
}
