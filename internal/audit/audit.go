// Package audit keeps a local metadata-only trail of every event the
// bridge processes: ids, tenant, direction and, when an event is
// dropped, why. It deliberately never stores message content, only
// enough metadata for an operator to answer "what happened to this
// message" after the fact.
//
// Grounded on db/db.go's gorm+sqlite bootstrap and models/event.go's
// entity shape, repurposed from a webhook-delivery log into this audit
// trail.
package audit

import (
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Entry is one processed event's metadata.
type Entry struct {
	ID            int64     `gorm:"primary_key"`
	EnvelopeID    string    `gorm:"index"`
	TenantID      string    `gorm:"index"`
	Direction     string    // "inbound" or "outbound"
	Dialect       string
	Kind          string
	DropReason    string `gorm:"index"` // empty when the event was processed normally
	CreatedAt     time.Time
}

// TableName overrides gorm's pluralization so the table reads cleanly
// regardless of struct renames.
func (Entry) TableName() string { return "audit_entries" }

// Store wraps the gorm connection.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the sqlite file at path and
// auto-migrates the audit_entries table.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.AutoMigrate(&Entry{})
	return &Store{db: db, log: log.With().Str("component", "audit").Logger()}, nil
}

// Record inserts one entry. Failures are logged, not returned: the
// audit trail is diagnostic, and a write error here must never block
// the reconciliation pipeline it is observing.
func (s *Store) Record(e Entry) {
	e.CreatedAt = time.Now().UTC()
	if err := s.db.Create(&e).Error; err != nil {
		s.log.Warn().Err(err).Msg("could not write audit entry")
	}
}

// DropReasonCounts returns, for the last window and one tenant, how
// many events were dropped under each DropReason. Backs the
// ticket-stats endpoint's rolling drop-reason rollup.
func (s *Store) DropReasonCounts(tenantID string, window time.Duration) (map[string]int, error) {
	since := time.Now().UTC().Add(-window)
	rows, err := s.db.Table("audit_entries").
		Select("drop_reason, count(*) as n").
		Where("tenant_id = ? AND drop_reason != '' AND created_at >= ?", tenantID, since).
		Group("drop_reason").Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		out[reason] = n
	}
	return out, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}
