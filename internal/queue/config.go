// Package queue wraps NATS JetStream with the "wootrico" stream
// topology the bridge uses to decouple HTTP ingress from processing:
// one subject per direction, a durable pull consumer per subject,
// manual ack.
//
// The Client/config/consumer/publisher split, the ConsumerSpec-driven
// supervised consumer loop, and the PublishJSON envelope helper follow
// the same shape as an AMQP exchange/queue wrapper, translated to
// JetStream streams/subjects/consumers. See DESIGN.md for the full
// dependency rationale.
package queue

import "time"

// StreamName is the single JetStream stream every subject lives on.
const StreamName = "wootrico"

// Subjects the bridge publishes to and pulls from.
const (
	SubjectPrincipal = "webhook.principal" // provider -> helpdesk
	SubjectCallback  = "webhook.callback"  // helpdesk -> provider
)

// Durable consumer names, one per subject.
const (
	ConsumerPrincipal = "consumer-webhook-principal"
	ConsumerCallback  = "consumer-webhook-callback"
)

// Config holds connection and topology tuning.
type Config struct {
	URL             string
	ConnectTimeout  time.Duration
	FetchBatch      int
	FetchWait       time.Duration
	AckWait         time.Duration
	MaxDeliver      int
	ReconnectWaitMs int
}

// WithDefaults fills unset fields with the bridge's production
// defaults.
func (c Config) WithDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.FetchBatch <= 0 {
		c.FetchBatch = 10
	}
	if c.FetchWait <= 0 {
		c.FetchWait = 5 * time.Second
	}
	if c.AckWait <= 0 {
		c.AckWait = 30 * time.Second
	}
	if c.MaxDeliver <= 0 {
		c.MaxDeliver = 5
	}
	if c.ReconnectWaitMs <= 0 {
		c.ReconnectWaitMs = 2000
	}
	return c
}
