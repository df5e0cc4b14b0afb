package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ErrPoison marks a message whose payload could not be decoded: ack it
// immediately rather than let JetStream redeliver it forever.
var ErrPoison = errors.New("queue: poison message")

// ConsumerSpec defines one durable pull consumer.
type ConsumerSpec struct {
	Name    string // durable name, e.g. ConsumerPrincipal
	Subject string
	Consume func(ctx context.Context, env Envelope) error
}

// JSONHandler decodes an Envelope's payload into T before calling h,
// turning a decode failure into ErrPoison so the caller acks instead
// of retrying forever.
func JSONHandler[T any](h func(context.Context, T) error) func(context.Context, Envelope) error {
	return func(ctx context.Context, env Envelope) error {
		var v T
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return ErrPoison
		}
		return h(ctx, v)
	}
}

// RunWithConsumers starts every spec's durable pull consumer and blocks
// pulling batches until ctx is canceled. Each subject runs its own
// fetch loop so a slow handler on one never starves the other.
func (c *Client) RunWithConsumers(ctx context.Context, specs ...ConsumerSpec) error {
	var wg sync.WaitGroup

	for _, spec := range specs {
		sub, err := c.js.PullSubscribe(spec.Subject, spec.Name, nats.AckExplicit(), nats.MaxDeliver(c.cfg.MaxDeliver), nats.AckWait(c.cfg.AckWait))
		if err != nil {
			return fmt.Errorf("queue: pull subscribe %s/%s: %w", spec.Subject, spec.Name, err)
		}
		c.consumers[spec.Name] = sub

		wg.Add(1)
		go func(spec ConsumerSpec, sub *nats.Subscription) {
			defer wg.Done()
			c.fetchLoop(ctx, spec, sub)
		}(spec, sub)
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (c *Client) fetchLoop(ctx context.Context, spec ConsumerSpec, sub *nats.Subscription) {
	log := c.log.With().Str("consumer", spec.Name).Logger()
	for {
		if ctx.Err() != nil {
			return
		}
		msgs, err := sub.Fetch(c.cfg.FetchBatch, nats.MaxWait(c.cfg.FetchWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("fetch failed, retrying")
			continue
		}
		for _, msg := range msgs {
			c.handleMessage(ctx, spec, msg, log)
		}
	}
}

func (c *Client) handleMessage(ctx context.Context, spec ConsumerSpec, msg *nats.Msg, log zerolog.Logger) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.Warn().Err(err).Msg("could not decode envelope, acking to drop")
		_ = msg.Ack()
		return
	}

	err := spec.Consume(ctx, env)
	switch {
	case err == nil:
		_ = msg.Ack()
	case errors.Is(err, ErrPoison):
		log.Warn().Str("envelope_id", env.ID).Msg("poison message, acking to drop")
		_ = msg.Ack()
	default:
		// Ack on any outcome: a processing error is logged and the
		// message dropped rather than retried indefinitely, which would
		// otherwise turn one bad event into a redelivery storm.
		log.Error().Err(err).Str("envelope_id", env.ID).Msg("processing failed, acking anyway")
		_ = msg.Ack()
	}
}
