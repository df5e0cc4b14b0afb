package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Client owns the NATS connection, the JetStream context and the
// "wootrico" stream, plus whatever consumers RunWithConsumers starts
// against it.
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	cfg  Config
	log  zerolog.Logger

	consumers map[string]*nats.Subscription
}

// NewClient dials url, ensures the "wootrico" stream exists with both
// subjects bound to it, and returns a ready Client.
func NewClient(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	const op = "queue.NewClient"
	cfg = cfg.WithDefaults()

	if cfg.URL == "" {
		return nil, fmt.Errorf("%s: nats URL is required", op)
	}

	log.Info().Str("op", op).Str("url", cfg.URL).Msg("connecting to nats")

	conn, err := nats.Connect(cfg.URL,
		nats.Timeout(cfg.ConnectTimeout),
		nats.ReconnectWait(time.Duration(cfg.ReconnectWaitMs)*time.Millisecond),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: jetstream context: %w", op, err)
	}

	client := &Client{conn: conn, js: js, cfg: cfg, log: log.With().Str("component", "queue").Logger(), consumers: map[string]*nats.Subscription{}}
	if err := client.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Info().Str("op", op).Msg("queue client ready")
	return client, nil
}

func (c *Client) ensureStream() error {
	_, err := c.js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	_, err = c.js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPrincipal, SubjectCallback},
		Storage:  nats.FileStorage,
		Retention: nats.LimitsPolicy,
	})
	if err != nil {
		return fmt.Errorf("queue: declare stream %s: %w", StreamName, err)
	}
	return nil
}

// Close drains consumers and closes the connection.
func (c *Client) Close() {
	for _, sub := range c.consumers {
		_ = sub.Drain()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
