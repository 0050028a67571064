package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Options configures the NATS connection. Zero values get defaults.
type Options struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// Connect establishes a NATS connection and fails fast when the server is
// unreachable.
func Connect(opts Options) (*nats.Conn, error) {
	if opts.URL == "" {
		opts.URL = nats.DefaultURL
	}
	if opts.MaxReconnects == 0 {
		opts.MaxReconnects = 5
	}
	if opts.ReconnectWait == 0 {
		opts.ReconnectWait = 2 * time.Second
	}

	nc, err := nats.Connect(opts.URL,
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", opts.URL, err)
	}
	return nc, nil
}

const (
	StreamName    = "TWEED_POSTS"
	streamSubject = "tweed.>"
)

// EnsureStream creates the JetStream stream covering the post subjects, or
// widens an existing one that does not include them.
func EnsureStream(js nats.JetStreamContext) error {
	info, err := js.StreamInfo(StreamName)
	if err == nil {
		for _, s := range info.Config.Subjects {
			if s == streamSubject {
				return nil
			}
		}
		cfg := info.Config
		cfg.Subjects = []string{streamSubject}
		_, err = js.UpdateStream(&cfg)
		return err
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info %s: %w", StreamName, err)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{streamSubject},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	return err
}

// NATSPublisher publishes events to JetStream. A nil receiver or a publisher
// without a JetStream context is a no-op.
type NATSPublisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
}

func NewNATSPublisher(js nats.JetStreamContext, log *zap.Logger) *NATSPublisher {
	return &NATSPublisher{js: js, log: log}
}

func (p *NATSPublisher) Publish(_ context.Context, ev PostEvent) {
	if p == nil || p.js == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("subject", ev.Subject), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(ev.Subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", ev.Subject), zap.Error(err))
	}
}
