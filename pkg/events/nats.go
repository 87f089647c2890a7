package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/feirinha/feirinha-backend/pkg/config"
	"github.com/feirinha/feirinha-backend/pkg/logger"
)

const (
	maxReconnects = 10
	reconnectWait = 2 * time.Second
)

type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON events to core NATS subjects under a prefix.
type NATSPublisher struct {
	conn   natsConn
	prefix string
	logg   *logger.Logger
}

// New returns a NATS publisher, or Noop when no URL is configured.
func New(ctx context.Context, cfg config.EventsConfig, serviceName string, logg *logger.Logger) (Publisher, error) {
	if strings.TrimSpace(cfg.NATSURL) == "" {
		if logg != nil {
			logg.Info(ctx, "events disabled; no nats url configured")
		}
		return Noop{}, nil
	}

	opts := []nats.Option{
		nats.Name(serviceName),
		nats.Timeout(cfg.ConnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if logg != nil && err != nil {
				logg.WarnErr(context.Background(), "nats disconnected", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			if logg != nil {
				logg.Info(context.Background(), "nats reconnected to "+nc.ConnectedUrl())
			}
		}),
	}

	conn, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "nats publisher connected")
	}
	return newNATSPublisher(conn, cfg.SubjectPrefix, logg), nil
}

func newNATSPublisher(conn natsConn, prefix string, logg *logger.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: strings.Trim(prefix, "."), logg: logg}
}

// Publish marshals payload and sends it on the prefixed subject.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}
	if err := p.conn.Publish(p.subject(subject), data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages before closing the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil && p.logg != nil {
		p.logg.WarnErr(context.Background(), "nats drain failed", err)
	}
}

func (p *NATSPublisher) subject(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}
