package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"streamgate/internal/model"
)

// NATSPublisher is a hub sink that publishes events to NATS subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to the NATS server and returns a publisher
// sink.
func NewNATSPublisher(url, subjectPrefix string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(url,
		nats.Name("streamgate"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	logger.Info("nats connected", "url", url, "prefix", subjectPrefix)

	return &NATSPublisher{
		conn:   conn,
		prefix: subjectPrefix,
		logger: logger,
	}, nil
}

// Deliver implements hub.Sink.
func (p *NATSPublisher) Deliver(ctx context.Context, ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.conn.Publish(p.subject(ev), data)
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", "error", err)
		p.conn.Close()
	}
}

// subject builds the publish subject for an event. Symbols may contain
// characters NATS treats as token separators (BTC/USD), so they are
// sanitized first.
func (p *NATSPublisher) subject(ev model.Event) string {
	symbol := sanitizeToken(ev.Symbol)
	if symbol == "" {
		symbol = "_"
	}
	return fmt.Sprintf("%s.%s.%s", p.prefix, sanitizeToken(ev.Source), symbol)
}

// sanitizeToken makes a string safe for use as one NATS subject token.
func sanitizeToken(s string) string {
	replacer := strings.NewReplacer("/", "-", ".", "-", " ", "-", "*", "-", ">", "-")
	return replacer.Replace(s)
}
