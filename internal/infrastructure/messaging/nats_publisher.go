package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jetton-ticket-tracker/internal/domain/entity"
	"jetton-ticket-tracker/internal/infrastructure/config"
	"jetton-ticket-tracker/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSPublisher announces refreshed snapshots to downstream consumers.
// Publication is best effort: when NATS is disabled or unreachable the
// refresh pipeline is unaffected.
type NATSPublisher struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	config *config.NATSConfig
	logger *logger.Logger
}

// RefreshNotice is the payload published after each successful refresh.
type RefreshNotice struct {
	TotalTickets     int64     `json:"total_tickets"`
	TotalHodlTickets int64     `json:"total_hodl_tickets"`
	TransferCount    int       `json:"transfer_count"`
	HodlAddresses    int       `json:"hodl_addresses"`
	CapturedAt       time.Time `json:"captured_at"`
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(cfg *config.NATSConfig, log *logger.Logger) *NATSPublisher {
	return &NATSPublisher{
		config: cfg,
		logger: log.WithComponent("nats-publisher"),
	}
}

// Connect connects to the NATS server
func (p *NATSPublisher) Connect(ctx context.Context) error {
	if !p.config.Enabled {
		p.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	p.logger.Info("Connecting to NATS server", zap.String("url", p.config.URL))

	opts := []nats.Option{
		nats.Name("jetton-ticket-tracker"),
		nats.Timeout(p.config.ConnectTimeout),
		nats.ReconnectWait(p.config.ReconnectDelay),
		nats.MaxReconnects(p.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			p.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			p.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			p.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(p.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p.conn = conn

	// Prefer JetStream when the server offers it; fall back to core NATS.
	js, err := conn.JetStream()
	if err != nil {
		p.logger.Warn("JetStream not available, using core NATS", zap.Error(err))
	} else {
		p.js = js
	}

	p.logger.Info("Connected to NATS server")
	return nil
}

// PublishRefresh publishes a compact refresh notice for the snapshot.
func (p *NATSPublisher) PublishRefresh(snapshot *entity.AggregateSnapshot, capturedAt time.Time) error {
	if !p.config.Enabled || p.conn == nil {
		return nil
	}

	notice := RefreshNotice{
		TotalTickets:     snapshot.TotalTickets,
		TotalHodlTickets: snapshot.TotalHodlTickets,
		TransferCount:    len(snapshot.TicketTransfers),
		HodlAddresses:    len(snapshot.HodlAddresses),
		CapturedAt:       capturedAt,
	}

	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal refresh notice: %w", err)
	}

	subject := fmt.Sprintf("%s.refreshed", p.config.SubjectPrefix)
	if p.js != nil {
		_, err = p.js.Publish(subject, payload)
	} else {
		err = p.conn.Publish(subject, payload)
	}
	if err != nil {
		return fmt.Errorf("failed to publish refresh notice: %w", err)
	}

	p.logger.Debug("Published refresh notice",
		zap.String("subject", subject),
		zap.Int64("total_tickets", notice.TotalTickets))
	return nil
}

// Disconnect closes the NATS connection
func (p *NATSPublisher) Disconnect() {
	if p.conn != nil {
		p.conn.Close()
	}
}
