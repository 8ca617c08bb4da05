package service

import (
	"context"
	"fmt"
	"time"

	"jetton-ticket-tracker/internal/domain/entity"
	"jetton-ticket-tracker/internal/domain/repository"
	"jetton-ticket-tracker/internal/domain/service"
	"jetton-ticket-tracker/internal/infrastructure/config"
	"jetton-ticket-tracker/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// TicketAggregationService implements AggregationService. One refresh runs
// the full pipeline and publishes the assembled snapshot atomically; on any
// failure the previously published snapshot stays in place.
type TicketAggregationService struct {
	fetcher   service.TransactionFetcher
	extractor service.TransferExtractor
	scanner   service.EventScanner
	store     repository.SnapshotStore
	publisher service.SnapshotPublisher
	campaign  *config.CampaignConfig
	logger    *logger.Logger
}

// NewTicketAggregationService creates a new aggregation service
func NewTicketAggregationService(
	fetcher service.TransactionFetcher,
	extractor service.TransferExtractor,
	scanner service.EventScanner,
	store repository.SnapshotStore,
	publisher service.SnapshotPublisher,
	campaign *config.CampaignConfig,
	log *logger.Logger,
) service.AggregationService {
	return &TicketAggregationService{
		fetcher:   fetcher,
		extractor: extractor,
		scanner:   scanner,
		store:     store,
		publisher: publisher,
		campaign:  campaign,
		logger:    log.WithComponent("aggregation-service"),
	}
}

// Refresh runs fetch -> extract -> scan, assembles the snapshot and
// publishes it. The snapshot is built fully off to the side before the
// store reference is swapped, so readers never see partial state.
func (s *TicketAggregationService) Refresh(ctx context.Context) error {
	started := time.Now()
	s.logger.Info("Starting aggregate refresh",
		zap.String("account", s.campaign.Account),
		zap.Int64("since", s.campaign.StartTimestamp))

	transactions, err := s.fetcher.FetchTransactions(ctx, s.campaign.Account, s.campaign.StartTimestamp)
	if err != nil {
		return fmt.Errorf("transaction fetch aborted: %w", err)
	}

	transfers, hodl := s.extractor.Extract(transactions)
	hodlTickets := s.scanner.Scan(ctx, hodl.Addresses())

	snapshot := entity.NewAggregateSnapshot(transfers, hodl, hodlTickets)
	capturedAt := time.Now().UTC()
	s.store.Publish(snapshot, capturedAt)

	if s.publisher != nil {
		if err := s.publisher.PublishRefresh(snapshot, capturedAt); err != nil {
			s.logger.Warn("Failed to publish refresh notice", zap.Error(err))
		}
	}

	s.logger.Info("Aggregate refresh complete",
		zap.Int("transactions", len(transactions)),
		zap.Int("ticket_transfers", len(transfers)),
		zap.Int("hodl_addresses", len(snapshot.HodlAddresses)),
		zap.Int64("total_tickets", snapshot.TotalTickets),
		zap.Int64("total_hodl_tickets", snapshot.TotalHodlTickets),
		zap.Duration("duration", time.Since(started)))

	return nil
}
