package blockchain

import (
	"context"
	"strings"

	"jetton-ticket-tracker/internal/domain/entity"
	domain_service "jetton-ticket-tracker/internal/domain/service"
	"jetton-ticket-tracker/internal/infrastructure/config"
	"jetton-ticket-tracker/internal/infrastructure/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TicketEventScanner computes per-address ticket counts from account
// activity events. Each address is scanned independently; a scan that
// exhausts its retry budget is abandoned and contributes zero without
// affecting the other addresses.
type TicketEventScanner struct {
	fetcher         domain_service.EventFetcher
	primarySource   string
	secondarySource string
	questContract   string
	tokenSymbol     string
	divisor         decimal.Decimal
	since           int64
	logger          *logger.Logger
}

// NewTicketEventScanner creates a new event scanner
func NewTicketEventScanner(cfg *config.CampaignConfig, fetcher domain_service.EventFetcher, log *logger.Logger) domain_service.EventScanner {
	return &TicketEventScanner{
		fetcher:         fetcher,
		primarySource:   cfg.PrimarySource,
		secondarySource: cfg.SecondarySource,
		questContract:   cfg.QuestContract,
		tokenSymbol:     cfg.TokenSymbol,
		divisor:         decimal.NewFromInt(cfg.EventTicketDivisor),
		since:           cfg.StartTimestamp,
		logger:          log.WithComponent("event-scanner"),
	}
}

// Scan computes ticket counts for every hodl address. Only addresses with
// a strictly positive count appear in the result.
func (s *TicketEventScanner) Scan(ctx context.Context, addresses []string) map[string]int64 {
	result := make(map[string]int64, len(addresses))

	for _, addr := range addresses {
		select {
		case <-ctx.Done():
			s.logger.Warn("Scan cancelled", zap.Int("scanned", len(result)))
			return result
		default:
		}

		events, err := s.fetcher.FetchEvents(ctx, addr, s.since)
		if err != nil {
			s.logger.Warn("Abandoning address scan",
				zap.String("address", addr),
				zap.Error(err))
			continue
		}

		tickets := s.countTickets(events)
		if tickets > 0 {
			result[addr] = tickets
		}
	}

	s.logger.Info("Event scan complete",
		zap.Int("addresses", len(addresses)),
		zap.Int("with_tickets", len(result)))

	return result
}

// countTickets applies the ticket rules to every action of every event at
// or after the campaign start. Rules are additive; one event may award
// tickets from several actions.
func (s *TicketEventScanner) countTickets(events []entity.AccountEvent) int64 {
	var tickets int64

	for _, event := range events {
		if event.Timestamp < s.since {
			continue
		}
		for _, action := range event.Actions {
			if action.Type != entity.ActionTypeJettonTransfer || action.JettonTransfer == nil {
				continue
			}
			jt := action.JettonTransfer
			sender := jt.SenderAddress()
			symbolMatches := strings.EqualFold(jt.Jetton.Symbol, s.tokenSymbol)

			if sender == s.primarySource && symbolMatches {
				tickets += s.amountTickets(jt.Amount)
			}
			if sender == s.secondarySource && symbolMatches {
				tickets += s.amountTickets(jt.Amount)
			}
			if sender == s.questContract {
				tickets++
			}
		}
	}

	return tickets
}

// amountTickets converts a raw jetton amount into tickets via exact floor
// division by the configured divisor. Malformed amounts award nothing.
func (s *TicketEventScanner) amountTickets(raw string) int64 {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		s.logger.Warn("Skipping action with malformed amount",
			zap.String("amount", raw),
			zap.Error(err))
		return 0
	}
	q, _ := amount.QuoRem(s.divisor, 0)
	return q.IntPart()
}
