package blockchain

import (
	"strings"

	"jetton-ticket-tracker/internal/domain/entity"
	domain_service "jetton-ticket-tracker/internal/domain/service"
	"jetton-ticket-tracker/internal/infrastructure/config"
	"jetton-ticket-tracker/internal/infrastructure/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// hodlComment is the transfer comment that declares hodl participation,
// matched after trimming and lowercasing.
const hodlComment = "hodl"

// jettonDecimals is the number of decimal places of the monitored token.
const jettonDecimals = 9

// JettonTransferExtractor decodes raw transactions into ticket transfers
// and the hodl declaration set. Records that fail to decode are skipped
// individually; a malformed transaction never fails the batch.
type JettonTransferExtractor struct {
	codec        domain_service.AddressCodec
	targetSource string
	// ticketUnit is the raw-unit quantity worth one ticket:
	// min_transfer_tokens scaled by the token's 9 decimals. Comparisons
	// and the ticket division are exact, so the threshold boundary is
	// never subject to float rounding.
	ticketUnit decimal.Decimal
	logger     *logger.Logger
}

// NewJettonTransferExtractor creates a new transfer extractor
func NewJettonTransferExtractor(cfg *config.CampaignConfig, codec domain_service.AddressCodec, log *logger.Logger) domain_service.TransferExtractor {
	return &JettonTransferExtractor{
		codec:        codec,
		targetSource: cfg.TargetSource,
		ticketUnit:   decimal.New(cfg.MinTransferTokens, jettonDecimals),
		logger:       log.WithComponent("transfer-extractor"),
	}
}

// Extract classifies the transactions in ledger order.
func (e *JettonTransferExtractor) Extract(transactions []entity.RawTransaction) ([]entity.TicketTransfer, entity.HodlSet) {
	transfers := make([]entity.TicketTransfer, 0, len(transactions))
	hodl := entity.NewHodlSet()

	for _, tx := range transactions {
		msg := tx.InMsg
		if msg == nil {
			continue
		}

		sender := msg.Sender()
		if sender == "" || msg.SourceAddress() != e.targetSource {
			continue
		}

		amount, err := decimal.NewFromString(msg.Amount())
		if err != nil {
			e.logger.Warn("Skipping transfer with malformed amount",
				zap.String("tx_hash", tx.Hash),
				zap.String("amount", msg.Amount()),
				zap.Error(err))
			continue
		}

		canonical, err := e.codec.Normalize(sender)
		if err != nil {
			e.logger.Warn("Skipping transfer with unconvertible sender",
				zap.String("tx_hash", tx.Hash),
				zap.String("sender", sender),
				zap.Error(err))
			continue
		}

		comment := msg.Comment()
		if strings.ToLower(strings.TrimSpace(comment)) == hodlComment {
			hodl.Add(canonical)
		}

		// Hodl classification above applies regardless of amount; only
		// the ticket emission has a minimum threshold.
		if amount.Cmp(e.ticketUnit) < 0 {
			continue
		}

		tickets, _ := amount.QuoRem(e.ticketUnit, 0)
		transfers = append(transfers, entity.TicketTransfer{
			Sender:    canonical,
			Amount:    tickets.IntPart(),
			Timestamp: tx.Utime,
			TxHash:    tx.Hash,
			Comment:   comment,
		})
	}

	e.logger.Info("Extracted ticket transfers",
		zap.Int("transactions", len(transactions)),
		zap.Int("ticket_transfers", len(transfers)),
		zap.Int("hodl_addresses", len(hodl)))

	return transfers, hodl
}
