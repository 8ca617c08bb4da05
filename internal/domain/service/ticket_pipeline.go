package service

import (
	"context"

	"jetton-ticket-tracker/internal/domain/entity"
)

// TransactionFetcher defines the interface for paginated retrieval of the
// monitored account's transaction history.
type TransactionFetcher interface {
	// FetchTransactions walks the account's transaction history newest
	// first and returns every transaction with utime >= since. Upstream
	// failures truncate the walk; whatever was accumulated so far is
	// returned. The error is non-nil only on context cancellation.
	FetchTransactions(ctx context.Context, account string, since int64) ([]entity.RawTransaction, error)
}

// EventFetcher defines the interface for paginated retrieval of one
// account's activity events.
type EventFetcher interface {
	// FetchEvents walks the account's events newest first, bounded below
	// by since, retrying rate-limited pages with a fixed backoff. It
	// returns an error when the retry budget for a page is exhausted; the
	// caller is expected to abandon that account's scan.
	FetchEvents(ctx context.Context, account string, since int64) ([]entity.AccountEvent, error)
}

// TransferExtractor defines the interface for decoding raw transactions
// into ticket transfers and the hodl declaration set.
type TransferExtractor interface {
	// Extract classifies the transactions in ledger order. Records that
	// fail to decode are skipped individually and never fail the batch.
	Extract(transactions []entity.RawTransaction) ([]entity.TicketTransfer, entity.HodlSet)
}

// EventScanner defines the interface for computing per-address ticket
// counts from account activity events.
type EventScanner interface {
	// Scan computes a ticket count for every hodl address. Addresses are
	// scanned independently; a failed scan contributes zero and never
	// aborts the others. Only strictly positive counts appear in the
	// result.
	Scan(ctx context.Context, addresses []string) map[string]int64
}

// AggregationService defines the interface for the refresh pipeline.
type AggregationService interface {
	// Refresh runs the full fetch -> extract -> scan pipeline, assembles
	// a snapshot and publishes it atomically. On failure the previously
	// published snapshot is left untouched.
	Refresh(ctx context.Context) error
}
