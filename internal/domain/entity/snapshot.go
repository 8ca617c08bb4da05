package entity

import "sort"

// TicketTransfer is a qualifying jetton transfer converted into loyalty
// tickets. Amount is the ticket count, not the raw token quantity.
type TicketTransfer struct {
	Sender    string `json:"sender"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	TxHash    string `json:"tx_hash"`
	Comment   string `json:"comment"`
}

// HodlSet is the set of canonical addresses that declared "hodl" via a
// transfer comment. Membership only; insertion order is not preserved.
type HodlSet map[string]struct{}

// NewHodlSet returns an empty HodlSet.
func NewHodlSet() HodlSet {
	return make(HodlSet)
}

// Add inserts a canonical address into the set.
func (s HodlSet) Add(addr string) {
	s[addr] = struct{}{}
}

// Contains reports whether the address is in the set.
func (s HodlSet) Contains(addr string) bool {
	_, ok := s[addr]
	return ok
}

// Addresses returns the members sorted lexicographically so snapshots are
// deterministic across refreshes.
func (s HodlSet) Addresses() []string {
	addrs := make([]string, 0, len(s))
	for addr := range s {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// AggregateSnapshot is one complete, immutable result of a refresh cycle.
// It is built fully off to the side and swapped into the cache as a whole;
// readers never observe a partially assembled snapshot.
type AggregateSnapshot struct {
	TicketTransfers  []TicketTransfer `json:"ticket_transfers"`
	HodlAddresses    []string         `json:"hodl_addresses"`
	HodlTickets      map[string]int64 `json:"hodl_tickets"`
	TotalTickets     int64            `json:"total_tickets"`
	TotalHodlTickets int64            `json:"total_hodl_tickets"`
}

// NewAggregateSnapshot assembles a snapshot from the pipeline outputs and
// computes both totals. Slices and maps are normalized to non-nil so the
// serialized form always carries arrays and objects.
func NewAggregateSnapshot(transfers []TicketTransfer, hodl HodlSet, hodlTickets map[string]int64) *AggregateSnapshot {
	if transfers == nil {
		transfers = []TicketTransfer{}
	}
	if hodlTickets == nil {
		hodlTickets = map[string]int64{}
	}

	var totalTickets int64
	for _, t := range transfers {
		totalTickets += t.Amount
	}

	var totalHodlTickets int64
	for _, n := range hodlTickets {
		totalHodlTickets += n
	}

	return &AggregateSnapshot{
		TicketTransfers:  transfers,
		HodlAddresses:    hodl.Addresses(),
		HodlTickets:      hodlTickets,
		TotalTickets:     totalTickets,
		TotalHodlTickets: totalHodlTickets,
	}
}
