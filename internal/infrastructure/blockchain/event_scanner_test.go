package blockchain

import (
	"context"
	"errors"
	"testing"

	"jetton-ticket-tracker/internal/domain/entity"
	"jetton-ticket-tracker/internal/infrastructure/config"
	"jetton-ticket-tracker/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrimarySource   = "0:c9959a997e1d4e4383d8db37b86d2101ce78dcf1f1b3904d9888fe572ef0efd4"
	testSecondarySource = "0:dc20ce5b35de0ee6c8aa41d28c3ee29df2baa56bb7202374a43d8b1d45bf8cbf"
	testQuestContract   = "0:72d403954b90270af65f49cd0a133695c2052d23a243c099ea20e91b905a5cfc"
	testCampaignStart   = int64(1749646340)
)

// fakeEventFetcher serves canned events per address.
type fakeEventFetcher struct {
	events map[string][]entity.AccountEvent
	errs   map[string]error
	calls  []string
}

func (f *fakeEventFetcher) FetchEvents(ctx context.Context, account string, since int64) ([]entity.AccountEvent, error) {
	f.calls = append(f.calls, account)
	if err, ok := f.errs[account]; ok {
		return nil, err
	}
	return f.events[account], nil
}

func newTestScanner(fetcher *fakeEventFetcher) *TicketEventScanner {
	cfg := &config.CampaignConfig{
		PrimarySource:      testPrimarySource,
		SecondarySource:    testSecondarySource,
		QuestContract:      testQuestContract,
		TokenSymbol:        "WOOF",
		EventTicketDivisor: 50_000_000_000_000,
		StartTimestamp:     testCampaignStart,
	}
	return NewTicketEventScanner(cfg, fetcher, logger.NewNop()).(*TicketEventScanner)
}

func jettonAction(sender, symbol, amount string) entity.Action {
	return entity.Action{
		Type: entity.ActionTypeJettonTransfer,
		JettonTransfer: &entity.JettonTransferAction{
			Sender: &entity.AccountRef{Address: sender},
			Jetton: entity.JettonInfo{Symbol: symbol},
			Amount: amount,
		},
	}
}

func eventAt(ts int64, actions ...entity.Action) entity.AccountEvent {
	return entity.AccountEvent{Timestamp: ts, Actions: actions}
}

func TestScanQuestContractAwardsOneTicket(t *testing.T) {
	fetcher := &fakeEventFetcher{events: map[string][]entity.AccountEvent{
		// Symbol and amount are irrelevant for the quest contract.
		"addr1": {eventAt(testCampaignStart+10, jettonAction(testQuestContract, "OTHER", "1"))},
	}}
	scanner := newTestScanner(fetcher)

	result := scanner.Scan(context.Background(), []string{"addr1"})
	assert.Equal(t, map[string]int64{"addr1": 1}, result)
}

func TestScanPrimarySourceDivisor(t *testing.T) {
	fetcher := &fakeEventFetcher{events: map[string][]entity.AccountEvent{
		// 100e12 / 50e12 = 2 tickets; symbol match is case-insensitive.
		"addr1": {eventAt(testCampaignStart+10, jettonAction(testPrimarySource, "woof", "100000000000000"))},
	}}
	scanner := newTestScanner(fetcher)

	result := scanner.Scan(context.Background(), []string{"addr1"})
	assert.Equal(t, map[string]int64{"addr1": 2}, result)
}

func TestScanSecondarySourceDivisor(t *testing.T) {
	fetcher := &fakeEventFetcher{events: map[string][]entity.AccountEvent{
		"addr1": {eventAt(testCampaignStart+10, jettonAction(testSecondarySource, "WOOF", "50000000000000"))},
	}}
	scanner := newTestScanner(fetcher)

	result := scanner.Scan(context.Background(), []string{"addr1"})
	assert.Equal(t, map[string]int64{"addr1": 1}, result)
}

func TestScanWrongSymbolAwardsNothing(t *testing.T) {
	fetcher := &fakeEventFetcher{events: map[string][]entity.AccountEvent{
		"addr1": {eventAt(testCampaignStart+10, jettonAction(testPrimarySource, "NOTWOOF", "500000000000000"))},
	}}
	scanner := newTestScanner(fetcher)

	result := scanner.Scan(context.Background(), []string{"addr1"})
	assert.Empty(t, result, "zero-ticket addresses must not appear in the map")
}

func TestScanActionsAreAdditiveWithinEvent(t *testing.T) {
	fetcher := &fakeEventFetcher{events: map[string][]entity.AccountEvent{
		"addr1": {eventAt(testCampaignStart+10,
			jettonAction(testPrimarySource, "WOOF", "50000000000000"),
			jettonAction(testQuestContract, "WOOF", "1"),
		)},
	}}
	scanner := newTestScanner(fetcher)

	result := scanner.Scan(context.Background(), []string{"addr1"})
	assert.Equal(t, map[string]int64{"addr1": 2}, result)
}

func TestScanIgnoresEventsBeforeCampaignStart(t *testing.T) {
	fetcher := &fakeEventFetcher{events: map[string][]entity.AccountEvent{
		"addr1": {eventAt(testCampaignStart-1, jettonAction(testQuestContract, "WOOF", "1"))},
	}}
	scanner := newTestScanner(fetcher)

	result := scanner.Scan(context.Background(), []string{"addr1"})
	assert.Empty(t, result)
}

func TestScanIgnoresNonTransferActions(t *testing.T) {
	fetcher := &fakeEventFetcher{events: map[string][]entity.AccountEvent{
		"addr1": {eventAt(testCampaignStart+10, entity.Action{Type: "TonTransfer"})},
	}}
	scanner := newTestScanner(fetcher)

	result := scanner.Scan(context.Background(), []string{"addr1"})
	assert.Empty(t, result)
}

func TestScanAbandonedAddressDoesNotAbortOthers(t *testing.T) {
	fetcher := &fakeEventFetcher{
		events: map[string][]entity.AccountEvent{
			"good": {eventAt(testCampaignStart+10, jettonAction(testQuestContract, "WOOF", "1"))},
		},
		errs: map[string]error{
			"broken": errors.New("events fetch failed after 5 attempts"),
		},
	}
	scanner := newTestScanner(fetcher)

	result := scanner.Scan(context.Background(), []string{"broken", "good"})
	require.Equal(t, map[string]int64{"good": 1}, result)
	assert.ElementsMatch(t, []string{"broken", "good"}, fetcher.calls, "every address must be attempted")
}
