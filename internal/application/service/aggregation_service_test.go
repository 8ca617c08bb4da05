package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jetton-ticket-tracker/internal/domain/entity"
	domain_service "jetton-ticket-tracker/internal/domain/service"
	"jetton-ticket-tracker/internal/infrastructure/blockchain"
	"jetton-ticket-tracker/internal/infrastructure/cache"
	"jetton-ticket-tracker/internal/infrastructure/config"
	"jetton-ticket-tracker/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	targetSource  = "0:8b0fb7cc97e577e010946bcd0a5a7d20d866b7a8826ebb65ae5f327edbb82b27"
	questContract = "0:72d403954b90270af65f49cd0a133695c2052d23a243c099ea20e91b905a5cfc"
	senderS1      = "0:1111111111111111111111111111111111111111111111111111111111111111"
	senderS2      = "0:2222222222222222222222222222222222222222222222222222222222222222"
	campaignStart = int64(1749646340)
)

func campaignConfig() *config.CampaignConfig {
	return &config.CampaignConfig{
		Account:            "0:532305126dcb5cd0863f164c0a3f135b926f5e7106e9e487ab93cd798c300c6a",
		TargetSource:       targetSource,
		StartTimestamp:     campaignStart,
		PrimarySource:      "0:c9959a997e1d4e4383d8db37b86d2101ce78dcf1f1b3904d9888fe572ef0efd4",
		SecondarySource:    "0:dc20ce5b35de0ee6c8aa41d28c3ee29df2baa56bb7202374a43d8b1d45bf8cbf",
		QuestContract:      questContract,
		TokenSymbol:        "WOOF",
		MinTransferTokens:  10000,
		EventTicketDivisor: 50_000_000_000_000,
		RefreshInterval:    300 * time.Second,
	}
}

// mockUpstream serves the transactions and events endpoints of the TON
// indexing API from canned data.
type mockUpstream struct {
	transactions []map[string]interface{}
	eventsByAddr map[string][]map[string]interface{}
	failAll      bool
}

func (m *mockUpstream) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.failAll {
			http.Error(w, "outage", http.StatusInternalServerError)
			return
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/v2/blockchain/accounts/"):
			// Only the first page carries data; the cursor walk stops on
			// the following empty page.
			txs := m.transactions
			if r.URL.Query().Get("before_lt") != "" {
				txs = nil
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"transactions": txs})
		case strings.HasPrefix(r.URL.Path, "/v2/accounts/"):
			parts := strings.Split(r.URL.Path, "/")
			addr := parts[3]
			json.NewEncoder(w).Encode(map[string]interface{}{"events": m.eventsByAddr[addr]})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
}

func newPipeline(t *testing.T, baseURL string) (domain_service.AggregationService, *cache.SnapshotCache, func(string) string) {
	t.Helper()
	log := logger.NewNop()
	campaign := campaignConfig()

	client := blockchain.NewTonAPIClient(&config.TonAPIConfig{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		PageLimit:      100,
		RetryAttempts:  2,
		RetryDelay:     time.Millisecond,
	}, log)

	codec := blockchain.NewTonAddressCodec()
	extractor := blockchain.NewJettonTransferExtractor(campaign, codec, log)
	scanner := blockchain.NewTicketEventScanner(campaign, client, log)
	store := cache.NewSnapshotCache().(*cache.SnapshotCache)

	svc := NewTicketAggregationService(client, extractor, scanner, store, nil, campaign, log)

	canon := func(raw string) string {
		c, err := codec.Normalize(raw)
		require.NoError(t, err)
		return c
	}
	return svc, store, canon
}

func TestRefreshEndToEnd(t *testing.T) {
	// Build the canonical form of S2 up front so the events endpoint can
	// be keyed by the address the scanner will actually query.
	canonS2, err := blockchain.NewTonAddressCodec().Normalize(senderS2)
	require.NoError(t, err)

	upstream := &mockUpstream{
		transactions: []map[string]interface{}{
			{
				"utime": campaignStart + 100, "lt": 20, "hash": "tx1",
				"in_msg": map[string]interface{}{
					"source":       map[string]interface{}{"address": targetSource},
					"decoded_body": map[string]interface{}{"sender": senderS1, "amount": "25000000000000"},
				},
			},
			{
				"utime": campaignStart + 50, "lt": 10, "hash": "tx2",
				"in_msg": map[string]interface{}{
					"source": map[string]interface{}{"address": targetSource},
					"decoded_body": map[string]interface{}{
						"sender": senderS2, "amount": "0",
						"forward_payload": map[string]interface{}{
							"value": map[string]interface{}{
								"value": map[string]interface{}{"text": "hodl"},
							},
						},
					},
				},
			},
		},
		eventsByAddr: map[string][]map[string]interface{}{
			canonS2: {
				{
					"timestamp": campaignStart + 200, "lt": 30,
					"actions": []map[string]interface{}{
						{
							"type": "JettonTransfer",
							"JettonTransfer": map[string]interface{}{
								"sender": map[string]interface{}{"address": questContract},
								"jetton": map[string]interface{}{"symbol": "WOOF"},
								"amount": "1",
							},
						},
					},
				},
			},
		},
	}
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	svc, store, canon := newPipeline(t, server.URL)
	require.NoError(t, svc.Refresh(context.Background()))

	snapshot, capturedAt, err := store.Latest()
	require.NoError(t, err)
	assert.False(t, capturedAt.IsZero())

	require.Len(t, snapshot.TicketTransfers, 1)
	assert.Equal(t, canon(senderS1), snapshot.TicketTransfers[0].Sender)
	assert.Equal(t, int64(2), snapshot.TicketTransfers[0].Amount)
	assert.Equal(t, "tx1", snapshot.TicketTransfers[0].TxHash)

	assert.Equal(t, []string{canon(senderS2)}, snapshot.HodlAddresses)
	assert.Equal(t, map[string]int64{canon(senderS2): 1}, snapshot.HodlTickets)
	assert.Equal(t, int64(2), snapshot.TotalTickets)
	assert.Equal(t, int64(1), snapshot.TotalHodlTickets)
}

func TestRefreshSurvivesUpstreamOutage(t *testing.T) {
	upstream := &mockUpstream{failAll: true}
	server := httptest.NewServer(upstream.handler(t))
	defer server.Close()

	// An upstream outage truncates the transaction walk to nothing; the
	// refresh still completes and publishes a complete, empty snapshot.
	svc, store, _ := newPipeline(t, server.URL)
	require.NoError(t, svc.Refresh(context.Background()))

	got, _, err := store.Latest()
	require.NoError(t, err)
	assert.Empty(t, got.TicketTransfers)
	assert.Empty(t, got.HodlAddresses)
	assert.Zero(t, got.TotalTickets)
}

// failingFetcher simulates an aborted transaction fetch.
type failingFetcher struct{}

func (f *failingFetcher) FetchTransactions(ctx context.Context, account string, since int64) ([]entity.RawTransaction, error) {
	return nil, errors.New("fetch aborted")
}

type staticExtractor struct{}

func (staticExtractor) Extract(txs []entity.RawTransaction) ([]entity.TicketTransfer, entity.HodlSet) {
	return nil, entity.NewHodlSet()
}

type staticScanner struct{}

func (staticScanner) Scan(ctx context.Context, addrs []string) map[string]int64 {
	return nil
}

func TestRefreshFailureLeavesPreviousSnapshotUntouched(t *testing.T) {
	log := logger.NewNop()
	store := cache.NewSnapshotCache()

	previous := entity.NewAggregateSnapshot([]entity.TicketTransfer{
		{Sender: "keeper", Amount: 7},
	}, entity.NewHodlSet(), map[string]int64{"keeper": 3})
	publishedAt := time.Now().UTC()
	store.Publish(previous, publishedAt)

	svc := NewTicketAggregationService(&failingFetcher{}, staticExtractor{}, staticScanner{}, store, nil, campaignConfig(), log)

	err := svc.Refresh(context.Background())
	require.Error(t, err)

	got, gotAt, err := store.Latest()
	require.NoError(t, err)
	assert.Same(t, previous, got, "failed refresh must not replace the snapshot")
	assert.Equal(t, publishedAt, gotAt)

	before, afterErr := json.Marshal(previous)
	after, _ := json.Marshal(got)
	require.NoError(t, afterErr)
	assert.Equal(t, string(before), string(after))
}

func TestSchedulerRunsImmediatelyAndSurvivesFailures(t *testing.T) {
	log := logger.NewNop()

	calls := make(chan struct{}, 16)
	svc := &countingService{calls: calls}

	scheduler := NewRefreshScheduler(svc, 5*time.Millisecond, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go scheduler.Run(ctx)

	// First refresh fires immediately, later ones on the interval, and a
	// failing refresh does not stop the cycle.
	for i := 0; i < 3; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatalf("refresh %d never ran", i+1)
		}
	}
}

type countingService struct {
	calls chan struct{}
	n     int
}

func (c *countingService) Refresh(ctx context.Context) error {
	c.n++
	c.calls <- struct{}{}
	if c.n%2 == 1 {
		return fmt.Errorf("transient failure %d", c.n)
	}
	return nil
}
