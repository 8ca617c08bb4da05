package blockchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jetton-ticket-tracker/internal/domain/entity"
	"jetton-ticket-tracker/internal/infrastructure/config"
	"jetton-ticket-tracker/internal/infrastructure/logger"

	"go.uber.org/zap"
)

// errRateLimited marks a 429 response from the upstream API.
var errRateLimited = errors.New("rate limited by upstream")

// TonAPIClient wraps the TON indexing REST API. It implements both the
// TransactionFetcher and EventFetcher interfaces with newest-first
// pagination bounded by a start timestamp.
type TonAPIClient struct {
	baseURL       string
	httpClient    *http.Client
	pageLimit     int
	retryAttempts int
	retryDelay    time.Duration
	logger        *logger.Logger
}

// NewTonAPIClient creates a new TON API client
func NewTonAPIClient(cfg *config.TonAPIConfig, log *logger.Logger) *TonAPIClient {
	return &TonAPIClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		pageLimit:     cfg.PageLimit,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
		logger:        log.WithComponent("tonapi-client"),
	}
}

// FetchTransactions walks the account's transaction history newest first,
// keeping transactions with utime >= since. The walk stops on an empty
// page, when the page crosses the since boundary (ledger order guarantees
// everything after it is older), or on any upstream failure. Failures
// truncate the walk and return whatever was accumulated; they never
// propagate to the caller.
func (c *TonAPIClient) FetchTransactions(ctx context.Context, account string, since int64) ([]entity.RawTransaction, error) {
	all := make([]entity.RawTransaction, 0, c.pageLimit)
	var beforeLT int64

	for {
		c.logger.Info("Requesting transactions page",
			zap.String("account", account),
			zap.Int64("before_lt", beforeLT))

		page, err := c.getTransactionsPage(ctx, account, beforeLT)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return all, err
			}
			c.logger.Error("Transaction page fetch failed, truncating walk",
				zap.String("account", account),
				zap.Error(err))
			return all, nil
		}

		if len(page) == 0 {
			c.logger.Info("No more transactions", zap.Int("total", len(all)))
			return all, nil
		}

		crossedBoundary := false
		for _, tx := range page {
			if tx.Utime >= since {
				all = append(all, tx)
			} else {
				crossedBoundary = true
			}
		}
		c.logger.Info("Fetched transactions", zap.Int("total", len(all)))

		if crossedBoundary {
			return all, nil
		}

		beforeLT = page[len(page)-1].LT
	}
}

// FetchEvents walks one account's activity events newest first, bounded
// below by since. Each page request is retried with a fixed backoff when
// the upstream rate-limits or fails; exhausting the retry budget returns
// an error so the caller can abandon this account's scan.
func (c *TonAPIClient) FetchEvents(ctx context.Context, account string, since int64) ([]entity.AccountEvent, error) {
	all := make([]entity.AccountEvent, 0, c.pageLimit)
	var beforeLT int64

	for {
		page, err := c.getEventsPageWithRetry(ctx, account, beforeLT)
		if err != nil {
			return nil, err
		}

		if len(page) == 0 {
			return all, nil
		}

		crossedBoundary := false
		for _, ev := range page {
			if ev.Timestamp >= since {
				all = append(all, ev)
			} else {
				crossedBoundary = true
			}
		}

		// A short page means the history is exhausted; no cursor needed.
		if crossedBoundary || len(page) < c.pageLimit {
			return all, nil
		}

		beforeLT = page[len(page)-1].LT
	}
}

// getEventsPageWithRetry fetches one events page, retrying rate-limited or
// failed requests up to the configured attempt budget with a fixed delay.
func (c *TonAPIClient) getEventsPageWithRetry(ctx context.Context, account string, beforeLT int64) ([]entity.AccountEvent, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		page, err := c.getEventsPage(ctx, account, beforeLT)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		if errors.Is(err, errRateLimited) {
			c.logger.Warn("Rate limited, backing off",
				zap.String("account", account),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.retryAttempts),
				zap.Duration("retry_in", c.retryDelay))
		} else {
			c.logger.Error("Events page fetch failed, retrying",
				zap.String("account", account),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.retryAttempts),
				zap.Error(err))
		}

		if attempt == c.retryAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}

	return nil, fmt.Errorf("events fetch for %s failed after %d attempts: %w", account, c.retryAttempts, lastErr)
}

func (c *TonAPIClient) getTransactionsPage(ctx context.Context, account string, beforeLT int64) ([]entity.RawTransaction, error) {
	endpoint := fmt.Sprintf("%s/v2/blockchain/accounts/%s/transactions", c.baseURL, url.PathEscape(account))

	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageLimit))
	if beforeLT > 0 {
		query.Set("before_lt", strconv.FormatInt(beforeLT, 10))
	}

	var response struct {
		Transactions []entity.RawTransaction `json:"transactions"`
	}
	if err := c.getJSON(ctx, endpoint, query, &response); err != nil {
		return nil, err
	}
	return response.Transactions, nil
}

func (c *TonAPIClient) getEventsPage(ctx context.Context, account string, beforeLT int64) ([]entity.AccountEvent, error) {
	endpoint := fmt.Sprintf("%s/v2/accounts/%s/events", c.baseURL, url.PathEscape(account))

	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageLimit))
	query.Set("initiator", "false")
	if beforeLT > 0 {
		query.Set("before_lt", strconv.FormatInt(beforeLT, 10))
	}

	var response struct {
		Events []entity.AccountEvent `json:"events"`
	}
	if err := c.getJSON(ctx, endpoint, query, &response); err != nil {
		return nil, err
	}
	return response.Events, nil
}

// getJSON performs a GET request and decodes the JSON response body.
func (c *TonAPIClient) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "jetton-ticket-tracker/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
