package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"crypto-crash-backend/internal/models"
)

// PriceOracle reports the current USD price for one unit of a currency. It is
// a fallible, potentially slow external call; callers must not hold the
// ledger lock across it.
type PriceOracle interface {
	Price(ctx context.Context, currency models.Currency) (float64, error)
}

// RedisPriceOracle reads the cached crypto:price document a PriceFetcher
// keeps fresh, with a short-lived in-memory fallback for when redis is
// unreachable.
type RedisPriceOracle struct {
	client *redis.Client

	mu                sync.Mutex
	fallbackCache     map[models.Currency]float64
	fallbackFetchedAt time.Time
	fallbackTTL       time.Duration
}

func NewRedisPriceOracle(client *redis.Client) *RedisPriceOracle {
	return &RedisPriceOracle{
		client:      client,
		fallbackTTL: 60 * time.Second,
	}
}

func (o *RedisPriceOracle) Price(ctx context.Context, currency models.Currency) (float64, error) {
	data, err := o.client.Get(ctx, KeyCryptoPrices).Result()
	if err != nil {
		return o.fallbackPrice(currency, err)
	}

	var prices map[models.Currency]float64
	if err := json.Unmarshal([]byte(data), &prices); err != nil {
		return o.fallbackPrice(currency, err)
	}

	o.mu.Lock()
	o.fallbackCache = prices
	o.fallbackFetchedAt = time.Now()
	o.mu.Unlock()

	price, ok := prices[currency]
	if !ok {
		return 0, fmt.Errorf("%w: no price for %s", ErrPriceUnavailable, currency)
	}

	return price, nil
}

func (o *RedisPriceOracle) fallbackPrice(currency models.Currency, cause error) (float64, error) {
	log.Printf("Redis price lookup failed, using fallback: %v", cause)

	o.mu.Lock()
	defer o.mu.Unlock()

	price, ok := o.fallbackCache[currency]
	if ok && time.Since(o.fallbackFetchedAt) < o.fallbackTTL {
		return price, nil
	}

	return 0, ErrPriceUnavailable
}

const cmcQuotesURL = "https://pro-api.coinmarketcap.com/v1/cryptocurrency/quotes/latest"

// PriceFetcher polls CoinMarketCap and caches the BTC/ETH quotes in redis for
// the oracle to read. The upstream rate limit (HTTP 429) surfaces as
// ErrRateLimited so callers can distinguish a retryable condition.
type PriceFetcher struct {
	client   *redis.Client
	http     *http.Client
	apiKey   string
	interval time.Duration
}

func NewPriceFetcher(client *redis.Client, apiKey string, interval time.Duration) *PriceFetcher {
	return &PriceFetcher{
		client:   client,
		http:     &http.Client{Timeout: 10 * time.Second},
		apiKey:   apiKey,
		interval: interval,
	}
}

// Run polls until the context is cancelled. An immediate fetch happens before
// the first tick so prices are available at startup.
func (f *PriceFetcher) Run(ctx context.Context) {
	if err := f.FetchAndStore(ctx); err != nil {
		log.Printf("Failed to fetch prices: %v", err)
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := f.FetchAndStore(ctx); err != nil {
				log.Printf("Failed to fetch prices: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

type cmcQuoteResponse struct {
	Data map[string]struct {
		Quote struct {
			USD struct {
				Price float64 `json:"price"`
			} `json:"USD"`
		} `json:"quote"`
	} `json:"data"`
}

func (f *PriceFetcher) FetchAndStore(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cmcQuotesURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build price request: %v", err)
	}

	q := url.Values{}
	q.Set("symbol", "BTC,ETH")
	q.Set("convert", "USD")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("X-CMC_PRO_API_KEY", f.apiKey)

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("price request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("price request returned status %d", resp.StatusCode)
	}

	var quotes cmcQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return fmt.Errorf("failed to decode price response: %v", err)
	}

	prices := make(map[models.Currency]float64, len(models.SupportedCurrencies()))
	for _, currency := range models.SupportedCurrencies() {
		quote, ok := quotes.Data[string(currency)]
		if !ok {
			return fmt.Errorf("price response missing %s", currency)
		}
		prices[currency] = quote.Quote.USD.Price
	}

	data, err := json.Marshal(prices)
	if err != nil {
		return fmt.Errorf("failed to marshal prices: %v", err)
	}

	if err := f.client.Set(ctx, KeyCryptoPrices, data, TTLCryptoPrices).Err(); err != nil {
		return fmt.Errorf("failed to cache prices: %v", err)
	}

	log.Printf("Prices updated and cached: %v", prices)

	return nil
}
