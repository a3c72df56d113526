// Package coingecko implements the market data provider against the
// CoinGecko HTTP API. It satisfies cryptofolio.MarketProvider: every failure
// (network, non-200 status, unparsable body) comes back as an
// ExternalServiceError for the resolver to absorb.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/avln/cryptofolio"
)

const (
	// DefaultBaseURL is the public CoinGecko API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	requestTimeout = 30 * time.Second
	// the free tier allows roughly 30 requests/minute
	requestInterval = 2 * time.Second
)

// Client is an HTTP client for the CoinGecko API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// New creates a client. baseURL may be empty to use the public API; apiKey
// may be empty for anonymous access; log may be nil to discard logs.
func New(baseURL, apiKey string, log logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Every(requestInterval), 1),
		log:     log,
	}
}

// SimplePrices fetches quotes for canonical ids from /simple/price. Ids the
// provider does not know are absent from the result; sub-fields the provider
// omits stay at zero.
func (c *Client) SimplePrices(ctx context.Context, ids []string, vsCurrency string) (map[string]cryptofolio.Quote, error) {
	vs := strings.ToLower(vsCurrency)
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", vs)
	q.Set("include_24hr_change", "true")
	q.Set("include_24hr_vol", "true")
	q.Set("include_market_cap", "true")
	addr := c.baseURL + "/simple/price?" + q.Encode()

	// the payload is keyed by coin id, e.g.
	// {"bitcoin":{"usd":64000,"usd_24h_change":1.2,"usd_24h_vol":...,"usd_market_cap":...}}
	var payload map[string]map[string]float64
	if err := c.getJSON(ctx, "simple/price", addr, &payload); err != nil {
		return nil, err
	}

	quotes := make(map[string]cryptofolio.Quote, len(payload))
	for id, fields := range payload {
		quotes[id] = cryptofolio.Quote{
			Price:     fields[vs],
			Change24h: fields[vs+"_24h_change"],
			Volume24h: fields[vs+"_24h_vol"],
			MarketCap: fields[vs+"_market_cap"],
		}
	}
	return quotes, nil
}

// Search runs a free-text query against /search and returns the candidate
// coins. The endpoint also returns exchanges, categories and NFTs, so the
// coin list is plucked out of the loose payload by path.
func (c *Client) Search(ctx context.Context, query string) ([]cryptofolio.Candidate, error) {
	addr := c.baseURL + "/search?query=" + url.QueryEscape(query)

	var jobj any
	if err := c.getJSON(ctx, "search", addr, &jobj); err != nil {
		return nil, err
	}

	jval, err := jsonpath.Get("$.coins", jobj)
	if err != nil {
		return nil, &cryptofolio.ExternalServiceError{
			Op:  "search",
			Err: fmt.Errorf("no coins in response: %w", err),
		}
	}
	jcoins, ok := jval.([]any)
	if !ok {
		return nil, &cryptofolio.ExternalServiceError{
			Op:  "search",
			Err: fmt.Errorf("coins is not a list: %T", jval),
		}
	}

	var candidates []cryptofolio.Candidate
	for _, jc := range jcoins {
		coin, ok := jc.(map[string]any)
		if !ok {
			continue
		}
		candidates = append(candidates, cryptofolio.Candidate{
			ID:     str(coin["id"]),
			Symbol: str(coin["symbol"]),
			Name:   str(coin["name"]),
		})
	}
	return candidates, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// getJSON performs a rate-limited HTTP GET and unmarshals the JSON response
// into data. All failures are wrapped as ExternalServiceError.
func (c *Client) getJSON(ctx context.Context, op, addr string, data any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &cryptofolio.ExternalServiceError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return &cryptofolio.ExternalServiceError{Op: op, Err: err}
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &cryptofolio.ExternalServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{"op": op, "status": resp.StatusCode}).Debug("coingecko request")

	if resp.StatusCode != http.StatusOK {
		return &cryptofolio.ExternalServiceError{
			Op:  op,
			Err: fmt.Errorf("cannot http GET %v: %v", req.URL.Path, resp.Status),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &cryptofolio.ExternalServiceError{Op: op, Err: err}
	}
	if err := json.Unmarshal(body, data); err != nil {
		return &cryptofolio.ExternalServiceError{Op: op, Err: err}
	}
	return nil
}
