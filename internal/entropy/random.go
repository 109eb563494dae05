// Package entropy derives run seeds from true randomness: random.org when
// an API key is configured, crypto/rand otherwise.
package entropy

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultEndpoint is the random.org JSON-RPC endpoint.
const DefaultEndpoint = "https://api.random.org/json-rpc/4/invoke"

// maxRetries bounds transport retries per seed request.
const maxRetries = 3

// Client draws integers from random.org.
type Client struct {
	apiKey        string
	endpoint      string
	client        *http.Client
	retryInterval time.Duration
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:        apiKey,
		endpoint:      DefaultEndpoint,
		client:        &http.Client{Timeout: 15 * time.Second},
		retryInterval: 500 * time.Millisecond,
	}
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Seed returns a positive seed. It asks random.org when the client is
// enabled and falls back to crypto/rand on any failure.
func Seed(c *Client) int64 {
	if c.Enabled() {
		seed, err := c.fetchSeed()
		if err == nil {
			slog.Debug("seed drawn from random.org", "seed", seed)
			return seed
		}
		slog.Debug("random.org seed failed, using crypto/rand", "error", err)
	}
	return CryptoSeed()
}

// fetchSeed asks random.org for a seed, retrying transport failures with
// exponential backoff. API and decoding errors are not retried.
func (c *Client) fetchSeed() (int64, error) {
	var seed int64
	op := func() error {
		s, err := c.fetchOnce()
		if err != nil {
			return err
		}
		seed = s
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	if err := backoff.Retry(op, backoff.WithMaxRetries(b, maxRetries)); err != nil {
		return 0, err
	}
	return seed, nil
}

// fetchOnce combines two random 31-bit integers into one seed.
func (c *Client) fetchOnce() (int64, error) {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      2,
			"min":    0,
			"max":    1<<31 - 1,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("marshal: %w", err)
	}

	resp, err := c.client.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return 0, fmt.Errorf("server status %d", resp.StatusCode)
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}

	var result struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, backoff.Permanent(fmt.Errorf("parse: %w", err))
	}
	if result.Error != nil {
		return 0, backoff.Permanent(errors.New(result.Error.Message))
	}

	data := result.Result.Random.Data
	if len(data) < 2 {
		return 0, backoff.Permanent(fmt.Errorf("expected 2 integers, got %d", len(data)))
	}
	seed := data[0]<<31 | data[1]
	if seed <= 0 {
		return 0, backoff.Permanent(errors.New("non-positive seed"))
	}
	return seed, nil
}

// CryptoSeed returns a positive seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Unreachable on supported platforms.
		return time.Now().UnixNano()&(1<<62-1) | 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		return 1
	}
	return seed
}
