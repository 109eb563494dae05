package entropy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClientFallsBack(t *testing.T) {
	var c *Client
	assert.False(t, c.Enabled())
	assert.Nil(t, NewClient(""))
	assert.Positive(t, Seed(nil))
}

func TestCryptoSeedPositive(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 32; i++ {
		s := CryptoSeed()
		assert.Positive(t, s)
		seen[s] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestSeedFromRandomOrg(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string         `json:"method"`
			Params map[string]any `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "generateIntegers", req.Method)
		assert.Equal(t, "key", req.Params["apiKey"])
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[3,5]}},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL
	assert.Equal(t, int64(3<<31|5), Seed(c))
}

func TestSeedFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"message":"key revoked"},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL
	_, err := c.fetchSeed()
	assert.EqualError(t, err, "key revoked")
	assert.Positive(t, Seed(c))
}

func TestSeedRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[0,9]}},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL
	c.retryInterval = time.Millisecond

	seed, err := c.fetchSeed()
	require.NoError(t, err)
	assert.Equal(t, int64(9), seed)
	assert.Equal(t, 3, calls)
}
