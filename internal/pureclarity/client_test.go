package pureclarity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsCredentialsAndPayload(t *testing.T) {
	var got feedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/feed/append", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("access", "secret", server.URL)
	rows := []map[string]any{{"Id": "1", "Sku": "SKU-1"}}
	require.NoError(t, client.SendPage(context.Background(), "product", 1, 2, rows))

	assert.Equal(t, "access", got.AccessKey)
	assert.Equal(t, "secret", got.SecretKey)
	assert.Equal(t, "product", got.FeedType)
	assert.Equal(t, 1, got.Store)
	assert.Equal(t, 2, got.Page)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "SKU-1", got.Data[0]["Sku"])
}

func TestClientRetriesOnRateLimit(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("a", "s", server.URL)
	err := client.StartFeed(context.Background(), "product", 1)
	assert.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("a", "s", server.URL)
	err := client.EndFeed(context.Background(), "product", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")

	var serverErr *ServerError
	assert.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusBadGateway, serverErr.StatusCode)
	assert.Equal(t, int32(maxRetries), attempts.Load())
}

func TestClientDoesNotRetryBadCredentials(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("a", "s", server.URL)
	err := client.StartFeed(context.Background(), "product", 1)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestSessionSucceeded(t *testing.T) {
	t.Run("tracks a fully submitted feed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		session := NewClientWithBaseURL("a", "s", server.URL).NewSession(1)
		ctx := context.Background()
		require.NoError(t, session.StartFeed(ctx, "product"))
		require.NoError(t, session.SendPage(ctx, "product", 1, nil))
		require.NoError(t, session.EndFeed(ctx, "product"))

		assert.True(t, session.Succeeded("product"))
		assert.False(t, session.Succeeded("category"), "never started")
	})

	t.Run("page failure marks the type failed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/feed/append" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		session := NewClientWithBaseURL("a", "s", server.URL).NewSession(1)
		ctx := context.Background()
		require.NoError(t, session.StartFeed(ctx, "product"))
		assert.Error(t, session.SendPage(ctx, "product", 1, nil))

		assert.False(t, session.Succeeded("product"))
	})
}
