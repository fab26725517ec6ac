package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/front-go/internal/client"
	"github.com/fivetwenty-io/front-go/pkg/front"
)

type tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires credentials", func(t *testing.T) {
		t.Parallel()

		_, err := client.New(context.Background(), &front.Config{})
		require.ErrorIs(t, err, front.ErrCredentialsRequired)
	})

	t.Run("rejects both credentials", func(t *testing.T) {
		t.Parallel()

		_, err := client.New(context.Background(), &front.Config{
			APIKey: "key",
			OAuth:  &front.OAuthConfig{ClientID: "id", ClientSecret: "secret", AccessToken: "a"},
		})
		require.ErrorIs(t, err, front.ErrAmbiguousCredentials)
	})

	t.Run("creates client with API key", func(t *testing.T) {
		t.Parallel()

		c, err := client.New(context.Background(), &front.Config{APIKey: "key"})
		require.NoError(t, err)
		assert.Equal(t, "https://api2.frontapp.com", c.BaseURL())
		assert.False(t, c.IsUsingOAuth())

		token, err := c.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "key", token)

		err = c.UpdateOAuthTokens(context.Background(), "a", "r")
		require.ErrorIs(t, err, front.ErrNotUsingOAuth)
	})

	t.Run("creates client with OAuth", func(t *testing.T) {
		t.Parallel()

		c, err := client.New(context.Background(), &front.Config{
			OAuth: &front.OAuthConfig{ClientID: "id", ClientSecret: "secret", AccessToken: "a", RefreshToken: "r"},
		})
		require.NoError(t, err)
		assert.True(t, c.IsUsingOAuth())

		require.NoError(t, c.UpdateOAuthTokens(context.Background(), "a2", "r2"))

		token, err := c.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "a2", token)
	})

	t.Run("loads persisted tokens", func(t *testing.T) {
		t.Parallel()

		persister := &memoryPersister{stored: &front.Tokens{AccessToken: "stored", RefreshToken: "r"}}

		c, err := client.New(context.Background(), &front.Config{
			OAuth: &front.OAuthConfig{
				ClientID: "id", ClientSecret: "secret", AccessToken: "configured", RefreshToken: "r",
				Persister: persister,
			},
		})
		require.NoError(t, err)

		token, err := c.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "stored", token)

		require.NoError(t, c.UpdateOAuthTokens(context.Background(), "updated", "r2"))
		assert.Equal(t, &front.Tokens{AccessToken: "updated", RefreshToken: "r2"}, persister.stored)
	})
}

type memoryPersister struct {
	mu     sync.Mutex
	stored *front.Tokens
}

func (p *memoryPersister) LoadTokens(context.Context) (*front.Tokens, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stored, nil
}

func (p *memoryPersister) SaveTokens(_ context.Context, pair front.Tokens) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stored = &pair

	return nil
}

func TestClient_Execute(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer key", request.Header.Get("Authorization"))

		switch request.Method {
		case http.MethodGet:
			assert.Equal(t, "/teams/tim_1/tags", request.URL.Path)
			assert.Equal(t, "5", request.URL.Query().Get("limit"))
			_, _ = writer.Write([]byte(`{"_results":[{"id":"tag_1","name":"A"}],"_pagination":{"next":null}}`))
		case http.MethodDelete:
			writer.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	c, err := client.New(context.Background(), &front.Config{APIKey: "key", APIEndpoint: server.URL})
	require.NoError(t, err)

	body, err := c.Execute(context.Background(), &front.Request{
		Method:     http.MethodGet,
		Path:       "/teams/{team_id}/tags",
		PathParams: map[string]string{"team_id": "tim_1"},
		Query:      front.NewQueryParams().WithLimit(5),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_results":[{"id":"tag_1","name":"A"}],"_pagination":{"next":null}}`, string(body))

	body, err = c.Execute(context.Background(), &front.Request{Method: http.MethodDelete, Path: "/tags/tag_1"})
	require.NoError(t, err)
	assert.Nil(t, body)

	_, err = c.Execute(context.Background(), &front.Request{Method: http.MethodGet, Path: "/tags/{tag_id}"})
	require.ErrorIs(t, err, front.ErrPathParamMissing)
}

func TestClient_ListPages(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)

		if request.URL.Query().Get("page_token") == "" {
			_, _ = writer.Write([]byte(`{"_results":[{"id":"a"},{"id":"b"}],"_pagination":{"next":"/tags?page_token=X"}}`))

			return
		}

		assert.Equal(t, "X", request.URL.Query().Get("page_token"))
		_, _ = writer.Write([]byte(`{"_results":[{"id":"c"}],"_pagination":{"next":null}}`))
	}))
	defer server.Close()

	c, err := client.New(context.Background(), &front.Config{APIKey: "key", APIEndpoint: server.URL})
	require.NoError(t, err)

	tags := front.NewResource[tag](c, "/tags", "/tags/{id}")

	items, err := tags.ListAll(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []tag{{ID: "a"}, {ID: "b"}, {ID: "c"}}, items)
	assert.Equal(t, int32(2), hits.Load())
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_OAuthRefreshOn401(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32

	tokenServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		refreshes.Add(1)

		assert.NoError(t, request.ParseForm())
		assert.Equal(t, "old-refresh", request.PostForm.Get("refresh_token"))

		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]interface{}{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "bearer",
		})
	}))
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Header.Get("Authorization") != "Bearer new-access" {
			writer.WriteHeader(http.StatusUnauthorized)
			_, _ = writer.Write([]byte(`{"_error":{"status":401,"message":"expired"}}`))

			return
		}

		_, _ = writer.Write([]byte(`{"id":"tag_1","name":"A"}`))
	}))
	defer apiServer.Close()

	var (
		mu       sync.Mutex
		notified []front.Tokens
	)

	c, err := client.New(context.Background(), &front.Config{
		APIEndpoint: apiServer.URL,
		TokenURL:    tokenServer.URL,
		OAuth: &front.OAuthConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			AccessToken:  "old-access",
			RefreshToken: "old-refresh",
			OnTokenRefresh: func(_ context.Context, tokens front.Tokens) error {
				mu.Lock()
				defer mu.Unlock()

				notified = append(notified, tokens)

				return nil
			},
		},
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
	})
	require.NoError(t, err)

	tags := front.NewResource[tag](c, "/tags", "/tags/{id}")

	got, err := tags.Get(context.Background(), "tag_1")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, []front.Tokens{{AccessToken: "new-access", RefreshToken: "new-refresh"}}, notified)

	token, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
}

func TestClient_RetryConfig(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)
		writer.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	t.Run("custom retry count", func(t *testing.T) {
		before := hits.Load()

		c, err := client.New(context.Background(), &front.Config{
			APIKey: "key", APIEndpoint: server.URL,
			RetryMax: 1, RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond,
		})
		require.NoError(t, err)

		_, err = c.Execute(context.Background(), &front.Request{Method: http.MethodGet, Path: "/tags"})
		require.ErrorIs(t, err, front.ErrRateLimited)
		assert.Equal(t, int32(2), hits.Load()-before)
	})

	t.Run("retries disabled", func(t *testing.T) {
		before := hits.Load()

		c, err := client.New(context.Background(), &front.Config{APIKey: "key", APIEndpoint: server.URL, RetryMax: -1})
		require.NoError(t, err)

		_, err = c.Execute(context.Background(), &front.Request{Method: http.MethodGet, Path: "/tags"})
		require.ErrorIs(t, err, front.ErrRateLimited)
		assert.Equal(t, int32(1), hits.Load()-before)
	})
}
