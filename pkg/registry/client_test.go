package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(server *httptest.Server) *Client {
	c := NewClient(server.URL)
	c.OverrideHTTPClientForTest(server.Client())
	return c
}

func TestSearch(t *testing.T) {
	t.Run("query parameters and decoding", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v1/agents/search", r.URL.Path)
			assert.Equal(t, "deploy help", r.URL.Query().Get("query"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			assert.Equal(t, "0.5", r.URL.Query().Get("min_score"))

			_, _ = w.Write([]byte(`[{"agent_id":"agent-x","name":"Deployer","description":"rolls out services","capabilities":["deploy"],"status":"online","score":0.91}]`))
		}))
		defer server.Close()

		agents, err := newTestClient(server).Search(context.Background(), "deploy help", 5, 0.5)
		require.NoError(t, err)
		require.Len(t, agents, 1)
		assert.Equal(t, "agent-x", agents[0].AgentID)
		assert.Equal(t, 0.91, agents[0].Score)
	})

	t.Run("agents envelope", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"agents":[{"agent_id":"agent-a"},{"agent_id":"agent-b"}]}`))
		}))
		defer server.Close()

		agents, err := newTestClient(server).Search(context.Background(), "q", 5, 0.5)
		require.NoError(t, err)
		assert.Len(t, agents, 2)
	})

	t.Run("upstream failure surfaces status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := newTestClient(server).Search(context.Background(), "q", 5, 0.5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}
