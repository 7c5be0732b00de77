package matrix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyNewAgent(t *testing.T) {
	t.Run("posts the sighting", func(t *testing.T) {
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/notify", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := NewClient(server.URL, "!room:example.org")
		c.OverrideHTTPClientForTest(server.Client())

		require.NoError(t, c.NotifyNewAgent(context.Background(), "agent-A"))
		assert.Equal(t, "new_agent_detected", gotBody["event"])
		assert.Equal(t, "agent-A", gotBody["agent_id"])
		assert.Equal(t, "!room:example.org", gotBody["room_id"])
	})

	t.Run("room omitted when unset", func(t *testing.T) {
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		c.OverrideHTTPClientForTest(server.Client())

		require.NoError(t, c.NotifyNewAgent(context.Background(), "agent-A"))
		_, hasRoom := gotBody["room_id"]
		assert.False(t, hasRoom)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		c.OverrideHTTPClientForTest(server.Client())

		err := c.NotifyNewAgent(context.Background(), "agent-A")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}
