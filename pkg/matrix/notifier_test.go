package matrix

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_DeliversInBackground(t *testing.T) {
	var mu sync.Mutex
	var delivered []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			AgentID string `json:"agent_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		delivered = append(delivered, body.AgentID)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	client.OverrideHTTPClientForTest(server.Client())
	n := NewNotifier(client, 2)

	n.Submit("agent-A")
	n.Submit("agent-B")
	n.Stop() // drains the queue

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"agent-A", "agent-B"}, delivered)
}

func TestNotifier_NilSafe(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() {
		n.Submit("agent-A")
		n.Stop()
	})
}

func TestNewNotifier_NilClient(t *testing.T) {
	assert.Nil(t, NewNotifier(nil, 2))
}

func TestNotifier_DeliveryFailureIsContained(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	client.OverrideHTTPClientForTest(server.Client())
	n := NewNotifier(client, 1)

	assert.NotPanics(t, func() {
		n.Submit("agent-A")
		n.Stop()
	})
}
