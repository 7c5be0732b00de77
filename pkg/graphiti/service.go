package graphiti

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Service combines node and fact search into a single formatted context
// block. Node and fact searches run concurrently; both complete before
// formatting.
type Service struct {
	client *Client
	logger *slog.Logger
}

// NewService creates a context-generation service over the given client.
func NewService(client *Client) *Service {
	return &Service{
		client: client,
		logger: slog.Default().With("component", "graphiti-service"),
	}
}

// GenerateContext searches the knowledge graph and formats the combined
// result. On failure after retries it returns a short error string
// suitable for user display together with the error; callers keep the
// pipeline going and surface the failure in their own result.
func (s *Service) GenerateContext(ctx context.Context, query string, maxNodes, maxFacts int) (string, error) {
	var (
		wg       sync.WaitGroup
		nodes    []Node
		facts    []Fact
		nodesErr error
		factsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		nodes, nodesErr = s.client.SearchNodes(ctx, query, maxNodes)
	}()
	go func() {
		defer wg.Done()
		facts, factsErr = s.client.SearchFacts(ctx, query, maxFacts)
	}()
	wg.Wait()

	if nodesErr != nil || factsErr != nil {
		err := nodesErr
		if err == nil {
			err = factsErr
		}
		s.logger.Error("Knowledge-graph search failed", "query", query, "error", err)
		return fmt.Sprintf("Error retrieving context from knowledge graph: %v", err), err
	}

	return FormatContext(nodes, facts), nil
}
