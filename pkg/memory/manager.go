package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oculairmedia/webhook-receiver-letta/pkg/letta"
)

// Mode selects how EnsureBlock writes the new value into a located block.
type Mode int

const (
	// ModeAppend runs the cumulative-context Append discipline.
	ModeAppend Mode = iota
	// ModeReplace overwrites the block value, used for listings that are
	// rebuilt on every webhook (e.g. available agents).
	ModeReplace
)

// BlockStore is the subset of the agent-runtime client the manager needs.
type BlockStore interface {
	ListAgentBlocks(ctx context.Context, agentID string) ([]letta.Block, error)
	ListBlocksByLabel(ctx context.Context, label string) ([]letta.Block, error)
	GetBlock(ctx context.Context, blockID string) (letta.Block, error)
	CreateBlock(ctx context.Context, label, value string) (letta.Block, error)
	UpdateBlockValue(ctx context.Context, blockID, value string) error
	AttachBlock(ctx context.Context, agentID, blockID string) error
}

// EnsureResult reports what EnsureBlock did.
type EnsureResult struct {
	BlockID string
	Label   string
	Created bool // a new block was created (and attached when possible)
	Updated bool // an existing block's value was written
}

// Manager locates, attaches, and updates per-agent labeled memory blocks.
type Manager struct {
	store  BlockStore
	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a block manager over the given store.
func NewManager(store BlockStore) *Manager {
	return &Manager{
		store:  store,
		now:    time.Now,
		logger: slog.Default().With("component", "memory-manager"),
	}
}

// EnsureBlock locates the canonical block for (agentID, label), attaching
// it lazily when needed, and writes value into it according to mode. When
// no block exists one is created and attached. agentID may be empty, in
// which case only process-wide blocks are considered and no attachment
// happens.
//
// The write is skipped when the computed value equals the current one; a
// 404 during update converts to the create path. Any other failure aborts
// with a structured error.
func (m *Manager) EnsureBlock(ctx context.Context, agentID, label, value string, mode Mode) (EnsureResult, error) {
	block, attached, found, err := m.locate(ctx, agentID, label)
	if err != nil {
		return EnsureResult{}, err
	}

	if found && !attached && agentID != "" {
		if err := m.store.AttachBlock(ctx, agentID, block.ID); err != nil {
			return EnsureResult{}, fmt.Errorf("attach block %s to %s: %w", block.ID, agentID, err)
		}
		m.logger.Info("Attached existing block", "block_id", block.ID, "label", label, "agent_id", agentID)
	}

	if found {
		res, err := m.update(ctx, block.ID, label, value, mode)
		if err == nil || !letta.IsNotFound(err) {
			return res, err
		}
		// The located block vanished between list and update.
		m.logger.Warn("Block disappeared during update, creating a new one", "block_id", block.ID, "label", label)
	}

	return m.create(ctx, agentID, label, value, mode)
}

// locate finds the canonical block for (agentID, label): the first
// matching block attached to the agent, falling back to the first match
// in the process-wide listing.
func (m *Manager) locate(ctx context.Context, agentID, label string) (letta.Block, bool, bool, error) {
	if agentID != "" {
		blocks, err := m.store.ListAgentBlocks(ctx, agentID)
		if err != nil {
			return letta.Block{}, false, false, fmt.Errorf("list blocks for %s: %w", agentID, err)
		}
		for _, b := range blocks {
			if b.Label == label {
				return b, true, true, nil
			}
		}
	}

	blocks, err := m.store.ListBlocksByLabel(ctx, label)
	if err != nil {
		return letta.Block{}, false, false, fmt.Errorf("list blocks with label %s: %w", label, err)
	}
	if len(blocks) > 0 {
		return blocks[0], false, true, nil
	}
	return letta.Block{}, false, false, nil
}

func (m *Manager) update(ctx context.Context, blockID, label, value string, mode Mode) (EnsureResult, error) {
	current, err := m.store.GetBlock(ctx, blockID)
	if err != nil {
		return EnsureResult{}, fmt.Errorf("get block %s: %w", blockID, err)
	}

	newValue := m.compose(current.Value, value, mode)
	if newValue == current.Value {
		return EnsureResult{BlockID: blockID, Label: label}, nil
	}

	if err := m.store.UpdateBlockValue(ctx, blockID, newValue); err != nil {
		return EnsureResult{}, fmt.Errorf("update block %s: %w", blockID, err)
	}
	return EnsureResult{BlockID: blockID, Label: label, Updated: true}, nil
}

func (m *Manager) create(ctx context.Context, agentID, label, value string, mode Mode) (EnsureResult, error) {
	block, err := m.store.CreateBlock(ctx, label, m.compose("", value, mode))
	if err != nil {
		return EnsureResult{}, fmt.Errorf("create block %s: %w", label, err)
	}
	if agentID != "" {
		if err := m.store.AttachBlock(ctx, agentID, block.ID); err != nil {
			return EnsureResult{}, fmt.Errorf("attach block %s to %s: %w", block.ID, agentID, err)
		}
	}
	m.logger.Info("Created block", "block_id", block.ID, "label", label, "agent_id", agentID)
	return EnsureResult{BlockID: block.ID, Label: label, Created: true}, nil
}

// compose produces the next block value, never exceeding MaxBlockBytes.
func (m *Manager) compose(current, value string, mode Mode) string {
	if mode == ModeReplace {
		if len(value) > MaxBlockBytes {
			return value[:MaxBlockBytes]
		}
		return value
	}
	return Append(current, value, m.now())
}
