// Package rules loads and caches a user's active workflow rules.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/persistence"
)

// Store caches active rules per owner. The cache is read-mostly and refreshed
// wholesale on Reload; the engine never mutates rules.
type Store struct {
	repo   persistence.RuleRepository
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string][]models.WorkflowRule
}

func NewStore(repo persistence.RuleRepository, logger *slog.Logger) *Store {
	return &Store{
		repo:   repo,
		logger: logger.With("module", "rule_store"),
		cache:  make(map[string][]models.WorkflowRule),
	}
}

// Load returns the owner's active rules, fetching from the repository on a
// cache miss.
func (s *Store) Load(ctx context.Context, ownerID string) ([]models.WorkflowRule, error) {
	s.mu.RLock()
	cached, ok := s.cache[ownerID]
	s.mu.RUnlock()

	if ok {
		return cached, nil
	}

	loaded, err := s.repo.ActiveRulesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for owner %s: %w", ownerID, err)
	}

	s.mu.Lock()
	s.cache[ownerID] = loaded
	s.mu.Unlock()

	s.logger.Debug("Loaded rules into cache", "owner_id", ownerID, "count", len(loaded))

	return loaded, nil
}

// Reload drops the whole cache. Invoked after rule edits elsewhere in the
// application; the next Load per owner refetches.
func (s *Store) Reload() {
	s.mu.Lock()
	s.cache = make(map[string][]models.WorkflowRule)
	s.mu.Unlock()

	s.logger.Info("Rule cache invalidated")
}
