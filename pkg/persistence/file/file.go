// Package file provides JSON-file persistence for development and tests.
// Rules and execution records are stored one file per row under the root
// directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/salesdeck/automation/pkg/models"
	"github.com/salesdeck/automation/pkg/persistence"
)

const (
	rulesDir      = "rules"
	executionsDir = "executions"
)

type Persistence struct {
	root   string
	logger *slog.Logger
	mu     sync.RWMutex
}

func NewPersistence(root string, logger *slog.Logger) (*Persistence, error) {
	for _, dir := range []string{rulesDir, executionsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	return &Persistence{
		root:   root,
		logger: logger.With("module", "file_persistence", "root", root),
	}, nil
}

var _ persistence.Persistence = (*Persistence)(nil)

func (p *Persistence) ActiveRulesByOwner(_ context.Context, ownerID string) ([]models.WorkflowRule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(p.root, rulesDir))
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	var rules []models.WorkflowRule

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		var rule models.WorkflowRule
		if err := p.read(filepath.Join(rulesDir, entry.Name()), &rule); err != nil {
			return nil, err
		}

		if rule.OwnerID == ownerID && rule.IsActive {
			rules = append(rules, rule)
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})

	return rules, nil
}

func (p *Persistence) RuleByID(_ context.Context, id string) (*models.WorkflowRule, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var rule models.WorkflowRule

	path := filepath.Join(rulesDir, id+".json")
	if err := p.read(path, &rule); err != nil {
		if os.IsNotExist(err) {
			return nil, &persistence.StoreError{Op: "RuleByID", Entity: "rule", ID: id, Err: persistence.ErrRuleNotFound}
		}

		return nil, err
	}

	return &rule, nil
}

func (p *Persistence) SaveRule(_ context.Context, rule *models.WorkflowRule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}

	return p.write(filepath.Join(rulesDir, rule.ID+".json"), rule)
}

func (p *Persistence) SaveExecution(_ context.Context, record *models.ExecutionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	return p.write(filepath.Join(executionsDir, record.ID+".json"), record)
}

func (p *Persistence) ExecutionByID(_ context.Context, id string) (*models.ExecutionRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var record models.ExecutionRecord

	path := filepath.Join(executionsDir, id+".json")
	if err := p.read(path, &record); err != nil {
		if os.IsNotExist(err) {
			return nil, &persistence.StoreError{Op: "ExecutionByID", Entity: "execution", ID: id, Err: persistence.ErrExecutionNotFound}
		}

		return nil, err
	}

	return &record, nil
}

func (p *Persistence) ExecutionsByOwner(_ context.Context, ownerID string, limit, offset int) ([]*models.ExecutionRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(p.root, executionsDir))
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	var records []*models.ExecutionRecord

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		var record models.ExecutionRecord
		if err := p.read(filepath.Join(executionsDir, entry.Name()), &record); err != nil {
			return nil, err
		}

		if record.OwnerID == ownerID {
			records = append(records, &record)
		}
	}

	// Newest first, matching the history view.
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	if offset >= len(records) {
		return nil, nil
	}

	records = records[offset:]

	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	return records, nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	_, err := os.Stat(p.root)

	return err
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) read(relPath string, out any) error {
	data, err := os.ReadFile(filepath.Join(p.root, relPath))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", relPath, err)
	}

	return nil
}

func (p *Persistence) write(relPath string, in any) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", relPath, err)
	}

	return os.WriteFile(filepath.Join(p.root, relPath), data, 0o644)
}
