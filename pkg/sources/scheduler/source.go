// Package scheduler emits schedule.due events for time-based rules using
// cron expressions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/salesdeck/automation/pkg/eventbus"
	"github.com/salesdeck/automation/pkg/events"
)

// Schedule binds one rule to a cron expression.
type Schedule struct {
	RuleID  string
	OwnerID string
	Cron    string
	Data    map[string]any
}

type Source struct {
	publisher eventbus.EventPublisher
	logger    *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
}

func NewSource(publisher eventbus.EventPublisher, logger *slog.Logger) *Source {
	return &Source{
		publisher: publisher,
		logger:    logger.With("module", "scheduler_source"),
		entries:   make(map[string]cron.EntryID),
	}
}

// Add registers a schedule. Replaces any existing entry for the same rule.
func (s *Source) Add(schedule Schedule) error {
	if schedule.RuleID == "" {
		return errors.New("schedule rule ID is required")
	}

	if _, err := cron.ParseStandard(schedule.Cron); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule.Cron, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return errors.New("scheduler is not started")
	}

	if existing, ok := s.entries[schedule.RuleID]; ok {
		s.cron.Remove(existing)
	}

	entryID, err := s.cron.AddFunc(schedule.Cron, func() {
		s.fire(schedule)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job for rule %s: %w", schedule.RuleID, err)
	}

	s.entries[schedule.RuleID] = entryID
	s.logger.Info("Registered schedule", "rule_id", schedule.RuleID, "cron", schedule.Cron)

	return nil
}

// Remove drops the schedule for a rule, if one exists.
func (s *Source) Remove(ruleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[ruleID]; ok && s.cron != nil {
		s.cron.Remove(entryID)
		delete(s.entries, ruleID)
	}
}

func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	s.logger.InfoContext(ctx, "Starting scheduler")

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))
	s.cron.Start()

	return nil
}

func (s *Source) fire(schedule Schedule) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	event := events.ScheduleDue{
		BaseEvent: events.NewBaseEvent(events.ScheduleDueEvent, schedule.OwnerID),
		RuleID:    schedule.RuleID,
		Data:      schedule.Data,
	}

	if err := s.publisher.Publish(ctx, schedule.OwnerID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish schedule event", "rule_id", schedule.RuleID, "error", err)
	}
}

func (s *Source) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.InfoContext(ctx, "Stopping scheduler")

	if s.cron != nil {
		stopCtx := s.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}

		s.cron = nil
	}

	return nil
}
