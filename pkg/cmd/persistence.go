package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/salesdeck/automation/pkg/persistence"
	"github.com/salesdeck/automation/pkg/persistence/file"
	"github.com/salesdeck/automation/pkg/persistence/postgresql"
)

// NewPersistence selects the backing store from the database URL scheme:
// postgres:// for production, anything else is treated as a file root.
func NewPersistence(ctx context.Context, databaseURL string, logger *slog.Logger) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, databaseURL, logger)
	case strings.HasPrefix(databaseURL, "file://"):
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"), logger)
	default:
		return nil, fmt.Errorf("unsupported database URL: %q", databaseURL)
	}
}
