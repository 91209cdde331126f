// Package sheets defines the outbound port for mirroring goal progress to
// an external tabular sink.
package sheets

import (
	"context"

	"stackit/internal/core"
)

// ProgressWriter replaces the mirrored progress table with goals. An empty
// slice clears the table.
type ProgressWriter interface {
	WriteProgress(ctx context.Context, goals []core.Goal) error
}
