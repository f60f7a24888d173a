// README: Persisted run records for the results API.
package report

import (
	"time"

	"smartdispatch/internal/sim"
	"smartdispatch/internal/types"
)

// Run is one persisted simulation run: identity, inputs, and its KPI vector.
type Run struct {
	ID        types.ID
	Dataset   string
	Strategy  string
	KPI       sim.Snapshot
	CreatedAt time.Time
}
