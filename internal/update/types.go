package update

import (
	"time"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/governance"
)

// #region update-context
// UpdateContext carries the acting role, clock reading and id source into
// the pure Apply function.
type UpdateContext struct {
	Role  actor.Role
	Now   time.Time
	NewID func() string // id for a synthesized recovery artifact
}

// #endregion update-context

// #region update-result
// UpdateResult bundles everything returned by Apply.
type UpdateResult struct {
	NewSession   governance.Session
	NewArtifacts []governance.Artifact
	Notes        []string // one human-readable note per mutation
}

// #endregion update-result
