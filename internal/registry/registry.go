// Package registry describes the artifact kinds the evaluator knows about.
// It is descriptive only; nothing here affects evaluation.
package registry

import "github.com/bridgeos/govern/internal/governance"

// Mode says when an artifact kind is produced relative to compilation.
type Mode string

const (
	ModeStandard    Mode = "STANDARD"
	ModePreParallel Mode = "PRE_PARALLEL"
)

// Entry is one registered kind.
type Entry struct {
	Kind        governance.Kind `json:"kind"`
	Mode        Mode            `json:"mode"`
	Description string          `json:"description"`
	Core        bool            `json:"core"`
}

var entries = []Entry{
	{Kind: governance.KindIngestion, Mode: ModeStandard, Core: true,
		Description: "Captures raw input and a normalized summary of it."},
	{Kind: governance.KindSemantic, Mode: ModeStandard, Core: true,
		Description: "Defines terms and records ambiguities and assumptions."},
	{Kind: governance.KindExecution, Mode: ModeStandard, Core: true,
		Description: "Lists plan steps with their owners and the known risks."},
	{Kind: governance.KindGovernance, Mode: ModeStandard, Core: true,
		Description: "States the policy version, rule summary and test vectors."},
	{Kind: governance.KindSeedSweep, Mode: ModePreParallel,
		Description: "Runs the STOP to STABILIZE recovery procedure before or during compilation."},
}

// All returns every entry in registration order.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Lookup returns the entry for kind.
func Lookup(kind governance.Kind) (Entry, bool) {
	for _, e := range entries {
		if e.Kind == kind {
			return e, true
		}
	}
	return Entry{}, false
}
