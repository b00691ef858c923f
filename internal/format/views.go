package format

import (
	"strings"
	"time"

	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/logging"
	"github.com/bridgeos/govern/internal/registry"
	"github.com/bridgeos/govern/internal/state"
)

// Errors renders evaluation errors as CODE / PATH / MESSAGE rows.
func Errors(m Mode, errs []governance.EvalError) string {
	t := NewTable(m)
	t.Header("CODE", "PATH", "MESSAGE")
	for _, e := range errs {
		t.Row(e.Code, e.Path, e.Message)
	}
	t.Columns(ColumnConfig{Number: 3, MaxWidth: 80})
	return t.String()
}

// Artifacts renders one row per artifact.
func Artifacts(m Mode, arts []governance.Artifact) string {
	t := NewTable(m)
	t.Header("ID", "KIND", "STATUS", "STOPLIGHT", "APPROVED BY")
	for _, a := range arts {
		t.Row(a.ID, a.Kind, a.Status, a.Stoplight, a.Approval.ApprovedBy)
	}
	return t.String()
}

// Kinds renders the kind registry.
func Kinds(m Mode, entries []registry.Entry) string {
	t := NewTable(m)
	t.Header("KIND", "MODE", "CORE", "DESCRIPTION")
	for _, e := range entries {
		t.Row(e.Kind, e.Mode, e.Core, e.Description)
	}
	return t.String()
}

// Versions renders session versions, newest first as given.
func Versions(m Mode, versions []state.SessionVersion) string {
	t := NewTable(m)
	t.Header("VERSION", "PARENT", "SESSION", "STATE", "STOPLIGHT", "CREATED")
	for _, v := range versions {
		t.Row(short(v.VersionID), short(v.ParentID), v.SessionID, v.Session.State, v.Session.Stoplight,
			v.CreatedAt.Format(time.RFC3339))
	}
	return t.String()
}

// Decisions renders decision log entries.
func Decisions(m Mode, entries []logging.DecisionEntry) string {
	t := NewTable(m)
	t.Header("ID", "ACTION", "ROLE", "ALLOWED", "CODES", "VERSION")
	for _, e := range entries {
		t.Row(e.ID, e.ActionType, e.Role, e.Allowed, e.ErrorCodes, short(e.VersionID))
	}
	t.Columns(ColumnConfig{Number: 1, Align: AlignRight}, ColumnConfig{Number: 5, MaxWidth: 60})
	return t.String()
}

// ReplayRow is one fixture's line in a replay summary table.
type ReplayRow struct {
	Fixture        string
	Total          int
	Allowed        int
	Denied         int
	Mismatches     int
	FinalState     governance.SessionState
	FinalStoplight string
}

// Replays renders replay summaries with a totals footer.
func Replays(m Mode, rows []ReplayRow) string {
	t := NewTable(m)
	t.Header("FIXTURE", "STEPS", "ALLOWED", "DENIED", "MISMATCHES", "FINAL STATE", "STOPLIGHT")
	var total, mismatches int
	for _, r := range rows {
		t.Row(r.Fixture, r.Total, r.Allowed, r.Denied, r.Mismatches, r.FinalState, r.FinalStoplight)
		total += r.Total
		mismatches += r.Mismatches
	}
	t.Footer("TOTAL", total, "", "", mismatches, "", "")
	return t.String()
}

func short(id string) string {
	if len(id) > 8 && !strings.HasPrefix(id, "ss_") {
		return id[:8]
	}
	return id
}
