package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the decision_log table. Every evaluation
// routed through the store is logged, allowed or not.
type DecisionEntry struct {
	ID          int64
	SessionID   string
	VersionID   string // empty when the action was denied
	ActionType  string
	ActionJSON  string
	Role        string
	Allowed     bool
	ErrorCodes  string // JSON array of codes
	SideEffects string // JSON array of notes
	Reason      string
	CreatedAt   time.Time
}

// #endregion decision-entry
