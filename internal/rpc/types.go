package rpc

import (
	"encoding/json"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/governance"
)

// #region messages
// EvaluateRequest is a stateless evaluation. Session and Artifacts are kept
// raw so the evaluator reports malformed input as evaluation errors rather
// than transport errors.
type EvaluateRequest struct {
	Session   json.RawMessage   `json:"session"`
	Artifacts json.RawMessage   `json:"artifacts"`
	Action    governance.Action `json:"action"`
	Role      actor.Role        `json:"role"`
}

// ApplyRequest evaluates an action against a stored session.
type ApplyRequest struct {
	SessionID string            `json:"session_id"`
	Action    governance.Action `json:"action"`
	Role      actor.Role        `json:"role"`
}

// ApplyResponse carries the verdict and the committed version, if any.
type ApplyResponse struct {
	Result    governance.Result `json:"result"`
	VersionID string            `json:"version_id,omitempty"`
}

// #endregion messages
