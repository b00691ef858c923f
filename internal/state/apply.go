package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/eval"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/logging"
	"github.com/google/uuid"
)

// #region session-lock
// sessionLock serializes calls for one session id. refs counts holders and
// waiters; the map entry is dropped once it reaches zero.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// acquire locks sessionID and returns the matching release.
func (s *Store) acquire(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

// #endregion session-lock

// #region apply
// Apply evaluates an action against the active version of a session. Calls
// for the same session id are serialized. Allowed results are committed as a
// new version; every decision is written to the decision log.
func (s *Store) Apply(ctx context.Context, sessionID string, action governance.Action, role actor.Role, ev *eval.Evaluator) (ApplyResult, error) {
	defer s.acquire(sessionID)()

	if err := ctx.Err(); err != nil {
		return ApplyResult{}, err
	}

	// 1. Load the active snapshot
	cur, err := s.GetCurrent(sessionID)
	if err != nil {
		return ApplyResult{}, err
	}

	// 2. Evaluate
	res := ev.Evaluate(cur.Session, cur.Artifacts, action, role)
	out := ApplyResult{Result: res}

	// 3. Commit allowed results and record the decision together
	var v *SessionVersion
	if res.Allowed {
		v = &SessionVersion{
			VersionID: uuid.New().String(),
			ParentID:  cur.VersionID,
			SessionID: sessionID,
			Session:   res.NewSession,
			Artifacts: res.NewArtifacts,
			CreatedAt: time.Now().UTC(),
		}
		out.VersionID = v.VersionID
	}

	codes, _ := json.Marshal(res.Codes())
	notes, _ := json.Marshal(res.SideEffects)
	actionJSON, _ := json.Marshal(action)
	entry := logging.DecisionEntry{
		SessionID:   sessionID,
		VersionID:   out.VersionID,
		ActionType:  string(action.Type),
		ActionJSON:  string(actionJSON),
		Role:        string(role),
		Allowed:     res.Allowed,
		ErrorCodes:  string(codes),
		SideEffects: string(notes),
		Reason:      action.Reason,
	}
	if err := s.commit(v, &entry); err != nil {
		return ApplyResult{}, fmt.Errorf("apply %s: %w", action.Type, err)
	}

	logging.New("state").Info("action evaluated",
		"session", sessionID,
		"action", action.String(),
		"role", role,
		"allowed", res.Allowed,
		"version", out.VersionID,
	)
	return out, nil
}

// #endregion apply

// #region apply-sweep
// ApplySweep runs a recovery sweep operation against the active version of a
// session and commits the result. Refused operations are logged and returned
// as errors without creating a version.
func (s *Store) ApplySweep(ctx context.Context, sessionID string, op eval.SweepOp, role actor.Role, ev *eval.Evaluator) (SweepOutcome, error) {
	defer s.acquire(sessionID)()

	if err := ctx.Err(); err != nil {
		return SweepOutcome{}, err
	}

	cur, err := s.GetCurrent(sessionID)
	if err != nil {
		return SweepOutcome{}, err
	}

	entry := logging.DecisionEntry{
		SessionID:  sessionID,
		ActionType: "SWEEP_" + strings.ToUpper(string(op.Kind)),
		Role:       string(role),
		Reason:     op.Reason,
	}
	if b, err := json.Marshal(op); err == nil {
		entry.ActionJSON = string(b)
	}

	res, sweepErr := ev.Sweep(cur.Session, cur.Artifacts, op, role)
	if sweepErr != nil {
		entry.Reason = sweepErr.Error()
		if err := s.commit(nil, &entry); err != nil {
			return SweepOutcome{}, err
		}
		return SweepOutcome{}, sweepErr
	}

	v := SessionVersion{
		VersionID: uuid.New().String(),
		ParentID:  cur.VersionID,
		SessionID: sessionID,
		Session:   res.NewSession,
		Artifacts: res.NewArtifacts,
		CreatedAt: time.Now().UTC(),
	}
	notes, _ := json.Marshal([]string{res.Note})
	entry.VersionID = v.VersionID
	entry.Allowed = true
	entry.SideEffects = string(notes)
	if err := s.commit(&v, &entry); err != nil {
		return SweepOutcome{}, fmt.Errorf("sweep %s: %w", op.Kind, err)
	}

	logging.New("state").Info("sweep applied",
		"session", sessionID,
		"op", op.Kind,
		"artifact", res.ArtifactID,
		"version", v.VersionID,
	)
	return SweepOutcome{SweepResult: res, VersionID: v.VersionID}, nil
}

// #endregion apply-sweep
