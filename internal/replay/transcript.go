package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bridgeos/govern/internal/governance"
)

// #region transcript

// WriteTranscript writes one JSON object per step.
func WriteTranscript(w io.Writer, r Run) error {
	enc := json.NewEncoder(w)
	for _, res := range r.Results {
		if res.Errors == nil {
			res.Errors = []governance.EvalError{}
		}
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write transcript step %d: %w", res.Step, err)
		}
	}
	return nil
}

// WriteTimeline renders a Markdown timeline of the run followed by its summary.
func WriteTimeline(w io.Writer, r Run) error {
	bw := bufio.NewWriter(w)
	title := r.Description
	if title == "" {
		title = "Replay"
	}
	fmt.Fprintf(bw, "# %s\n\n", title)

	for _, res := range r.Results {
		status := "ALLOWED"
		if !res.Allowed {
			status = "BLOCKED"
		}
		fmt.Fprintf(bw, "- %s Step %d: %s | role=%s | action=%s | state=%s | stoplight=%s\n",
			status, res.Step, res.Label, res.Role, res.Action, res.SessionState, res.SessionStoplight)
		if !res.Allowed && len(res.Errors) > 0 {
			fmt.Fprintf(bw, "  - codes: %v\n", codes(res))
		}
		if !res.Matched {
			fmt.Fprintf(bw, "  - MISMATCH: %s\n", res.Mismatch)
		}
	}

	s := Summarize(r)
	fmt.Fprintf(bw, "\n## Summary\n\n")
	fmt.Fprintf(bw, "Total steps: %d\n", s.Total)
	fmt.Fprintf(bw, "Allowed: %d\n", s.Allowed)
	fmt.Fprintf(bw, "Denied: %d\n", s.Denied)
	fmt.Fprintf(bw, "Mismatches: %d\n", s.Mismatches)
	fmt.Fprintf(bw, "Final state: %s\n", s.FinalState)
	fmt.Fprintf(bw, "Final stoplight: %s\n", s.FinalStoplight)
	return bw.Flush()
}

func codes(res StepResult) []string {
	out := make([]string, len(res.Errors))
	for i, e := range res.Errors {
		out[i] = string(e.Code)
	}
	return out
}

// #endregion transcript
