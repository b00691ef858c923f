package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bridgeos/govern/internal/actor"
	"github.com/bridgeos/govern/internal/eval"
	"github.com/bridgeos/govern/internal/governance"
	"github.com/bridgeos/govern/internal/state"
)

func openStore() (*state.Store, error) {
	store, err := state.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.DBPath, err)
	}
	return store, nil
}

func newEvaluator() *eval.Evaluator {
	return eval.NewEvaluator(eval.DefaultEvalConfig())
}

// readJSONArg accepts inline JSON or @path.
func readJSONArg(v string) ([]byte, error) {
	if strings.HasPrefix(v, "@") {
		data, err := os.ReadFile(v[1:])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", v[1:], err)
		}
		return data, nil
	}
	return []byte(v), nil
}

func parseAction(v string) (governance.Action, error) {
	data, err := readJSONArg(v)
	if err != nil {
		return governance.Action{}, err
	}
	var a governance.Action
	if err := json.Unmarshal(data, &a); err != nil {
		return governance.Action{}, fmt.Errorf("parse action: %w", err)
	}
	return a, nil
}

func parseRole(v string) actor.Role {
	return actor.Role(strings.ToUpper(strings.TrimSpace(v)))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
