package gate

import "github.com/bridgeos/govern/internal/governance"

// #region decision
// Decision is the output of a gate check.
type Decision struct {
	Allowed bool
	Errors  []governance.EvalError // non-empty iff denied
}

func allow() Decision { return Decision{Allowed: true} }

func deny(code governance.Code, message string) Decision {
	return Decision{
		Allowed: false,
		Errors:  []governance.EvalError{{Code: code, Message: message}},
	}
}

// #endregion decision
