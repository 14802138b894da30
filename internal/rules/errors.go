package rules

import "fmt"

// ValidationError identifies a rule definition that cannot be
// compiled. It is reported at group-save or preview time, never during
// evaluation.
type ValidationError struct {
	RuleID string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("rule on %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("rule %s on %q: %s", e.RuleID, e.Field, e.Reason)
}
