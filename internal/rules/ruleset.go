package rules

import (
	"errors"

	"gamehub-backend/internal/domain"
)

// CompileSet compiles every rule in a group's rule set, collecting the
// validation errors for all invalid rules rather than stopping at the
// first.
func CompileSet(rs []domain.Rule) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(rs))
	var errs []error
	for _, r := range rs {
		p, err := Compile(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		preds = append(preds, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return preds, nil
}

// EvalAll combines compiled predicates under a rule mode. An empty
// rule set is vacuously true under AND (an "everyone" group) and false
// under OR.
func EvalAll(preds []Predicate, mode domain.RuleMode, p *domain.Player) bool {
	if mode == domain.RuleModeOr {
		for _, pred := range preds {
			if pred(p) {
				return true
			}
		}
		return false
	}
	for _, pred := range preds {
		if !pred(p) {
			return false
		}
	}
	return true
}
