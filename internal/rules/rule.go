package rules

import (
	"fmt"
	"strconv"
	"time"

	"gamehub-backend/internal/domain"
)

// Predicate is a compiled rule, ready to test a candidate player. It
// is pure: same player, same answer, no side effects.
type Predicate func(p *domain.Player) bool

// operand is a rule operand parsed once at compile time. Evaluation
// never parses operands again; an unparsable operand is a compile
// error, not a runtime miss.
type operand struct {
	raw     string
	num     float64
	t       time.Time
	dayOnly bool
}

type compareFn func(playerValue string, o operand) bool

type opKey struct {
	op   domain.Operator
	cast domain.CastType
}

// comparisons is the closed operator x cast dispatch table. A pair
// missing from the table is a validation error. Relational operators
// are deliberately absent for CHAR: the rule language defines no
// string collation order.
var comparisons = map[opKey]compareFn{
	{domain.OperatorEquals, domain.CastChar}:     equalsChar,
	{domain.OperatorEquals, domain.CastDouble}:   numericCompare(func(a, b float64) bool { return a == b }),
	{domain.OperatorEquals, domain.CastDatetime}: equalsDatetime,

	{domain.OperatorGT, domain.CastDouble}:  numericCompare(func(a, b float64) bool { return a > b }),
	{domain.OperatorGTE, domain.CastDouble}: numericCompare(func(a, b float64) bool { return a >= b }),
	{domain.OperatorLT, domain.CastDouble}:  numericCompare(func(a, b float64) bool { return a < b }),
	{domain.OperatorLTE, domain.CastDouble}: numericCompare(func(a, b float64) bool { return a <= b }),

	{domain.OperatorGT, domain.CastDatetime}:  datetimeCompare(func(a, b time.Time) bool { return a.After(b) }),
	{domain.OperatorGTE, domain.CastDatetime}: datetimeCompare(func(a, b time.Time) bool { return !a.Before(b) }),
	{domain.OperatorLT, domain.CastDatetime}:  datetimeCompare(func(a, b time.Time) bool { return a.Before(b) }),
	{domain.OperatorLTE, domain.CastDatetime}: datetimeCompare(func(a, b time.Time) bool { return !a.After(b) }),
}

// Compile turns a rule definition into a predicate, or reports why the
// definition is invalid. The missing-attribute semantics are fixed: a
// player without the addressed attribute fails the base comparison, and
// negate is applied after that, so a negated rule over a missing
// attribute is true.
func Compile(r domain.Rule) (Predicate, error) {
	if !KnownField(r.Field) {
		return nil, &ValidationError{RuleID: r.ID, Field: r.Field, Reason: "unknown field"}
	}

	switch r.Operator {
	case domain.OperatorSet:
		if !IsPropField(r.Field) {
			return nil, &ValidationError{RuleID: r.ID, Field: r.Field, Reason: "SET only applies to props.* fields"}
		}
		if len(r.Operands) != 0 {
			return nil, &ValidationError{RuleID: r.ID, Field: r.Field, Reason: "SET takes no operands"}
		}
		key := PropKey(r.Field)
		return withNegate(r.Negate, func(p *domain.Player) bool {
			_, ok := p.Props[key]
			return ok
		}), nil

	case domain.OperatorEquals, domain.OperatorGT, domain.OperatorGTE, domain.OperatorLT, domain.OperatorLTE:
		if len(r.Operands) != 1 {
			return nil, &ValidationError{
				RuleID: r.ID,
				Field:  r.Field,
				Reason: fmt.Sprintf("%s takes exactly one operand, got %d", r.Operator, len(r.Operands)),
			}
		}
		cmp, ok := comparisons[opKey{r.Operator, r.CastType}]
		if !ok {
			return nil, &ValidationError{
				RuleID: r.ID,
				Field:  r.Field,
				Reason: fmt.Sprintf("operator %s does not support cast %s", r.Operator, r.CastType),
			}
		}
		o, err := parseOperand(r.Operands[0], r.CastType)
		if err != nil {
			return nil, &ValidationError{
				RuleID: r.ID,
				Field:  r.Field,
				Reason: fmt.Sprintf("operand %q is not a valid %s", r.Operands[0], r.CastType),
			}
		}
		field := r.Field
		return withNegate(r.Negate, func(p *domain.Player) bool {
			v, present := Resolve(p, field)
			if !present {
				return false
			}
			return cmp(v, o)
		}), nil
	}

	return nil, &ValidationError{RuleID: r.ID, Field: r.Field, Reason: fmt.Sprintf("unknown operator %q", r.Operator)}
}

// Validate checks a rule definition without keeping the predicate.
func Validate(r domain.Rule) error {
	_, err := Compile(r)
	return err
}

func withNegate(negate bool, base Predicate) Predicate {
	if !negate {
		return base
	}
	return func(p *domain.Player) bool {
		return !base(p)
	}
}

func parseOperand(raw string, cast domain.CastType) (operand, error) {
	o := operand{raw: raw}
	switch cast {
	case domain.CastChar:
		return o, nil
	case domain.CastDouble:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return o, err
		}
		o.num = n
		return o, nil
	case domain.CastDatetime:
		t, dayOnly, ok := parseDatetime(raw)
		if !ok {
			return o, fmt.Errorf("unparsable datetime %q", raw)
		}
		o.t = t
		o.dayOnly = dayOnly
		return o, nil
	}
	return o, fmt.Errorf("unknown cast %q", cast)
}

// datetimeLayouts are tried in order against operands and player
// values. The date-only layout marks the value as day-granular.
var datetimeLayouts = []struct {
	layout  string
	dayOnly bool
}{
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", true},
}

func parseDatetime(s string) (time.Time, bool, bool) {
	for _, l := range datetimeLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t, l.dayOnly, true
		}
	}
	return time.Time{}, false, false
}

func equalsChar(playerValue string, o operand) bool {
	return playerValue == o.raw
}

// numericCompare builds a comparison that parses the player-side value
// at evaluation time. Player data is uncontrolled, so an unparsable
// player value is a non-match rather than an error.
func numericCompare(fn func(playerValue, operand float64) bool) compareFn {
	return func(playerValue string, o operand) bool {
		n, err := strconv.ParseFloat(playerValue, 64)
		if err != nil {
			return false
		}
		return fn(n, o.num)
	}
}

func datetimeCompare(fn func(playerValue, operand time.Time) bool) compareFn {
	return func(playerValue string, o operand) bool {
		t, _, ok := parseDatetime(playerValue)
		if !ok {
			return false
		}
		if o.dayOnly {
			return fn(dayOf(t), dayOf(o.t))
		}
		return fn(t, o.t)
	}
}

func equalsDatetime(playerValue string, o operand) bool {
	t, _, ok := parseDatetime(playerValue)
	if !ok {
		return false
	}
	// A date-only operand compares by calendar day, ignoring the time
	// component on both sides.
	if o.dayOnly {
		return dayOf(t).Equal(dayOf(o.t))
	}
	return t.Equal(o.t)
}

// dayOf truncates to UTC midnight.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
