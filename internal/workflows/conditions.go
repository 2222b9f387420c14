// Package workflows holds the typed condition clauses that automation
// conditions are parsed into before evaluation.
package workflows

import (
	"encoding/json"
	"fmt"
)

// Op is a comparison operator.
type Op string

const (
	// OpEquals matches when the context value equals the clause value.
	OpEquals Op = "eq"
	// OpPresent matches when the context key exists, whatever its value.
	// Persisted as a null value in the flat conditions object.
	OpPresent Op = "present"
)

// Clause is one comparison against the transition context.
type Clause struct {
	Field string
	Op    Op
	Value any
}

// ParseConditions turns the persisted flat key/value object into clauses.
// The wire shape stays a plain JSON object so it round-trips exactly; this is
// only the evaluation-side view of it. A nil/empty object yields no clauses,
// which matches unconditionally.
func ParseConditions(raw []byte) ([]Clause, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parse conditions: %w", err)
	}
	clauses := make([]Clause, 0, len(obj))
	for k, v := range obj {
		if v == nil {
			clauses = append(clauses, Clause{Field: k, Op: OpPresent})
			continue
		}
		clauses = append(clauses, Clause{Field: k, Op: OpEquals, Value: v})
	}
	return clauses, nil
}

// Matches reports whether every clause holds against the context. All clauses
// must match; no clauses means an unconditional match.
func Matches(clauses []Clause, ctx map[string]any) bool {
	for _, c := range clauses {
		v, ok := ctx[c.Field]
		if !ok {
			return false
		}
		switch c.Op {
		case OpPresent:
			// key exists, done
		case OpEquals:
			if !looselyEqual(c.Value, v) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// looselyEqual compares values the way JSON sees them: every numeric type
// collapses to float64 so a clause decoded from JSON (float64) still matches
// a context built from Go ints.
func looselyEqual(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
