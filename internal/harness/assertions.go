package harness

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/trackview/internal/ir"
	"github.com/roach88/trackview/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []ir.Effect // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, eff := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s %s\n", eff.Seq, ir.FormatScalar(ir.Seconds(eff.TimeUS)), eff.Kind, eff.Target, eff.Value)
		}
	}

	return buf.String()
}

// matches reports whether e satisfies m.
func (m EffectMatch) matches(e ir.Effect) bool {
	if string(e.Kind) != m.Kind {
		return false
	}
	if m.Target != "" && e.Target != m.Target {
		return false
	}
	if m.Value != "" && e.Value != m.Value {
		return false
	}
	if m.At != nil && e.TimeUS != ir.Micros(*m.At) {
		return false
	}
	return true
}

func (m EffectMatch) String() string {
	s := m.Kind
	if m.Target != "" {
		s += " " + m.Target
	}
	if m.Value != "" {
		s += " = " + m.Value
	}
	if m.At != nil {
		s += " @" + ir.FormatScalar(*m.At)
	}
	return s
}

// assertTraceContains checks that some effect matches the assertion.
func assertTraceContains(trace []ir.Effect, assertion Assertion) error {
	for _, e := range trace {
		if assertion.matches(e) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: assertion.EffectMatch.String(),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the matches appear in the given order.
// Effects don't need to be consecutive; each match is searched for after
// the previous one's position.
func assertTraceOrder(trace []ir.Effect, assertion Assertion) error {
	pos := 0
	for i, m := range assertion.Effects {
		found := -1
		for j := pos; j < len(trace); j++ {
			if m.matches(trace[j]) {
				found = j
				break
			}
		}
		if found < 0 {
			actual := fmt.Sprintf("missing effect: %s", m)
			if i > 0 {
				actual = fmt.Sprintf("no %s after %s (pos %d)", m, assertion.Effects[i-1], pos)
			}
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("effects in order: %v", assertion.Effects),
				Actual:   actual,
				Trace:    trace,
			}
		}
		pos = found + 1
	}
	return nil
}

// assertTraceCount checks that exactly Count effects match.
func assertTraceCount(trace []ir.Effect, assertion Assertion) error {
	count := 0
	for _, e := range trace {
		if assertion.matches(e) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.EffectMatch),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalCamera(result *Result, assertion Assertion) error {
	if result.Camera != assertion.Camera {
		return &AssertionError{
			Type:     AssertFinalCamera,
			Expected: fmt.Sprintf("camera %q", assertion.Camera),
			Actual:   fmt.Sprintf("camera %q", result.Camera),
		}
	}
	return nil
}

func assertFinalTime(result *Result, assertion Assertion) error {
	if math.Abs(float64(result.FinalTime-*assertion.Time)) > 1e-4 {
		return &AssertionError{
			Type:     AssertFinalTime,
			Expected: "time " + ir.FormatScalar(*assertion.Time),
			Actual:   "time " + ir.FormatScalar(result.FinalTime),
		}
	}
	return nil
}

// assertFinalState checks that exactly one row of a store table matches
// Where and carries the Expect values.
//
// Security: Table and column names are validated against a whitelist pattern
// to prevent SQL injection via identifier interpolation.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.Query(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	row := make(map[string]any, len(columns))
	for i, col := range columns {
		row[col] = values[i]
	}

	// Subset semantics: only fields in Expect are checked. Keys are
	// sorted so the first failure is deterministic.
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		expected := assertion.Expect[key]
		actual, ok := row[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}
		if !stateValuesEqual(expected, actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expected, expected),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actual, actual),
			}
		}
	}
	return nil
}

// buildWhereClause constructs a parameterized WHERE clause. Keys are sorted
// for determinism.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, key+" = ?")
		args = append(args, where[key])
	}
	return strings.Join(clauses, " AND "), args, nil
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// stateValuesEqual compares a YAML value with a value scanned from SQLite.
// SQLite returns int64 for integers, float64 for reals and stores
// booleans as 0/1.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		got, ok := actual.(string)
		return ok && exp == got
	case int:
		got, ok := actual.(int64)
		return ok && int64(exp) == got
	case int64:
		got, ok := actual.(int64)
		return ok && exp == got
	case float64:
		switch got := actual.(type) {
		case float64:
			return exp == got
		case int64:
			return exp == float64(got)
		}
		return false
	case bool:
		got, ok := actual.(int64)
		return ok && exp == (got != 0)
	}
	return false
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalCamera:
			err = assertFinalCamera(result, assertion)
		case AssertFinalTime:
			if assertion.Time == nil {
				err = fmt.Errorf("assertion[%d]: final_time requires time", i)
			} else {
				err = assertFinalTime(result, assertion)
			}
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
