package filter

import "fmt"

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 64

// Expression is a structured filter with must/should/must_not boolean semantics.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// All is an expression where every condition must hold.
func All(conds ...Condition) Expression {
	return Expression{must: conds}
}

// Any is an expression where at least one condition must hold.
func Any(conds ...Condition) Expression {
	return Expression{should: conds}
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

// And returns an expression holding the conditions of both operands.
// Should groups cannot be merged without changing meaning, so only one
// operand may carry them. Group limits are not re-checked.
func (e Expression) And(other Expression) (Expression, error) {
	if len(e.should) > 0 && len(other.should) > 0 {
		return Expression{}, fmt.Errorf("cannot combine two should groups")
	}
	should := e.should
	if len(should) == 0 {
		should = other.should
	}
	return Expression{
		must:    append(append([]Condition(nil), e.must...), other.must...),
		should:  append([]Condition(nil), should...),
		mustNot: append(append([]Condition(nil), e.mustNot...), other.mustNot...),
	}, nil
}

// Matches evaluates the expression against one entry of tag and numeric values.
// Used for nested entries, where all conditions must hold inside the same entry.
func (e Expression) Matches(tags map[string][]string, numerics map[string]float64) bool {
	for _, c := range e.must {
		if !c.matches(tags, numerics) {
			return false
		}
	}
	if len(e.should) > 0 {
		matched := false
		for _, c := range e.should {
			if c.matches(tags, numerics) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, c := range e.mustNot {
		if c.matches(tags, numerics) {
			return false
		}
	}
	return true
}

// Condition is a single filter clause: either a tag match or a numeric range.
type Condition struct {
	key       string
	match     string
	rangeExpr *Range
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Between creates an inclusive numeric range condition [lo, hi].
func Between(key string, lo, hi float64) (Condition, error) {
	if lo > hi {
		return Condition{}, fmt.Errorf("empty range for key %q: %g > %g", key, lo, hi)
	}
	r, err := NewRangeFilter(nil, &lo, nil, &hi)
	if err != nil {
		return Condition{}, err
	}
	return NewRange(key, r)
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// String renders the condition for debug logs.
func (c Condition) String() string {
	if c.IsRange() {
		return c.key + " in " + c.rangeExpr.String()
	}
	return fmt.Sprintf("%s = %q", c.key, c.match)
}

func (c Condition) matches(tags map[string][]string, numerics map[string]float64) bool {
	if c.IsRange() {
		v, ok := numerics[c.key]
		return ok && c.rangeExpr.Contains(v)
	}
	for _, t := range tags[c.key] {
		if t == c.match {
			return true
		}
	}
	return false
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Contains reports whether v lies within every boundary of the range.
func (r Range) Contains(v float64) bool {
	switch {
	case r.gt != nil && v <= *r.gt:
		return false
	case r.gte != nil && v < *r.gte:
		return false
	case r.lt != nil && v >= *r.lt:
		return false
	case r.lte != nil && v > *r.lte:
		return false
	}
	return true
}

func (r Range) String() string {
	lo, hi := "(-inf", "+inf)"
	if r.gt != nil {
		lo = fmt.Sprintf("(%g", *r.gt)
	} else if r.gte != nil {
		lo = fmt.Sprintf("[%g", *r.gte)
	}
	if r.lt != nil {
		hi = fmt.Sprintf("%g)", *r.lt)
	} else if r.lte != nil {
		hi = fmt.Sprintf("%g]", *r.lte)
	}
	return lo + ", " + hi
}
