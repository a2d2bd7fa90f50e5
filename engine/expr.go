package engine

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/sqlio/sqlio/core"
)

// Expr is a row level expression. It can be rendered into the SQL dialect of
// the source database or evaluated in memory against materialized rows.
type Expr interface {
	// SQL renders the expression in the given dialect.
	SQL(d core.Dialect) string
	// Eval evaluates the expression against a row. cols maps column names to
	// row positions. A nil result is SQL NULL.
	Eval(row core.Row, cols map[string]int) (any, error)
	// Columns returns the column names the expression references.
	Columns() []string
	String() string
}

type column struct {
	name string
}

// Col references a column by name.
func Col(name string) Expr {
	return column{name: name}
}

func (c column) SQL(d core.Dialect) string { return d.Quote(c.name) }
func (c column) Columns() []string         { return []string{c.name} }
func (c column) String() string            { return fmt.Sprintf("col(%s)", c.name) }

func (c column) Eval(row core.Row, cols map[string]int) (any, error) {
	i, ok := cols[c.name]
	if !ok || i >= len(row) {
		return nil, fmt.Errorf("column %q not found", c.name)
	}
	return row[i], nil
}

type literal struct {
	value any
}

// Lit wraps a go value.
func Lit(v any) Expr {
	return literal{value: v}
}

func (l literal) SQL(d core.Dialect) string                  { return d.Literal(l.value) }
func (l literal) Columns() []string                          { return nil }
func (l literal) Eval(core.Row, map[string]int) (any, error) { return l.value, nil }

func (l literal) String() string {
	if s, ok := l.value.(string); ok {
		return fmt.Sprintf("lit(%q)", s)
	}
	return fmt.Sprintf("lit(%v)", l.value)
}

type operator string

const (
	opEq    operator = "="
	opNotEq operator = "<>"
	opLt    operator = "<"
	opLtEq  operator = "<="
	opGt    operator = ">"
	opGtEq  operator = ">="
	opAnd   operator = "AND"
	opOr    operator = "OR"
)

type binary struct {
	op          operator
	left, right Expr
}

func Eq(l, r Expr) Expr    { return binary{op: opEq, left: l, right: r} }
func NotEq(l, r Expr) Expr { return binary{op: opNotEq, left: l, right: r} }
func Lt(l, r Expr) Expr    { return binary{op: opLt, left: l, right: r} }
func LtEq(l, r Expr) Expr  { return binary{op: opLtEq, left: l, right: r} }
func Gt(l, r Expr) Expr    { return binary{op: opGt, left: l, right: r} }
func GtEq(l, r Expr) Expr  { return binary{op: opGtEq, left: l, right: r} }

// And joins expressions with AND. It returns nil for no expressions.
func And(exprs ...Expr) Expr { return fold(opAnd, exprs) }

// Or joins expressions with OR. It returns nil for no expressions.
func Or(exprs ...Expr) Expr { return fold(opOr, exprs) }

func fold(op operator, exprs []Expr) Expr {
	var out Expr
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if out == nil {
			out = e
			continue
		}
		out = binary{op: op, left: out, right: e}
	}
	return out
}

func (b binary) SQL(d core.Dialect) string {
	return fmt.Sprintf("(%s %s %s)", b.left.SQL(d), b.op, b.right.SQL(d))
}

func (b binary) Columns() []string {
	return append(b.left.Columns(), b.right.Columns()...)
}

func (b binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.left, b.op, b.right)
}

func (b binary) Eval(row core.Row, cols map[string]int) (any, error) {
	l, err := b.left.Eval(row, cols)
	if err != nil {
		return nil, err
	}
	r, err := b.right.Eval(row, cols)
	if err != nil {
		return nil, err
	}

	switch b.op {
	case opAnd:
		return and3(l, r)
	case opOr:
		return or3(l, r)
	}

	if l == nil || r == nil {
		return nil, nil
	}
	cmp, err := compare(l, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b, err)
	}

	switch b.op {
	case opEq:
		return cmp == 0, nil
	case opNotEq:
		return cmp != 0, nil
	case opLt:
		return cmp < 0, nil
	case opLtEq:
		return cmp <= 0, nil
	case opGt:
		return cmp > 0, nil
	case opGtEq:
		return cmp >= 0, nil
	}
	return nil, fmt.Errorf("unknown operator %q", b.op)
}

type not struct {
	expr Expr
}

func Not(e Expr) Expr { return not{expr: e} }

func (n not) SQL(d core.Dialect) string { return fmt.Sprintf("(NOT %s)", n.expr.SQL(d)) }
func (n not) Columns() []string         { return n.expr.Columns() }
func (n not) String() string            { return fmt.Sprintf("not(%s)", n.expr) }

func (n not) Eval(row core.Row, cols map[string]int) (any, error) {
	v, err := n.expr.Eval(row, cols)
	if err != nil || v == nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("not: expected boolean, got %T", v)
	}
	return !b, nil
}

type isNull struct {
	expr Expr
}

func IsNull(e Expr) Expr { return isNull{expr: e} }

func (n isNull) SQL(d core.Dialect) string { return fmt.Sprintf("(%s IS NULL)", n.expr.SQL(d)) }
func (n isNull) Columns() []string         { return n.expr.Columns() }
func (n isNull) String() string            { return fmt.Sprintf("is_null(%s)", n.expr) }

func (n isNull) Eval(row core.Row, cols map[string]int) (any, error) {
	v, err := n.expr.Eval(row, cols)
	if err != nil {
		return nil, err
	}
	return v == nil, nil
}

func asBool(v any) (val bool, null bool, err error) {
	if v == nil {
		return false, true, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, false, fmt.Errorf("expected boolean, got %T", v)
	}
	return b, false, nil
}

// and3 implements three valued AND.
func and3(l, r any) (any, error) {
	lv, ln, err := asBool(l)
	if err != nil {
		return nil, err
	}
	rv, rn, err := asBool(r)
	if err != nil {
		return nil, err
	}
	if (!ln && !lv) || (!rn && !rv) {
		return false, nil
	}
	if ln || rn {
		return nil, nil
	}
	return true, nil
}

// or3 implements three valued OR.
func or3(l, r any) (any, error) {
	lv, ln, err := asBool(l)
	if err != nil {
		return nil, err
	}
	rv, rn, err := asBool(r)
	if err != nil {
		return nil, err
	}
	if (!ln && lv) || (!rn && rv) {
		return true, nil
	}
	if ln || rn {
		return nil, nil
	}
	return false, nil
}

func compare(l, r any) (int, error) {
	if lf, ok := toNumber(l); ok {
		if rf, ok := toNumber(r); ok {
			return cmpFloat(lf, rf), nil
		}
	}

	switch lv := l.(type) {
	case string:
		if rv, ok := r.(string); ok {
			return strings.Compare(lv, rv), nil
		}
	case []byte:
		if rv, ok := r.([]byte); ok {
			return bytes.Compare(lv, rv), nil
		}
	case bool:
		if rv, ok := r.(bool); ok {
			switch {
			case lv == rv:
				return 0, nil
			case !lv:
				return -1, nil
			default:
				return 1, nil
			}
		}
	case time.Time:
		if rv, ok := toTime(r); ok {
			return lv.Compare(rv), nil
		}
	}

	return 0, fmt.Errorf("cannot compare %T with %T", l, r)
}

// toNumber is toFloat64 without string parsing: "10" must not equal 10.
func toNumber(v any) (float64, bool) {
	switch v.(type) {
	case string, []byte:
		return 0, false
	}
	return toFloat64(v)
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
