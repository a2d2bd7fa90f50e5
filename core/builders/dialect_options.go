package builders

import "fmt"

type DialectOption func(*Dialect)

func WithQuotes(open, close string) DialectOption {
	return func(d *Dialect) {
		d.quoteOpen = open
		d.quoteClose = close
	}
}

func WithLimitStyle(style LimitStyle) DialectOption {
	return func(d *Dialect) {
		d.limitStyle = style
	}
}

// WithoutAliasKeyword renders "FROM (...) subquery" for databases that
// reject AS in table aliases.
func WithoutAliasKeyword() DialectOption {
	return func(d *Dialect) {
		d.aliasAs = false
	}
}

func WithBoolLiterals(t, f string) DialectOption {
	return func(d *Dialect) {
		d.boolTrue = t
		d.boolFalse = f
	}
}

func WithTimeLayout(layout string) DialectOption {
	return func(d *Dialect) {
		d.timeLayout = layout
	}
}

// WithPercentileFunc sets the aggregate used for percentile partition bounds.
func WithPercentileFunc(fn func(column string, p float64) string) DialectOption {
	return func(d *Dialect) {
		d.percentile = fn
	}
}

// WithOrderedSetPercentile uses the standard "percentile_disc(p) WITHIN GROUP (ORDER BY col)".
func WithOrderedSetPercentile() DialectOption {
	return WithPercentileFunc(func(column string, p float64) string {
		return fmt.Sprintf("percentile_disc(%s) WITHIN GROUP (ORDER BY %s)", FormatPercentile(p), column)
	})
}
