package builders

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sqlio/sqlio/core"
)

// subqueryAlias is the alias of the user query inside generated statements.
const subqueryAlias = "subquery"

// LimitStyle selects how a row limit is rendered.
type LimitStyle int

const (
	// LimitClause renders "... LIMIT n".
	LimitClause LimitStyle = iota
	// LimitTop renders "SELECT TOP n ...".
	LimitTop
	// LimitFetchFirst renders "... FETCH FIRST n ROWS ONLY".
	LimitFetchFirst
)

var _ core.Dialect = (*Dialect)(nil)

// Dialect is a configurable SQL renderer shared by all adapters.
type Dialect struct {
	name       string
	quoteOpen  string
	quoteClose string
	limitStyle LimitStyle
	aliasAs    bool
	boolTrue   string
	boolFalse  string
	timeLayout string
	percentile func(column string, p float64) string
}

func NewDialect(name string, opts ...DialectOption) *Dialect {
	d := &Dialect{
		name:       name,
		quoteOpen:  `"`,
		quoteClose: `"`,
		limitStyle: LimitClause,
		aliasAs:    true,
		boolTrue:   "TRUE",
		boolFalse:  "FALSE",
		timeLayout: "2006-01-02 15:04:05.999999",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dialect) Name() string {
	return d.name
}

func (d *Dialect) Quote(ident string) string {
	escaped := strings.ReplaceAll(ident, d.quoteClose, d.quoteClose+d.quoteClose)
	return d.quoteOpen + escaped + d.quoteClose
}

func (d *Dialect) Literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return d.boolTrue
		}
		return d.boolFalse
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return quoteString(v)
	case []byte:
		return quoteString(string(v))
	case time.Time:
		return quoteString(v.Format(d.timeLayout))
	case fmt.Stringer:
		return quoteString(v.String())
	default:
		return quoteString(fmt.Sprint(v))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// trimQuery removes trailing semicolons which are invalid inside a subquery.
func trimQuery(query string) string {
	return strings.TrimRight(strings.TrimSpace(query), "; \t\n")
}

func (d *Dialect) from(query string) string {
	if d.aliasAs {
		return fmt.Sprintf("FROM (%s) AS %s", trimQuery(query), subqueryAlias)
	}
	return fmt.Sprintf("FROM (%s) %s", trimQuery(query), subqueryAlias)
}

func (d *Dialect) Select(query string, exprs []string, predicate string, limit int) string {
	projection := "*"
	if len(exprs) > 0 {
		projection = strings.Join(exprs, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if limit >= 0 && d.limitStyle == LimitTop {
		fmt.Fprintf(&sb, "TOP %d ", limit)
	}
	sb.WriteString(projection)
	sb.WriteString(" ")
	sb.WriteString(d.from(query))

	if predicate != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(predicate)
	}

	if limit >= 0 {
		switch d.limitStyle {
		case LimitClause:
			fmt.Fprintf(&sb, " LIMIT %d", limit)
		case LimitFetchFirst:
			fmt.Fprintf(&sb, " FETCH FIRST %d ROWS ONLY", limit)
		}
	}

	return sb.String()
}

func (d *Dialect) Percentiles(query string, column string, percentiles []float64) (string, bool) {
	if d.percentile == nil || len(percentiles) < 1 {
		return "", false
	}

	exprs := make([]string, len(percentiles))
	for i, p := range percentiles {
		exprs[i] = fmt.Sprintf("%s AS %s", d.percentile(column, p), d.Quote(fmt.Sprintf("p%d", i)))
	}

	return fmt.Sprintf("SELECT %s %s", strings.Join(exprs, ", "), d.from(query)), true
}

// FormatPercentile renders a percentile as a SQL numeric literal.
func FormatPercentile(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
