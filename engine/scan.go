package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/apache/arrow/go/v15/arrow"

	"github.com/sqlio/sqlio/core"
)

// ErrNonNumericPartition is returned when partition bounds are requested for
// a column holding non numeric values.
var ErrNonNumericPartition = errors.New("partition column must be numeric")

// Pushdowns are the frame stages folded into the partition queries.
type Pushdowns struct {
	// Filters is nil when no filter is pushed.
	Filters Expr
	// Limit is negative when no limit is pushed.
	Limit int
	// Columns is nil when all columns are read.
	Columns []string
}

func noPushdowns() Pushdowns {
	return Pushdowns{Limit: -1}
}

// PartitionRange is the value range of a partitioned scan task.
// Bounds are int64 for integer columns and float64 otherwise.
type PartitionRange struct {
	Column         string `json:"column"`
	Lower          any    `json:"lower"`
	Upper          any    `json:"upper"`
	UpperInclusive bool   `json:"upper_inclusive"`
	IncludesNull   bool   `json:"includes_null"`
}

func (r *PartitionRange) predicate(d core.Dialect) string {
	upper := "<"
	if r.UpperInclusive {
		upper = "<="
	}
	p := fmt.Sprintf("%s >= %s AND %s %s %s", r.Column, d.Literal(r.Lower), r.Column, upper, d.Literal(r.Upper))
	if r.IncludesNull {
		p = fmt.Sprintf("%s OR %s IS NULL", p, r.Column)
	}
	return p
}

// ScanTask is a single partition read: one query against one connection.
type ScanTask struct {
	SQL       string
	Dialect   string
	Schema    *arrow.Schema
	Pushdowns Pushdowns
	// Range is nil for unpartitioned reads.
	Range *PartitionRange
}

// SQLScanOperator plans reads of a SQL query.
type SQLScanOperator struct {
	sql          string
	conn         core.ConnFactory
	dialect      core.Dialect
	schema       *arrow.Schema
	estRowBytes  float64
	partitionCol string
	// numPartitions is 0 when the count is derived from the table size.
	numPartitions int
	strategy      PartitionBoundStrategy
	logger        core.Logger
	// renamed holds frame columns the source query can't be addressed by.
	renamed map[string]struct{}
}

func (o *SQLScanOperator) Schema() *arrow.Schema {
	return o.schema
}

func (o *SQLScanOperator) Dialect() core.Dialect {
	return o.dialect
}

// addressable reports whether every column can be referenced in a query over
// the source.
func (o *SQLScanOperator) addressable(columns []string) bool {
	for _, c := range columns {
		if _, ok := o.renamed[c]; ok {
			return false
		}
	}
	return true
}

func (o *SQLScanOperator) String() string {
	s := fmt.Sprintf("SQLScan[dialect=%s, sql=%q", o.dialect.Name(), o.sql)
	if o.partitionCol != "" {
		s += fmt.Sprintf(", partition_col=%s, strategy=%s", o.partitionCol, o.strategy)
		if o.numPartitions > 0 {
			s += fmt.Sprintf(", num_partitions=%d", o.numPartitions)
		}
	}
	return s + "]"
}

// ToScanTasks computes the partition queries. It queries the source database
// for the row count and the partition bounds when needed.
func (o *SQLScanOperator) ToScanTasks(ctx context.Context, cfg ExecutionConfig, pd Pushdowns) ([]*ScanTask, error) {
	if o.partitionCol == "" {
		return []*ScanTask{o.task(pd, nil)}, nil
	}

	driver, err := o.conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("o.conn: %w", err)
	}
	defer driver.Close()

	k := o.numPartitions
	if k == 0 {
		k, err = o.partitionCount(ctx, driver, cfg)
		if err != nil {
			return nil, err
		}
	}
	if k <= 1 {
		o.logger.Debugf("reading %q as a single partition", o.sql)
		return []*ScanTask{o.task(pd, nil)}, nil
	}

	bounds, err := o.bounds(ctx, driver, k)
	if err != nil {
		return nil, err
	}
	if bounds == nil {
		o.logger.Warnf("partition column %s has no non null values, reading as a single partition", o.partitionCol)
		return []*ScanTask{o.task(pd, nil)}, nil
	}

	tasks := make([]*ScanTask, k)
	for i := 0; i < k; i++ {
		tasks[i] = o.task(pd, &PartitionRange{
			Column:         o.partitionCol,
			Lower:          bounds[i],
			Upper:          bounds[i+1],
			UpperInclusive: i == k-1,
			IncludesNull:   i == 0,
		})
	}
	o.logger.Debugf("split %q into %d partitions on %s", o.sql, k, o.partitionCol)
	return tasks, nil
}

func (o *SQLScanOperator) task(pd Pushdowns, r *PartitionRange) *ScanTask {
	var predicates []string
	if r != nil {
		predicates = append(predicates, r.predicate(o.dialect))
	}
	if pd.Filters != nil {
		predicates = append(predicates, pd.Filters.SQL(o.dialect))
	}

	predicate := ""
	switch len(predicates) {
	case 1:
		predicate = predicates[0]
	case 2:
		predicate = fmt.Sprintf("(%s) AND %s", predicates[0], predicates[1])
	}

	var exprs []string
	for _, c := range pd.Columns {
		exprs = append(exprs, o.dialect.Quote(c))
	}

	schema := o.schema
	if pd.Columns != nil {
		schema = project(o.schema, pd.Columns)
	}

	sql := o.sql
	if predicate != "" || exprs != nil || pd.Limit >= 0 {
		sql = o.dialect.Select(o.sql, exprs, predicate, pd.Limit)
	}

	return &ScanTask{
		SQL:       sql,
		Dialect:   o.dialect.Name(),
		Schema:    schema,
		Pushdowns: pd,
		Range:     r,
	}
}

func (o *SQLScanOperator) partitionCount(ctx context.Context, driver core.Driver, cfg ExecutionConfig) (int, error) {
	row, err := queryOne(ctx, driver, o.dialect.Select(o.sql, []string{"COUNT(*)"}, "", -1))
	if err != nil {
		return 0, fmt.Errorf("failed counting rows: %w", err)
	}
	count, ok := toFloat64(row[0])
	if !ok {
		return 0, fmt.Errorf("unexpected row count %v", row[0])
	}

	size := count * o.estRowBytes
	k := int(math.Ceil(size / float64(cfg.ReadSQLPartitionSizeBytes)))
	o.logger.Debugf("estimated %.0f rows, %.0f bytes, %d partitions", count, size, k)
	return max(k, 1), nil
}

// bounds returns k+1 partition bounds, or nil if the column is all null.
func (o *SQLScanOperator) bounds(ctx context.Context, driver core.Driver, k int) ([]any, error) {
	if o.strategy == PartitionBoundPercentile {
		bounds, err := o.percentileBounds(ctx, driver, k)
		if err == nil || errors.Is(err, ErrNonNumericPartition) {
			return bounds, err
		}
		o.logger.Warnf("failed computing percentile bounds, falling back to min-max: %s", err)
	}
	return o.minMaxBounds(ctx, driver, k)
}

func (o *SQLScanOperator) minMaxBounds(ctx context.Context, driver core.Driver, k int) ([]any, error) {
	query := o.dialect.Select(o.sql, []string{
		fmt.Sprintf("MIN(%s)", o.partitionCol),
		fmt.Sprintf("MAX(%s)", o.partitionCol),
	}, "", -1)

	row, err := queryOne(ctx, driver, query)
	if err != nil {
		return nil, fmt.Errorf("failed computing partition bounds: %w", err)
	}
	if len(row) < 2 {
		return nil, fmt.Errorf("failed computing partition bounds: expected 2 values, got %d", len(row))
	}
	if row[0] == nil || row[1] == nil {
		return nil, nil
	}

	// float64 can't hold every int64, integer columns are split exactly
	ilo, loInt := exactInt(row[0])
	ihi, hiInt := exactInt(row[1])
	if loInt && hiInt && ilo <= ihi {
		return intBounds(ilo, ihi, k), nil
	}

	lo, ok := toFloat64(row[0])
	if !ok {
		return nil, fmt.Errorf("%s: %w, got %T", o.partitionCol, ErrNonNumericPartition, row[0])
	}
	hi, ok := toFloat64(row[1])
	if !ok {
		return nil, fmt.Errorf("%s: %w, got %T", o.partitionCol, ErrNonNumericPartition, row[1])
	}

	return floatBounds(lo, hi, k), nil
}

func floatBounds(lo, hi float64, k int) []any {
	bounds := make([]any, k+1)
	step := (hi - lo) / float64(k)
	for i := 0; i < k; i++ {
		bounds[i] = lo + float64(i)*step
	}
	bounds[k] = hi
	return bounds
}

// intBounds splits [lo, hi] into k ranges without overflowing on the span
// of the full int64 range.
func intBounds(lo, hi int64, k int) []any {
	span := uint64(hi) - uint64(lo)
	step, rem := span/uint64(k), span%uint64(k)

	bounds := make([]any, k+1)
	for i := 0; i < k; i++ {
		off := uint64(i)*step + uint64(i)*rem/uint64(k)
		bounds[i] = int64(uint64(lo) + off)
	}
	bounds[k] = hi
	return bounds
}

func (o *SQLScanOperator) percentileBounds(ctx context.Context, driver core.Driver, k int) ([]any, error) {
	percentiles := make([]float64, k+1)
	for i := range percentiles {
		percentiles[i] = float64(i) / float64(k)
	}

	query, ok := o.dialect.Percentiles(o.sql, o.partitionCol, percentiles)
	if !ok {
		return nil, fmt.Errorf("dialect %s does not support percentiles", o.dialect.Name())
	}

	row, err := queryOne(ctx, driver, query)
	if err != nil {
		return nil, err
	}
	if len(row) != k+1 {
		return nil, fmt.Errorf("expected %d percentiles, got %d", k+1, len(row))
	}

	ints := make([]any, k+1)
	floats := make([]any, k+1)
	allInts := true
	for i, v := range row {
		if v == nil {
			return nil, nil
		}
		f, ok := toFloat64(v)
		if !ok {
			return nil, fmt.Errorf("%s: %w, got %T", o.partitionCol, ErrNonNumericPartition, v)
		}
		floats[i] = f
		if n, ok := exactInt(v); ok {
			ints[i] = n
		} else {
			allInts = false
		}
	}
	if allInts {
		return ints, nil
	}
	return floats, nil
}

// queryOne runs a query and returns its first row.
func queryOne(ctx context.Context, driver core.Driver, query string) (core.Row, error) {
	stream, err := driver.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if !stream.HasNext() {
		return nil, fmt.Errorf("query returned no rows: %s", query)
	}
	row, err := stream.Next()
	if err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("query returned no columns: %s", query)
	}
	return row, nil
}

func project(schema *arrow.Schema, columns []string) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(columns))
	for _, c := range columns {
		if idx := schema.FieldIndices(c); len(idx) > 0 {
			fields = append(fields, schema.Field(idx[0]))
		}
	}
	return arrow.NewSchema(fields, nil)
}

func fieldNames(schema *arrow.Schema) []string {
	names := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}
	return names
}

func hasField(schema *arrow.Schema, name string) bool {
	return len(schema.FieldIndices(name)) > 0
}
