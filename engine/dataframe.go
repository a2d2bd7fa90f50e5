package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/core/format"
)

// ErrNotCollected is returned by data accessors of a frame that wasn't collected.
var ErrNotCollected = errors.New("dataframe is not collected")

// DataFrame is a lazily evaluated table. Stage methods return new frames,
// Collect materializes the frame into a single arrow record.
type DataFrame struct {
	builder *LogicalPlanBuilder
	// runner is nil when the process wide runner applies.
	runner *Runner
	logger core.Logger

	record arrow.Record
	result *core.Result
	mu     sync.RWMutex
}

func (df *DataFrame) derive(b *LogicalPlanBuilder) *DataFrame {
	return &DataFrame{builder: b, runner: df.runner, logger: df.logger}
}

// Schema returns the frame schema. Before collection, columns whose sample held
// only nulls are typed null; collection resolves them from the full data.
func (df *DataFrame) Schema() *arrow.Schema {
	df.mu.RLock()
	defer df.mu.RUnlock()
	if df.record != nil {
		return df.record.Schema()
	}
	return df.builder.Schema()
}

func (df *DataFrame) Builder() *LogicalPlanBuilder {
	return df.builder
}

func (df *DataFrame) Where(e Expr) (*DataFrame, error) {
	b, err := df.builder.Filter(e)
	if err != nil {
		return nil, err
	}
	return df.derive(b), nil
}

func (df *DataFrame) Limit(n int) (*DataFrame, error) {
	b, err := df.builder.Limit(n)
	if err != nil {
		return nil, err
	}
	return df.derive(b), nil
}

func (df *DataFrame) Select(columns ...string) (*DataFrame, error) {
	b, err := df.builder.Project(columns...)
	if err != nil {
		return nil, err
	}
	return df.derive(b), nil
}

// Explain returns the logical plan.
func (df *DataFrame) Explain() string {
	return df.builder.String()
}

func (df *DataFrame) IsCollected() bool {
	df.mu.RLock()
	defer df.mu.RUnlock()
	return df.record != nil
}

// Collect executes the plan. Collecting a collected frame is a no-op.
func (df *DataFrame) Collect(ctx context.Context) error {
	df.mu.Lock()
	defer df.mu.Unlock()

	if df.record != nil {
		return nil
	}

	runner := GetContext().Runner()
	if df.runner != nil {
		runner = *df.runner
	}
	cfg := GetContext().ExecutionConfig()

	plan, err := df.builder.ToPhysicalPlanScheduler(ctx, cfg)
	if err != nil {
		return err
	}
	df.logger.Debugf("collecting %d partitions with the %s runner", plan.NumPartitions(), runner)

	out, err := plan.execute(ctx, runner, cfg)
	if err != nil {
		return err
	}

	schema := resolveNullTypes(df.builder.Schema(), out.rows)
	rec, err := buildRecord(schema, out.rows)
	if err != nil {
		return err
	}

	df.record = rec
	df.result = core.NewResult(core.Header(fieldNames(schema)), recordRows(rec))
	return nil
}

// NumRows returns the number of rows, 0 until the frame is collected.
func (df *DataFrame) NumRows() int {
	df.mu.RLock()
	defer df.mu.RUnlock()
	if df.record == nil {
		return 0
	}
	return int(df.record.NumRows())
}

func (df *DataFrame) Header() core.Header {
	return core.Header(fieldNames(df.Schema()))
}

// Rows returns a range of rows, see core.Result.Rows for range semantics.
func (df *DataFrame) Rows(from, to int) ([]core.Row, error) {
	res, err := df.materialized()
	if err != nil {
		return nil, err
	}
	return res.Rows(from, to)
}

// ToMaps returns every row keyed by column name.
func (df *DataFrame) ToMaps() ([]map[string]any, error) {
	res, err := df.materialized()
	if err != nil {
		return nil, err
	}

	header := res.Header()
	rows := res.AllRows()
	out := make([]map[string]any, len(rows))
	for r, row := range rows {
		m := make(map[string]any, len(header))
		for i, h := range header {
			m[h] = row[i]
		}
		out[r] = m
	}
	return out, nil
}

// Record returns the arrow record backing a collected frame, nil otherwise.
// The record is owned by the frame.
func (df *DataFrame) Record() arrow.Record {
	df.mu.RLock()
	defer df.mu.RUnlock()
	return df.record
}

func (df *DataFrame) Format(formatter core.Formatter, from, to int) ([]byte, error) {
	res, err := df.materialized()
	if err != nil {
		return nil, err
	}
	return res.Format(formatter, from, to)
}

func (df *DataFrame) String() string {
	if !df.IsCollected() {
		return "DataFrame (not collected)\n" + df.Explain()
	}

	out, err := df.Format(format.NewTable(), 0, -1)
	if err != nil {
		return fmt.Sprintf("DataFrame (%s)", err)
	}
	return fmt.Sprintf("%s\n(%d rows)\n", strings.TrimRight(string(out), "\n"), df.NumRows())
}

// Release frees the arrow memory of a collected frame.
func (df *DataFrame) Release() {
	df.mu.Lock()
	defer df.mu.Unlock()
	if df.record != nil {
		df.record.Release()
		df.record = nil
		df.result = nil
	}
}

func (df *DataFrame) materialized() (*core.Result, error) {
	df.mu.RLock()
	defer df.mu.RUnlock()
	if df.result == nil {
		return nil, ErrNotCollected
	}
	return df.result, nil
}

// resolveNullTypes types columns that were all null in the inference sample
// from the full data.
func resolveNullTypes(schema *arrow.Schema, rows []core.Row) *arrow.Schema {
	fields := make([]arrow.Field, schema.NumFields())
	copy(fields, schema.Fields())
	changed := false
	for i, f := range fields {
		if f.Type.ID() != arrow.NULL {
			continue
		}
		dt := arrow.DataType(arrow.Null)
		for _, row := range rows {
			dt = unifyTypes(dt, inferType(row[i]))
		}
		if dt.ID() != arrow.NULL {
			fields[i].Type = dt
			changed = true
		}
	}
	if !changed {
		return schema
	}
	return arrow.NewSchema(fields, nil)
}

func buildRecord(schema *arrow.Schema, rows []core.Row) (arrow.Record, error) {
	rb := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer rb.Release()

	for _, row := range rows {
		if len(row) != schema.NumFields() {
			return nil, fmt.Errorf("row has %d values, expected %d", len(row), schema.NumFields())
		}
		for i, v := range row {
			if err := appendValue(rb.Field(i), v); err != nil {
				return nil, fmt.Errorf("column %q: %w", schema.Field(i).Name, err)
			}
		}
	}

	return rb.NewRecord(), nil
}

func recordRows(rec arrow.Record) []core.Row {
	rows := make([]core.Row, rec.NumRows())
	for r := range rows {
		row := make(core.Row, rec.NumCols())
		for c := range row {
			row[c] = valueAt(rec.Column(c), r)
		}
		rows[r] = row
	}
	return rows
}
