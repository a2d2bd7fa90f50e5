package engine

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v15/arrow"

	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/logger"
)

// ReadSQL creates a frame reading the result of a SQL query.
//
// The schema is resolved eagerly over a single connection. The data itself is
// read on Collect, with every partition opening its own connection from conn.
func ReadSQL(ctx context.Context, sql string, conn core.ConnFactory, opts ...ReadOption) (*DataFrame, error) {
	execCfg := GetContext().ExecutionConfig()

	cfg := &readConfig{
		strategy:          PartitionBoundMinMax,
		inferSchema:       true,
		inferSchemaLength: execCfg.DefaultInferSchemaLength,
		logger:            logger.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, core.ErrNoConnection
	}

	driver, err := conn(ctx)
	if err != nil {
		return nil, err
	}
	defer driver.Close()

	schema, estRowBytes, renamed, err := readSchema(ctx, driver, sql, cfg)
	if err != nil {
		return nil, err
	}

	op := &SQLScanOperator{
		sql:           sql,
		conn:          conn,
		dialect:       driver.Dialect(),
		schema:        schema,
		estRowBytes:   estRowBytes,
		renamed:       renamed,
		partitionCol:  cfg.partitionCol,
		numPartitions: cfg.numPartitions,
		strategy:      cfg.strategy,
		logger:        cfg.logger,
	}
	cfg.logger.Debugf("read_sql planned %s with schema %s", op, schema)

	builder := &LogicalPlanBuilder{
		source:           op,
		schema:           schema,
		disablePushdowns: cfg.disablePushdowns,
	}

	return &DataFrame{
		builder: builder,
		runner:  cfg.runner,
		logger:  cfg.logger,
	}, nil
}

// readSchema resolves the frame schema, the estimated row size and the frame
// columns the query can't be addressed by.
func readSchema(ctx context.Context, driver core.Driver, sql string, cfg *readConfig) (*arrow.Schema, float64, map[string]struct{}, error) {
	limit := cfg.inferSchemaLength
	if !cfg.inferSchema {
		limit = 0
	}

	stream, err := driver.Query(ctx, driver.Dialect().Select(sql, nil, "", limit))
	if err != nil {
		return nil, 0, nil, err
	}
	sample := core.NewResult(nil, nil)
	if err := sample.SetIter(stream); err != nil {
		return nil, 0, nil, err
	}

	names := uniqueNames(sample.Header())
	renamed := ambiguousNames(sample.Header(), names)

	var types []arrow.DataType
	if cfg.inferSchema {
		types = inferSchema(names, sample.AllRows())
	} else {
		columnTypes := sample.Meta().ColumnTypes
		types = make([]arrow.DataType, len(names))
		for i := range types {
			var name string
			if i < len(columnTypes) {
				name = columnTypes[i].DatabaseType
			}
			types[i] = databaseType(name)
		}
	}

	for name, dt := range cfg.schema {
		if dt == nil || !supportedType(dt) {
			return nil, 0, nil, fmt.Errorf("unsupported type %v for column %q", dt, name)
		}
		found := false
		for i, n := range names {
			if n == name {
				types[i] = dt
				found = true
			}
		}
		if !found {
			return nil, 0, nil, fmt.Errorf("schema override references unknown column %q", name)
		}
	}

	fields := make([]arrow.Field, len(names))
	for i, n := range names {
		fields[i] = arrow.Field{Name: n, Type: types[i], Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	estRowBytes := estimateRowBytes(sample.AllRows())
	if estRowBytes == 0 {
		estRowBytes = schemaRowBytes(schema)
	}

	return schema, estRowBytes, renamed, nil
}

// schemaRowBytes guesses a row size from the column types alone.
func schemaRowBytes(schema *arrow.Schema) float64 {
	var total float64
	for _, f := range schema.Fields() {
		switch f.Type.ID() {
		case arrow.NULL:
		case arrow.BOOL:
			total++
		case arrow.INT32, arrow.FLOAT32, arrow.DATE32:
			total += 4
		case arrow.STRING, arrow.BINARY:
			total += 32
		default:
			total += 8
		}
	}
	return total
}
