package engine

import (
	"fmt"

	"github.com/apache/arrow/go/v15/arrow"

	"github.com/sqlio/sqlio/core"
)

// PartitionBoundStrategy selects how partition bounds are computed.
type PartitionBoundStrategy string

const (
	PartitionBoundMinMax     PartitionBoundStrategy = "min-max"
	PartitionBoundPercentile PartitionBoundStrategy = "percentile"
)

// ParsePartitionBoundStrategy parses "min-max" or "percentile".
func ParsePartitionBoundStrategy(s string) (PartitionBoundStrategy, error) {
	switch PartitionBoundStrategy(s) {
	case PartitionBoundMinMax, PartitionBoundPercentile:
		return PartitionBoundStrategy(s), nil
	}
	return "", fmt.Errorf("invalid partition bound strategy %q, expected %q or %q", s, PartitionBoundMinMax, PartitionBoundPercentile)
}

type readConfig struct {
	partitionCol      string
	numPartitions     int
	numPartitionsSet  bool
	strategy          PartitionBoundStrategy
	disablePushdowns  bool
	inferSchema       bool
	inferSchemaLength int
	schema            map[string]arrow.DataType
	runner            *Runner
	logger            core.Logger
}

// ReadOption configures ReadSQL.
type ReadOption func(*readConfig)

// WithPartitionCol sets the column used to split the query into partitions.
// The name is inserted into the generated SQL verbatim so it may reference any
// expression the source database accepts.
func WithPartitionCol(col string) ReadOption {
	return func(c *readConfig) {
		c.partitionCol = col
	}
}

// WithNumPartitions sets the partition count. It requires a partition column.
func WithNumPartitions(n int) ReadOption {
	return func(c *readConfig) {
		c.numPartitions = n
		c.numPartitionsSet = true
	}
}

func WithPartitionBoundStrategy(s PartitionBoundStrategy) ReadOption {
	return func(c *readConfig) {
		c.strategy = s
	}
}

// WithDisablePushdownsToSQL keeps filters, limits and projections in memory
// instead of rewriting them into the partition queries.
func WithDisablePushdownsToSQL(disable bool) ReadOption {
	return func(c *readConfig) {
		c.disablePushdowns = disable
	}
}

// WithInferSchema toggles sampling based schema inference. When disabled, the
// driver reported column types are used.
func WithInferSchema(infer bool) ReadOption {
	return func(c *readConfig) {
		c.inferSchema = infer
	}
}

func WithInferSchemaLength(n int) ReadOption {
	return func(c *readConfig) {
		c.inferSchemaLength = n
	}
}

// WithSchema overrides the inferred types of the named columns.
func WithSchema(schema map[string]arrow.DataType) ReadOption {
	return func(c *readConfig) {
		c.schema = schema
	}
}

// WithRunner pins the runner of the resulting frame, ignoring the process
// wide default.
func WithRunner(r Runner) ReadOption {
	return func(c *readConfig) {
		c.runner = &r
	}
}

func WithLogger(l core.Logger) ReadOption {
	return func(c *readConfig) {
		c.logger = l
	}
}

func (c *readConfig) validate() error {
	if c.numPartitionsSet && c.partitionCol == "" {
		return fmt.Errorf("num_partitions requires partition_col to be set")
	}
	if c.numPartitionsSet && c.numPartitions < 1 {
		return fmt.Errorf("num_partitions must be at least 1, got %d", c.numPartitions)
	}
	if _, err := ParsePartitionBoundStrategy(string(c.strategy)); err != nil {
		return err
	}
	if c.inferSchemaLength < 1 {
		return fmt.Errorf("infer_schema_length must be at least 1, got %d", c.inferSchemaLength)
	}
	return nil
}
