package sqlclient

import (
	"github.com/apache/arrow/go/v15/arrow"

	"github.com/sqlio/sqlio/adapters"
	"github.com/sqlio/sqlio/core"
	"github.com/sqlio/sqlio/engine"
)

type clientConfig struct {
	useNativeRunner bool
	connOpts        []adapters.ConnOption
	logger          core.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

// WithNativeRunner selects the native runner (the default). When disabled,
// queries run with the engine's process wide runner.
func WithNativeRunner(native bool) Option {
	return func(c *clientConfig) {
		c.useNativeRunner = native
	}
}

// WithConnOptions forwards driver options to every connection of the client.
func WithConnOptions(opts ...adapters.ConnOption) Option {
	return func(c *clientConfig) {
		c.connOpts = append(c.connOpts, opts...)
	}
}

func WithLogger(l core.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

type readConfig struct {
	strategy          engine.PartitionBoundStrategy
	disablePushdowns  bool
	inferSchema       bool
	inferSchemaLength int
	schema            map[string]arrow.DataType
}

type queryConfig struct {
	readConfig
	partitionCol  string
	numPartitions *int
}

// QueryOption configures ReturnQueries. Every ReadOption is a QueryOption.
type QueryOption interface {
	applyQuery(*queryConfig)
}

// ReadOption configures both ReturnDF and ReturnQueries.
type ReadOption func(*readConfig)

func (o ReadOption) applyQuery(c *queryConfig) {
	o(&c.readConfig)
}

type partitionOption func(*queryConfig)

func (o partitionOption) applyQuery(c *queryConfig) {
	o(c)
}

// WithPartitionCol sets the column the query is split on.
func WithPartitionCol(col string) QueryOption {
	return partitionOption(func(c *queryConfig) {
		c.partitionCol = col
	})
}

// WithNumPartitions sets how many sub-queries to plan.
func WithNumPartitions(n int) QueryOption {
	return partitionOption(func(c *queryConfig) {
		c.numPartitions = &n
	})
}

func WithPartitionBoundStrategy(s engine.PartitionBoundStrategy) ReadOption {
	return func(c *readConfig) {
		c.strategy = s
	}
}

func WithDisablePushdownsToSQL(disable bool) ReadOption {
	return func(c *readConfig) {
		c.disablePushdowns = disable
	}
}

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

// WithSchema overrides the types of the named columns.
func WithSchema(schema map[string]arrow.DataType) ReadOption {
	return func(c *readConfig) {
		c.schema = schema
	}
}

func defaultReadConfig() readConfig {
	return readConfig{
		strategy:          engine.PartitionBoundMinMax,
		inferSchema:       true,
		inferSchemaLength: 10,
	}
}

func (c *readConfig) engineOptions() []engine.ReadOption {
	opts := []engine.ReadOption{
		engine.WithPartitionBoundStrategy(c.strategy),
		engine.WithDisablePushdownsToSQL(c.disablePushdowns),
		engine.WithInferSchema(c.inferSchema),
		engine.WithInferSchemaLength(c.inferSchemaLength),
	}
	if c.schema != nil {
		opts = append(opts, engine.WithSchema(c.schema))
	}
	return opts
}

func (c *queryConfig) engineOptions() []engine.ReadOption {
	opts := c.readConfig.engineOptions()
	if c.partitionCol != "" {
		opts = append(opts, engine.WithPartitionCol(c.partitionCol))
	}
	if c.numPartitions != nil {
		opts = append(opts, engine.WithNumPartitions(*c.numPartitions))
	}
	return opts
}
