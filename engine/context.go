package engine

import (
	"fmt"
	"runtime"
	"sync"
)

// Runner selects how the scan tasks of a plan are executed.
type Runner int

const (
	// RunnerSerial reads partitions one at a time, in scan task order.
	RunnerSerial Runner = iota
	// RunnerNative reads partitions concurrently on a bounded worker pool.
	RunnerNative
)

func (r Runner) String() string {
	switch r {
	case RunnerSerial:
		return "serial"
	case RunnerNative:
		return "native"
	default:
		return fmt.Sprintf("Runner(%d)", int(r))
	}
}

// DefaultPartitionSizeBytes is the target amount of data read by a single
// partition when the partition count is derived from the table size.
const DefaultPartitionSizeBytes = 512 * 1024 * 1024

// ExecutionConfig holds engine wide tuning knobs.
type ExecutionConfig struct {
	// ReadSQLPartitionSizeBytes is the target partition size used when a
	// partition column is given without a partition count.
	ReadSQLPartitionSizeBytes int64
	// NativeMaxParallelism bounds concurrent partition reads of the native runner.
	NativeMaxParallelism int
	// DefaultInferSchemaLength is the sample size used for schema inference.
	DefaultInferSchemaLength int
}

func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		ReadSQLPartitionSizeBytes: DefaultPartitionSizeBytes,
		NativeMaxParallelism:      runtime.NumCPU(),
		DefaultInferSchemaLength:  10,
	}
}

// Context is the process wide engine state. Frames that were not given an
// explicit runner use the runner set here at the moment they are collected.
type Context struct {
	runner Runner
	cfg    ExecutionConfig

	mu sync.RWMutex
}

var globalContext = &Context{
	runner: RunnerSerial,
	cfg:    DefaultExecutionConfig(),
}

func GetContext() *Context {
	return globalContext
}

// SetRunner sets the process wide default runner.
func SetRunner(r Runner) {
	globalContext.SetRunner(r)
}

// SetRunnerNative is a shorthand for SetRunner(RunnerNative).
func SetRunnerNative() {
	globalContext.SetRunner(RunnerNative)
}

// SetExecutionConfig replaces the process wide execution config.
func SetExecutionConfig(cfg ExecutionConfig) {
	globalContext.SetExecutionConfig(cfg)
}

func (c *Context) Runner() Runner {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runner
}

func (c *Context) SetRunner(r Runner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runner = r
}

func (c *Context) ExecutionConfig() ExecutionConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *Context) SetExecutionConfig(cfg ExecutionConfig) {
	def := DefaultExecutionConfig()
	if cfg.ReadSQLPartitionSizeBytes <= 0 {
		cfg.ReadSQLPartitionSizeBytes = def.ReadSQLPartitionSizeBytes
	}
	if cfg.NativeMaxParallelism <= 0 {
		cfg.NativeMaxParallelism = def.NativeMaxParallelism
	}
	if cfg.DefaultInferSchemaLength <= 0 {
		cfg.DefaultInferSchemaLength = def.DefaultInferSchemaLength
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}
