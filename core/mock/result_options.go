package mock

import (
	"time"

	"github.com/sqlio/sqlio/core"
)

type resultStreamConfig struct {
	nextSleep  time.Duration
	meta       *core.Meta
	header     core.Header
	errorIndex int
	err        error
}

type ResultStreamOption func(*resultStreamConfig)

func ResultStreamWithNextSleep(s time.Duration) ResultStreamOption {
	return func(c *resultStreamConfig) {
		c.nextSleep = s
	}
}

func ResultStreamWithMeta(meta *core.Meta) ResultStreamOption {
	return func(c *resultStreamConfig) {
		c.meta = meta
	}
}

func ResultStreamWithHeader(header ...string) ResultStreamOption {
	return func(c *resultStreamConfig) {
		c.header = header
	}
}

// ResultStreamWithNextError makes Next fail with err once index rows were read.
func ResultStreamWithNextError(index int, err error) ResultStreamOption {
	return func(c *resultStreamConfig) {
		c.errorIndex = index
		c.err = err
	}
}
