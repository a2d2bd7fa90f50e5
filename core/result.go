package core

import (
	"fmt"
	"sync"
)

var ErrInvalidRange = func(from, to int) error { return fmt.Errorf("invalid selection range: %d ... %d", from, to) }

// Result is the drained form of the ResultStream iterator.
type Result struct {
	header Header
	meta   *Meta
	rows   []Row

	mu sync.RWMutex
}

// NewResult creates a result from already materialized rows.
func NewResult(header Header, rows []Row) *Result {
	return &Result{
		header: header,
		meta:   &Meta{},
		rows:   rows,
	}
}

// SetIter drains the iterator into the result and closes it.
func (cr *Result) SetIter(iter ResultStream) error {
	defer iter.Close()

	cr.mu.Lock()
	defer cr.mu.Unlock()

	cr.header = iter.Header()
	cr.meta = iter.Meta()
	cr.rows = make([]Row, 0)

	for iter.HasNext() {
		row, err := iter.Next()
		if err != nil {
			return err
		}
		cr.rows = append(cr.rows, row)
	}

	return nil
}

// Append adds rows of another result with the same header.
func (cr *Result) Append(other *Result) {
	rows := other.AllRows()

	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.rows = append(cr.rows, rows...)
}

func (cr *Result) Len() int {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return len(cr.rows)
}

func (cr *Result) Header() Header {
	return cr.header
}

func (cr *Result) Meta() *Meta {
	if cr.meta == nil {
		return &Meta{}
	}
	return cr.meta
}

// AllRows returns every row of the result.
func (cr *Result) AllRows() []Row {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.rows
}

// Rows returns the row range. Negative indexes count from the end, -1 being
// one past the last row, so Rows(0, -1) returns everything.
func (cr *Result) Rows(from, to int) ([]Row, error) {
	rows, _, _, err := cr.getRows(from, to)
	return rows, err
}

func (cr *Result) Format(formatter Formatter, from, to int) ([]byte, error) {
	rows, fromAdjusted, _, err := cr.getRows(from, to)
	if err != nil {
		return nil, fmt.Errorf("cr.getRows: %w", err)
	}

	f, err := formatter.Format(cr.header, rows, &FormatterOptions{ChunkStart: fromAdjusted})
	if err != nil {
		return nil, fmt.Errorf("formatter.Format: %w", err)
	}

	return f, nil
}

// getRows returns the row range and adjusted from-to values
func (cr *Result) getRows(from, to int) (rows []Row, rangeFrom, rangeTo int, err error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if (from < 0 && to < 0) || (from >= 0 && to >= 0) {
		if from > to {
			return nil, 0, 0, ErrInvalidRange(from, to)
		}
	}
	// undefined -> error
	if from < 0 && to >= 0 {
		return nil, 0, 0, ErrInvalidRange(from, to)
	}

	length := len(cr.rows)
	if from < 0 {
		from += length + 1
		if from < 0 {
			from = 0
		}
	}
	if to < 0 {
		to += length + 1
		if to < 0 {
			to = 0
		}
	}

	if from > length {
		from = length
	}
	if to > length {
		to = length
	}

	return cr.rows[from:to], from, to, nil
}
