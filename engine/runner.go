package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sqlio/sqlio/core"
)

// batch is the materialized output of a plan node.
type batch struct {
	names []string
	rows  []core.Row
}

func (b *batch) index() map[string]int {
	idx := make(map[string]int, len(b.names))
	for i, n := range b.names {
		idx[n] = i
	}
	return idx
}

// execute runs the plan and returns its rows in scan task order.
func (s *PhysicalPlanScheduler) execute(ctx context.Context, runner Runner, cfg ExecutionConfig) (*batch, error) {
	return s.executeNode(ctx, s.root, runner, cfg)
}

func (s *PhysicalPlanScheduler) executeNode(ctx context.Context, node PhysicalPlan, runner Runner, cfg ExecutionConfig) (*batch, error) {
	switch n := node.(type) {
	case *TabularScan:
		return s.scan(ctx, n, runner, cfg)

	case *FilterNode:
		in, err := s.executeNode(ctx, n.Input, runner, cfg)
		if err != nil {
			return nil, err
		}
		idx := in.index()
		out := &batch{names: in.names, rows: make([]core.Row, 0, len(in.rows))}
		for _, row := range in.rows {
			v, err := n.Predicate.Eval(row, idx)
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", n.Predicate, err)
			}
			if keep, _ := v.(bool); keep {
				out.rows = append(out.rows, row)
			}
		}
		return out, nil

	case *LimitNode:
		in, err := s.executeNode(ctx, n.Input, runner, cfg)
		if err != nil {
			return nil, err
		}
		if len(in.rows) > n.Limit {
			in.rows = in.rows[:n.Limit]
		}
		return in, nil

	case *ProjectNode:
		in, err := s.executeNode(ctx, n.Input, runner, cfg)
		if err != nil {
			return nil, err
		}
		idx := in.index()
		positions := make([]int, len(n.Columns))
		for i, c := range n.Columns {
			p, ok := idx[c]
			if !ok {
				return nil, fmt.Errorf("projection: column %q not found", c)
			}
			positions[i] = p
		}
		out := &batch{names: n.Columns, rows: make([]core.Row, len(in.rows))}
		for r, row := range in.rows {
			projected := make(core.Row, len(positions))
			for i, p := range positions {
				projected[i] = row[p]
			}
			out.rows[r] = projected
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: unknown node %T", ErrPlanShape, node)
}

func (s *PhysicalPlanScheduler) scan(ctx context.Context, n *TabularScan, runner Runner, cfg ExecutionConfig) (*batch, error) {
	results := make([]*core.Result, len(n.ScanTasks))

	read := func(ctx context.Context, i int) error {
		res, err := readTask(ctx, s.source.conn, n.ScanTasks[i])
		if err != nil {
			return fmt.Errorf("partition %d: %w", i, err)
		}
		results[i] = res
		return nil
	}

	switch runner {
	case RunnerNative:
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(cfg.NativeMaxParallelism, 1))
		for i := range n.ScanTasks {
			i := i
			g.Go(func() error {
				return read(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	default:
		for i := range n.ScanTasks {
			if err := read(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	var names []string
	if len(n.ScanTasks) > 0 {
		names = fieldNames(n.ScanTasks[0].Schema)
	}
	merged := core.NewResult(names, nil)
	for i, res := range results {
		if got, want := len(res.Header()), len(names); got != want {
			return nil, fmt.Errorf("partition %d returned %d columns, expected %d", i, got, want)
		}
		merged.Append(res)
	}
	return &batch{names: names, rows: merged.AllRows()}, nil
}

// readTask opens a dedicated connection and drains the task query.
func readTask(ctx context.Context, conn core.ConnFactory, task *ScanTask) (*core.Result, error) {
	driver, err := conn(ctx)
	if err != nil {
		return nil, err
	}
	defer driver.Close()

	stream, err := driver.Query(ctx, task.SQL)
	if err != nil {
		return nil, err
	}

	res := core.NewResult(nil, nil)
	if err := res.SetIter(stream); err != nil {
		return nil, err
	}
	return res, nil
}
