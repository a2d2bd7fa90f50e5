package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v15/arrow"
)

// PlanFormatVersion is the version of the serialized physical plan layout.
// Consumers walking the JSON form must check it and treat unknown keys or node
// shapes as ErrPlanShape.
//
// Layout (version 1), nodes are externally tagged objects:
//
//	{"TabularScan": {"plan_format_version": 1, "scan_tasks": [
//	    {"file_format_config": {"Database": {"sql": "...", "dialect": "..."}}, ...}]}}
//	{"Filter": {"predicate": "...", "input": <node>}}
//	{"Limit": {"limit": 10, "input": <node>}}
//	{"Project": {"columns": ["..."], "input": <node>}}
const PlanFormatVersion = 1

// ErrPlanShape reports a serialized plan that doesn't follow PlanFormatVersion.
var ErrPlanShape = errors.New("incompatible physical plan shape")

type stageKind int

const (
	stageFilter stageKind = iota
	stageLimit
	stageProject
)

// stage is a single frame operation on top of the scan.
type stage struct {
	kind    stageKind
	filter  Expr
	limit   int
	columns []string
}

func (s stage) String() string {
	switch s.kind {
	case stageFilter:
		return fmt.Sprintf("Filter[%s]", s.filter)
	case stageLimit:
		return fmt.Sprintf("Limit[%d]", s.limit)
	default:
		return fmt.Sprintf("Project[%s]", strings.Join(s.columns, ", "))
	}
}

// LogicalPlanBuilder describes a frame as a scan followed by filter, limit and
// project stages. Builders are immutable, every stage returns a new builder.
type LogicalPlanBuilder struct {
	source           *SQLScanOperator
	stages           []stage
	schema           *arrow.Schema
	disablePushdowns bool
}

func (b *LogicalPlanBuilder) Schema() *arrow.Schema {
	return b.schema
}

func (b *LogicalPlanBuilder) with(s stage, schema *arrow.Schema) *LogicalPlanBuilder {
	stages := make([]stage, len(b.stages), len(b.stages)+1)
	copy(stages, b.stages)
	return &LogicalPlanBuilder{
		source:           b.source,
		stages:           append(stages, s),
		schema:           schema,
		disablePushdowns: b.disablePushdowns,
	}
}

func (b *LogicalPlanBuilder) Filter(e Expr) (*LogicalPlanBuilder, error) {
	if e == nil {
		return nil, errors.New("filter expression is nil")
	}
	for _, c := range e.Columns() {
		if !hasField(b.schema, c) {
			return nil, fmt.Errorf("filter references unknown column %q", c)
		}
	}
	return b.with(stage{kind: stageFilter, filter: e}, b.schema), nil
}

func (b *LogicalPlanBuilder) Limit(n int) (*LogicalPlanBuilder, error) {
	if n < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", n)
	}
	return b.with(stage{kind: stageLimit, limit: n}, b.schema), nil
}

func (b *LogicalPlanBuilder) Project(columns ...string) (*LogicalPlanBuilder, error) {
	if len(columns) == 0 {
		return nil, errors.New("projection needs at least one column")
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if !hasField(b.schema, c) {
			return nil, fmt.Errorf("projection references unknown column %q", c)
		}
		if _, ok := seen[c]; ok {
			return nil, fmt.Errorf("column %q selected twice", c)
		}
		seen[c] = struct{}{}
	}
	return b.with(stage{kind: stageProject, columns: columns}, project(b.schema, columns)), nil
}

// String renders the logical plan, root first.
func (b *LogicalPlanBuilder) String() string {
	var sb strings.Builder
	depth := 0
	for i := len(b.stages) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%s%s\n", strings.Repeat("  ", depth), b.stages[i])
		depth++
	}
	fmt.Fprintf(&sb, "%s%s\n", strings.Repeat("  ", depth), b.source)
	return sb.String()
}

// pushdowns splits the stages into the part folded into the scan queries and
// the part evaluated in memory, in order.
//
// Filters are pushed until the first limit and limits collapse to the
// smallest until the first filter kept in memory. Stages referencing renamed
// columns stay in memory. A projection is pushed only when nothing else
// remains in memory, since in memory stages may reference columns it drops.
func (b *LogicalPlanBuilder) pushdowns() (Pushdowns, []stage) {
	pd := noPushdowns()
	if b.disablePushdowns {
		return pd, b.stages
	}

	var (
		remaining []stage
		filters   []Expr
		columns   []string
		limited   bool
		blocked   bool
		pinned    bool
	)
	for _, s := range b.stages {
		switch s.kind {
		case stageFilter:
			if limited || !b.source.addressable(s.filter.Columns()) {
				blocked = true
				remaining = append(remaining, s)
				continue
			}
			filters = append(filters, s.filter)
		case stageLimit:
			if blocked {
				remaining = append(remaining, s)
				continue
			}
			limited = true
			if pd.Limit < 0 || s.limit < pd.Limit {
				pd.Limit = s.limit
			}
		case stageProject:
			if !b.source.addressable(s.columns) {
				pinned = true
			}
			columns = s.columns
			remaining = append(remaining, s)
		}
	}

	pd.Filters = And(filters...)

	onlyProjections := !pinned
	for _, s := range remaining {
		if s.kind != stageProject {
			onlyProjections = false
			break
		}
	}
	if onlyProjections {
		pd.Columns = columns
		remaining = nil
	}

	return pd, remaining
}

// ToPhysicalPlanScheduler plans the scan tasks and wraps them with the stages
// that could not be pushed down.
func (b *LogicalPlanBuilder) ToPhysicalPlanScheduler(ctx context.Context, cfg ExecutionConfig) (*PhysicalPlanScheduler, error) {
	pd, remaining := b.pushdowns()

	tasks, err := b.source.ToScanTasks(ctx, cfg, pd)
	if err != nil {
		return nil, err
	}

	var root PhysicalPlan = &TabularScan{ScanTasks: tasks}

	// a limit folded into several partition queries still bounds each of them
	// only, so the concatenation needs a global limit.
	if pd.Limit >= 0 && len(tasks) > 1 {
		root = &LimitNode{Limit: pd.Limit, Input: root}
	}

	for _, s := range remaining {
		switch s.kind {
		case stageFilter:
			root = &FilterNode{Predicate: s.filter, Input: root}
		case stageLimit:
			root = &LimitNode{Limit: s.limit, Input: root}
		case stageProject:
			root = &ProjectNode{Columns: s.columns, Input: root}
		}
	}

	return &PhysicalPlanScheduler{root: root, schema: b.schema, source: b.source}, nil
}

// PhysicalPlan is a node of the executable plan.
type PhysicalPlan interface {
	json.Marshaler
	children() []PhysicalPlan
}

type TabularScan struct {
	ScanTasks []*ScanTask
}

type FilterNode struct {
	Predicate Expr
	Input     PhysicalPlan
}

type LimitNode struct {
	Limit int
	Input PhysicalPlan
}

type ProjectNode struct {
	Columns []string
	Input   PhysicalPlan
}

func (*TabularScan) children() []PhysicalPlan   { return nil }
func (n *FilterNode) children() []PhysicalPlan  { return []PhysicalPlan{n.Input} }
func (n *LimitNode) children() []PhysicalPlan   { return []PhysicalPlan{n.Input} }
func (n *ProjectNode) children() []PhysicalPlan { return []PhysicalPlan{n.Input} }

type jsonField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type jsonPushdowns struct {
	Filters *string  `json:"filters"`
	Limit   *int     `json:"limit"`
	Columns []string `json:"columns"`
}

type jsonDatabaseSource struct {
	SQL     string `json:"sql"`
	Dialect string `json:"dialect"`
}

type jsonScanTask struct {
	FileFormatConfig struct {
		Database jsonDatabaseSource `json:"Database"`
	} `json:"file_format_config"`
	Schema    []jsonField     `json:"schema"`
	Pushdowns jsonPushdowns   `json:"pushdowns"`
	Partition *PartitionRange `json:"partition"`
}

func (t *ScanTask) MarshalJSON() ([]byte, error) {
	var out jsonScanTask
	out.FileFormatConfig.Database = jsonDatabaseSource{SQL: t.SQL, Dialect: t.Dialect}

	for _, f := range t.Schema.Fields() {
		out.Schema = append(out.Schema, jsonField{Name: f.Name, Type: f.Type.String()})
	}

	if t.Pushdowns.Filters != nil {
		s := t.Pushdowns.Filters.String()
		out.Pushdowns.Filters = &s
	}
	if t.Pushdowns.Limit >= 0 {
		l := t.Pushdowns.Limit
		out.Pushdowns.Limit = &l
	}
	out.Pushdowns.Columns = t.Pushdowns.Columns
	out.Partition = t.Range

	return json.Marshal(out)
}

func (n *TabularScan) MarshalJSON() ([]byte, error) {
	tasks := n.ScanTasks
	if tasks == nil {
		tasks = []*ScanTask{}
	}
	return json.Marshal(map[string]any{
		"TabularScan": map[string]any{
			"plan_format_version": PlanFormatVersion,
			"scan_tasks":          tasks,
		},
	})
}

func (n *FilterNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"Filter": map[string]any{"predicate": n.Predicate.String(), "input": n.Input},
	})
}

func (n *LimitNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"Limit": map[string]any{"limit": n.Limit, "input": n.Input},
	})
}

func (n *ProjectNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"Project": map[string]any{"columns": n.Columns, "input": n.Input},
	})
}

// PhysicalPlanScheduler holds an executable plan.
type PhysicalPlanScheduler struct {
	root   PhysicalPlan
	schema *arrow.Schema
	source *SQLScanOperator
}

func (s *PhysicalPlanScheduler) Root() PhysicalPlan {
	return s.root
}

// ScanTasks returns the scan tasks of the plan in execution order.
func (s *PhysicalPlanScheduler) ScanTasks() []*ScanTask {
	var tasks []*ScanTask
	var walk func(PhysicalPlan)
	walk = func(n PhysicalPlan) {
		if scan, ok := n.(*TabularScan); ok {
			tasks = append(tasks, scan.ScanTasks...)
		}
		for _, c := range n.children() {
			walk(c)
		}
	}
	walk(s.root)
	return tasks
}

// ToJSONString serializes the plan in the PlanFormatVersion layout.
func (s *PhysicalPlanScheduler) ToJSONString() (string, error) {
	b, err := json.Marshal(s.root)
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}
	return string(b), nil
}

// NumPartitions returns the number of scan tasks.
func (s *PhysicalPlanScheduler) NumPartitions() int {
	return len(s.ScanTasks())
}
