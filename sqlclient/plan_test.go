package sqlclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlio/sqlio/engine"
)

func TestExtractQueries(t *testing.T) {
	plan := `{"Limit": {"limit": 3, "input": {"TabularScan": {"plan_format_version": 1, "scan_tasks": [
		{"file_format_config": {"Database": {"sql": "SELECT 1", "dialect": "sqlite"}}},
		{"file_format_config": {"Database": {"sql": "SELECT 2", "dialect": "sqlite"}}}
	]}}}}`

	queries, err := extractQueries(plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, queries)
}

func TestExtractQueries_Shape(t *testing.T) {
	tests := []struct {
		name string
		plan string
		want string
	}{
		{
			name: "not an object",
			plan: `[]`,
			want: "$",
		},
		{
			name: "several tags",
			plan: `{"TabularScan": {}, "Limit": {}}`,
			want: "single node tag",
		},
		{
			name: "node without input",
			plan: `{"Filter": {"predicate": "x"}}`,
			want: `$.Filter: missing key "input"`,
		},
		{
			name: "unknown version",
			plan: `{"TabularScan": {"plan_format_version": 2, "scan_tasks": []}}`,
			want: "unsupported version 2",
		},
		{
			name: "missing database source",
			plan: `{"TabularScan": {"plan_format_version": 1, "scan_tasks": [{"file_format_config": {"Parquet": {}}}]}}`,
			want: `$.TabularScan.scan_tasks[0].file_format_config: missing key "Database"`,
		},
		{
			name: "sql is not a string",
			plan: `{"TabularScan": {"plan_format_version": 1, "scan_tasks": [{"file_format_config": {"Database": {"sql": 1}}}]}}`,
			want: "expected a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractQueries(tt.plan)
			require.ErrorIs(t, err, engine.ErrPlanShape)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewError(t *testing.T) {
	cause := engine.ErrPlanShape
	err := newError(cause)

	assert.Equal(t, cause.Error(), err.Error())
	assert.ErrorIs(t, err, cause)
	// already flattened errors are kept as is
	assert.Same(t, err, newError(err))
}
