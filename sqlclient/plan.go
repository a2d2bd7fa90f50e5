package sqlclient

import (
	"encoding/json"
	"fmt"

	"github.com/sqlio/sqlio/engine"
)

// extractQueries returns the partition queries of a serialized physical plan,
// in scan task order. The plan must follow engine.PlanFormatVersion: the first
// TabularScan found by following "input" links from the root holds the tasks,
// each with its query under file_format_config.Database.sql.
func extractQueries(planJSON string) ([]string, error) {
	node := json.RawMessage(planJSON)
	path := "$"

	for {
		var tagged map[string]json.RawMessage
		if err := json.Unmarshal(node, &tagged); err != nil {
			return nil, shapeError(path, "expected a plan node object: %s", err)
		}
		if len(tagged) != 1 {
			return nil, shapeError(path, "expected a single node tag, got %d keys", len(tagged))
		}

		for tag, body := range tagged {
			path += "." + tag
			if tag == "TabularScan" {
				return scanQueries(body, path)
			}

			input, err := field(body, "input", path)
			if err != nil {
				return nil, err
			}
			node = input
			path += ".input"
		}
	}
}

func scanQueries(scan json.RawMessage, path string) ([]string, error) {
	rawVersion, err := field(scan, "plan_format_version", path)
	if err != nil {
		return nil, err
	}
	var version int
	if err := json.Unmarshal(rawVersion, &version); err != nil || version != engine.PlanFormatVersion {
		return nil, shapeError(path+".plan_format_version", "unsupported version %s, expected %d", rawVersion, engine.PlanFormatVersion)
	}

	rawTasks, err := field(scan, "scan_tasks", path)
	if err != nil {
		return nil, err
	}
	var tasks []json.RawMessage
	if err := json.Unmarshal(rawTasks, &tasks); err != nil {
		return nil, shapeError(path+".scan_tasks", "expected an array: %s", err)
	}

	queries := make([]string, 0, len(tasks))
	for i, task := range tasks {
		taskPath := fmt.Sprintf("%s.scan_tasks[%d]", path, i)

		cfg, err := field(task, "file_format_config", taskPath)
		if err != nil {
			return nil, err
		}
		db, err := field(cfg, "Database", taskPath+".file_format_config")
		if err != nil {
			return nil, err
		}
		rawSQL, err := field(db, "sql", taskPath+".file_format_config.Database")
		if err != nil {
			return nil, err
		}

		var sql string
		if err := json.Unmarshal(rawSQL, &sql); err != nil {
			return nil, shapeError(taskPath+".file_format_config.Database.sql", "expected a string: %s", err)
		}
		queries = append(queries, sql)
	}

	return queries, nil
}

// field returns the value of key in the object obj located at path.
func field(obj json.RawMessage, key, path string) (json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(obj, &m); err != nil {
		return nil, shapeError(path, "expected an object: %s", err)
	}
	v, ok := m[key]
	if !ok {
		return nil, shapeError(path, "missing key %q", key)
	}
	return v, nil
}

func shapeError(path, format string, args ...any) error {
	return fmt.Errorf("%w at %s: %s", engine.ErrPlanShape, path, fmt.Sprintf(format, args...))
}
