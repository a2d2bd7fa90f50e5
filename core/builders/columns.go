package builders

import (
	"database/sql"
	"strings"

	"github.com/sqlio/sqlio/core"
)

// columnTypes converts driver column types to core column types.
// Type names are upper-cased and stripped of size modifiers, so
// "varchar(255)" becomes "VARCHAR".
func columnTypes(cols []*sql.ColumnType) []core.ColumnType {
	out := make([]core.ColumnType, 0, len(cols))

	for _, col := range cols {
		typ := strings.ToUpper(col.DatabaseTypeName())
		if i := strings.IndexByte(typ, '('); i >= 0 {
			typ = typ[:i]
		}

		out = append(out, core.ColumnType{
			Name:         col.Name(),
			DatabaseType: strings.TrimSpace(typ),
		})
	}

	return out
}
