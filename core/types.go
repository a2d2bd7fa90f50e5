package core

type (
	// FormatterOptions provide various options for formatters
	FormatterOptions struct {
		ChunkStart int
	}

	// Formatter converts header and rows to bytes
	Formatter interface {
		Format(header Header, rows []Row, opts *FormatterOptions) ([]byte, error)
	}
)

type (
	// Row and Header are attributes of the ResultStream iterator
	Row    []any
	Header []string

	// ColumnType describes a single result column as reported by the driver.
	ColumnType struct {
		Name string
		// DatabaseType is the driver specific type name (e.g. INTEGER, VARCHAR)
		DatabaseType string
	}

	// Meta holds metadata
	Meta struct {
		// ColumnTypes are filled only by drivers that expose them.
		ColumnTypes []ColumnType
	}

	// ResultStream is a result from executed query and has a form of an iterator
	ResultStream interface {
		Meta() *Meta
		Header() Header
		Next() (Row, error)
		HasNext() bool
		Close()
	}
)
