package dialect

// database/sql drivers linked into every tpccbench binary. Other families need the embedding program to
// register a driver under Definition.Driver (or the configured override).
import (
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)
