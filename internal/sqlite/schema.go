package sqlite

// Schema DDL. Statements are idempotent so Attach can run them on every open.
const (
	createSession = `CREATE TABLE IF NOT EXISTS session (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createFixes = `CREATE TABLE IF NOT EXISTS fixes (
    fix_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    accuracy REAL NOT NULL,
    acquired_at TEXT NOT NULL
);`
)

// Index DDL.
const (
	idxFixesSourceAcquired = `CREATE INDEX IF NOT EXISTS idx_fixes_source_acquired ON fixes(source, acquired_at);`
)

// timeLayout stores times as fixed-width UTC text so that ORDER BY on the
// column is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Session keys.
const (
	keyToken = "token"
	keyUser  = "user"
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createSession,
	createFixes,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxFixesSourceAcquired,
}
