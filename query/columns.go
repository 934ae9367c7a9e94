package query

// ColumnSet names the table and the five required columns of a tree table.
// All query construction goes through these names - never a hard-coded
// "left"/"right"/"path"/"level" literal - so a caller's own column naming
// (validated against §6's required schema by the schema package) flows
// through unchanged.
type ColumnSet struct {
	Table string
	PK    string
	Path  string
	Left  string
	Right string
	Level string
}
