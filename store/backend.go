package store

// backend persists whole tables. Implementations do no locking of their own;
// Table serializes access.
type backend interface {
	name() string
	// ensure creates the table with no rows when it does not exist yet.
	ensure(s *Schema) error
	load(s *Schema) ([]Row, error)
	// rewrite replaces the table's entire content with rows.
	rewrite(s *Schema, rows []Row) error
	close() error
}
