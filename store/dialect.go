package store

import (
	"strconv"
	"strings"
)

// dialect holds what differs between the SQL backends.
type dialect struct {
	driver    string
	seqColumn string // DDL of the insertion-order column
	numbered  bool   // placeholders are $1, $2, ...
}

var (
	sqliteDialect   = dialect{driver: "sqlite", seqColumn: "seq INTEGER PRIMARY KEY AUTOINCREMENT"}
	postgresDialect = dialect{driver: "postgres", seqColumn: "seq BIGSERIAL PRIMARY KEY", numbered: true}
)

func (d dialect) bind(query string) string {
	if !d.numbered {
		return query
	}
	return Rebind(query)
}

// Rebind rewrites ? placeholders to $1, $2, ... in order of appearance.
func Rebind(query string) string {
	parts := strings.Split(query, "?")
	var b strings.Builder
	b.WriteString(parts[0])
	for i, p := range parts[1:] {
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(p)
	}
	return b.String()
}
