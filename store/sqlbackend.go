package store

import (
	"database/sql"
	"fmt"
	"strings"

	"scmcore/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// sqlBackend stores each record kind as a SQL table of TEXT columns plus a
// seq column that preserves insertion order. A rewrite is one transaction.
type sqlBackend struct {
	db *sql.DB
	d  dialect
}

func openSQLite(path string) (*sqlBackend, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &sqlBackend{db: sqlDB, d: sqliteDialect}, nil
}

func openPostgres(cfg *config.PostgresConfig) (*sqlBackend, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password, cfg.SSLMode)
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &sqlBackend{db: sqlDB, d: postgresDialect}, nil
}

func (b *sqlBackend) name() string { return b.d.driver }
func (b *sqlBackend) close() error { return b.db.Close() }

func (b *sqlBackend) ensure(s *Schema) error {
	cols := make([]string, 0, len(s.Columns)+1)
	cols = append(cols, b.d.seqColumn)
	for _, c := range s.Columns {
		cols = append(cols, c+" TEXT")
	}
	_, err := b.db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.Table, strings.Join(cols, ", ")))
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.Table, err)
	}
	return nil
}

func (b *sqlBackend) load(s *Schema) ([]Row, error) {
	rows, err := b.db.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY seq", strings.Join(s.Columns, ", "), s.Table))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.Table, err)
	}
	defer rows.Close()

	var out []Row
	cells := make([]sql.NullString, len(s.Columns))
	dest := make([]any, len(s.Columns))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.Table, err)
		}
		row := make(Row, len(cells))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (b *sqlBackend) rewrite(s *Schema, rows []Row) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin %s: %w", s.Table, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM " + s.Table); err != nil {
		return fmt.Errorf("clear %s: %w", s.Table, err)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(s.Columns)), ", ")
	stmt, err := tx.Prepare(b.d.bind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.Table, strings.Join(s.Columns, ", "), placeholders)))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", s.Table, err)
	}
	defer stmt.Close()

	args := make([]any, len(s.Columns))
	for n, row := range rows {
		for i, cell := range row {
			if cell == "" {
				args[i] = nil
			} else {
				args[i] = cell
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", s.Table, n+1, err)
		}
	}
	return tx.Commit()
}
