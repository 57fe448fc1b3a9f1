package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
	_ "github.com/go-sql-driver/mysql"
)

// MySQLDB implements DB using MySQL via go-sql-driver/mysql.
type MySQLDB struct {
	db  *sql.DB
	dsn string
}

// NewMySQL opens a MySQL connection using cfg.DSN.
func NewMySQL(cfg config.DatabaseConfig) (*MySQLDB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql DSN is required when driver is mysql")
	}

	// Append parseTime=true if not already set.
	dsn := cfg.DSN
	if !strings.Contains(dsn, "parseTime") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	m := &MySQLDB{db: db, dsn: dsn}
	if err := m.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}
	return m, nil
}

func (m *MySQLDB) Driver() string { return "mysql" }

func (m *MySQLDB) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQLDB) Close() error {
	return m.db.Close()
}

// Migrate applies the embedded migrations, rewriting SQLite-specific types
// to their MySQL equivalents.
func (m *MySQLDB) Migrate(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		filename    VARCHAR(255) NOT NULL UNIQUE,
		applied_at  VARCHAR(64)  NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var count int
		row := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE filename = ?`, name)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("checking migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		for _, stmt := range splitStatements(translateToMySQL(string(data))) {
			if _, err := m.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("applying migration %s: %w", name, err)
			}
		}

		_, err = m.db.ExecContext(ctx,
			`INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)`,
			name, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		slog.Info("Applied migration", "file", name, "driver", "mysql")
	}
	return nil
}

// translateToMySQL rewrites the handful of SQLite idioms used in migrations.
func translateToMySQL(sqlText string) string {
	r := strings.NewReplacer(
		"TEXT PRIMARY KEY", "VARCHAR(64) PRIMARY KEY",
		"INTEGER PRIMARY KEY AUTOINCREMENT", "BIGINT AUTO_INCREMENT PRIMARY KEY",
	)
	return r.Replace(sqlText)
}

// splitStatements breaks a migration file into individual statements;
// MySQL's driver rejects multi-statement Exec by default.
func splitStatements(sqlText string) []string {
	var out []string
	for _, stmt := range strings.Split(sqlText, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Select executes query and scans all rows into dest (pointer to a slice).
func (m *MySQLDB) Select(ctx context.Context, dest any, query string, args ...any) error {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows, dest)
}

// Get executes query and scans a single row into dest.
func (m *MySQLDB) Get(ctx context.Context, dest any, query string, args ...any) error {
	row := m.db.QueryRowContext(ctx, query, args...)
	return scanRow(row, dest)
}

// Exec executes a statement that returns no rows.
func (m *MySQLDB) Exec(ctx context.Context, query string, args ...any) error {
	_, err := m.db.ExecContext(ctx, query, args...)
	return err
}

// Insert inserts a struct into table using its `db:` tags.
func (m *MySQLDB) Insert(ctx context.Context, table string, record any) error {
	cols, placeholders, vals := structToInsert(record)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := m.db.ExecContext(ctx, query, vals...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// Update updates rows in table matching the where clause.
func (m *MySQLDB) Update(ctx context.Context, table string, record any, where string, args ...any) error {
	cols, vals := structToUpdate(record)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), where)
	allArgs := append(vals, args...)
	_, err := m.db.ExecContext(ctx, query, allArgs...)
	return err
}
