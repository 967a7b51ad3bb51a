package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/uptrace/bun/driver/pgdriver"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// NewPostgres opens the thread store connection and brings the schema up to
// date. The returned handle is constructed once at startup and injected;
// there is no lazy singleton.
func NewPostgres(url, host string) (*sql.DB, error) {
	dsn := url
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://postgres:postgres@%s/nexa?sslmode=disable", host)
	}

	db := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging db: %w", err)
	}

	migrations := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
	applied, err := migrate.Exec(db, "postgres", migrations, migrate.Up)
	if err != nil {
		return nil, fmt.Errorf("applying migrations: %w", err)
	}
	if applied > 0 {
		slog.Info("Applied migrations", "count", applied)
	}

	return db, nil
}
