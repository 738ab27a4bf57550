package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"chatpush/internal/migrations"
	"chatpush/internal/security"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	driver := flag.String("driver", migrations.DriverSQLite, "Database driver: sqlite3 or postgres")
	dbPath := flag.String("db", "./chatpush.db", "Path to the SQLite database file")
	dsn := flag.String("dsn", os.Getenv("CHATPUSH_DB_DSN"), "Postgres connection string")
	timeout := flag.Duration("timeout", time.Minute, "Time allowed for all migrations")
	flag.Parse()

	db, err := open(*driver, *dbPath, *dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	applied, err := migrations.Apply(ctx, db, *driver)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	if len(applied) == 0 {
		fmt.Println("Database schema is up to date, nothing to apply")
		return
	}
	for _, v := range applied {
		fmt.Printf("Applied migration %03d\n", v)
	}
	fmt.Printf("%d migration(s) applied successfully\n", len(applied))
}

func open(driver, dbPath, dsn string) (*sql.DB, error) {
	switch driver {
	case migrations.DriverSQLite:
		if err := security.ValidateFilePath(dbPath); err != nil {
			return nil, fmt.Errorf("invalid database path: %w", err)
		}
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database file not found: %s", dbPath)
		}
		return sql.Open("sqlite3", dbPath)
	case migrations.DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("-dsn or CHATPUSH_DB_DSN is required for postgres")
		}
		// pgx registers its database/sql driver as "pgx"
		return sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}
