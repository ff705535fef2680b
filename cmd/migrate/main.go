package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Schema statements are idempotent so the tool can run on every deploy.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
	id           BIGSERIAL PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	url          TEXT,
	rating       DOUBLE PRECISION,
	release_date TEXT,
	tags         TEXT NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS hashtags (
	id  BIGSERIAL PRIMARY KEY,
	tag TEXT NOT NULL UNIQUE
);`,
}

func main() {
	_ = godotenv.Load()

	var dsnFlag string
	flag.StringVar(&dsnFlag, "dsn", "", "PostgreSQL connection string (defaults to DATABASE_URL)")
	flag.Parse()

	dsn := strings.TrimSpace(dsnFlag)
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		exitWithError(errors.New("either -dsn or DATABASE_URL must be provided"))
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		exitWithError(fmt.Errorf("open database: %w", err))
	}
	defer db.Close()
	db.SetConnMaxLifetime(time.Minute)

	if err := db.Ping(); err != nil {
		exitWithError(fmt.Errorf("ping database: %w", err))
	}

	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			exitWithError(fmt.Errorf("apply statement %d: %w", i+1, err))
		}
	}

	fmt.Println("schema applied")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
