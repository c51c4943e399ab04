package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"fraudscore/adapters/sqlstore"
	"fraudscore/internal"
	"fraudscore/internal/migration"
)

func main() {
	driver := flag.String("driver", sqlstore.DriverPostgres, "Database driver (postgres or sqlite3)")
	timeout := flag.Duration("timeout", 30*time.Second, "Migration timeout")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: migrate [-driver postgres|sqlite3] <database_url>")
	}
	databaseURL := flag.Arg(0)

	logger := internal.NewLogger(internal.ParseLogLevel(os.Getenv("LOG_LEVEL"))).WithComponent("migrate")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Printf("Migrating %s database", *driver)
	db, err := sqlstore.Open(ctx, *driver, databaseURL, logger)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer db.Close()

	log.Printf("Schema at %s", migration.NewRunner(logger).Version())
}
