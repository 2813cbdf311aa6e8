// Command migrate applies the embedded SQL migrations, in filename order,
// against the database named by DATABASE_URL. Each file runs in its own
// transaction; the statements are written to be idempotent (CREATE TABLE IF
// NOT EXISTS) so re-running the command is safe.
package main

import (
	"context"
	"io/fs"
	"log"
	"sort"

	"caterer-billing/internal/db"
	"caterer-billing/migrations"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	files, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	sort.Strings(files)

	for _, name := range files {
		sql, err := fs.ReadFile(migrations.Files, name)
		if err != nil {
			log.Fatalf("read %s: %v", name, err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			log.Fatalf("begin %s: %v", name, err)
		}
		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			_ = tx.Rollback(ctx)
			log.Fatalf("apply %s: %v", name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			log.Fatalf("commit %s: %v", name, err)
		}
		log.Printf("applied %s", name)
	}

	log.Printf("migrations complete (%d files)", len(files))
}
