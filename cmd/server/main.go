package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "caterer-billing/internal/adapters/web"
	"caterer-billing/internal/app"
	"caterer-billing/internal/core"
	"caterer-billing/internal/db"

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

	billingService := core.NewBillingService(pool)
	catererService := core.NewCatererService(pool)
	reminderService := core.NewReminderService(pool)
	syncService := core.NewSyncService(pool)

	svc := app.NewAppService(billingService, catererService, reminderService, syncService, nil)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
