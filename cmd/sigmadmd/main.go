// Command sigmadmd is the data model review service.
// It serves the GitHub webhook endpoint, the run history endpoint, and a
// health check.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/twells89/sigma-data-model-tool/internal/github"
	"github.com/twells89/sigma-data-model-tool/internal/history"
	"github.com/twells89/sigma-data-model-tool/internal/platform"
	"github.com/twells89/sigma-data-model-tool/internal/reporter"
	"github.com/twells89/sigma-data-model-tool/internal/webhook"
)

type config struct {
	Port          string
	DatabaseURL   string
	WebhookSecret string
	GitHubAppID   string
	GitHubKey     string
}

func loadConfig() config {
	return config{
		Port:          envOrDefault("PORT", "8080"),
		DatabaseURL:   envOrDefault("DATABASE_URL", "postgres://localhost:5432/sigmadm?sslmode=disable"),
		WebhookSecret: os.Getenv("GITHUB_WEBHOOK_SECRET"),
		GitHubAppID:   os.Getenv("GITHUB_APP_ID"),
		GitHubKey:     os.Getenv("GITHUB_PRIVATE_KEY"),
	}
}

func main() {
	cfg := loadConfig()

	appID, err := strconv.ParseInt(cfg.GitHubAppID, 10, 64)
	if err != nil {
		log.Fatalf("invalid GITHUB_APP_ID %q: %v", cfg.GitHubAppID, err)
	}

	gh, err := github.NewAppClient(appID, []byte(cfg.GitHubKey))
	if err != nil {
		log.Fatalf("github app client: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}
	if err := platform.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	runs := history.NewService(db)
	reporterSvc := reporter.NewService(gh, runs)
	webhookHandler := webhook.NewHandler([]byte(cfg.WebhookSecret), reporterSvc)

	mux := http.NewServeMux()
	mux.Handle("POST /v1/webhooks/github", webhookHandler)
	mux.HandleFunc("GET /v1/runs", runsHandler(runs))
	mux.HandleFunc("GET /healthz", healthHandler(db))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("starting sigmadmd on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func runsHandler(runs *history.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 100 {
				http.Error(w, "limit must be between 1 and 100", http.StatusBadRequest)
				return
			}
			limit = n
		}

		out, err := runs.RecentRuns(r.Context(), limit)
		if err != nil {
			log.Printf("list runs: %v", err)
			http.Error(w, "listing runs failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"runs": out})
	}
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
