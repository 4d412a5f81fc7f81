package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"retrofit_valuation/pkg/api/calculations"
	"retrofit_valuation/pkg/api/config"
	"retrofit_valuation/pkg/core/engine"
	"retrofit_valuation/pkg/core/noiregistry"
	"retrofit_valuation/pkg/core/stages"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/core/unitmix"
)

func main() {
	// Load environment variables
	godotenv.Load()

	mixConfig, err := unitmix.LoadConfig("config/models.yaml")
	if err != nil {
		fmt.Printf("[WARNING] Failed to load model config: %v\n", err)
		fmt.Println("  Falling back to heuristic unit-mix inference")
	}

	calcStore, cleanup, err := openStore(context.Background())
	if err != nil {
		fmt.Printf("[FATAL] Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	noiClient := noiregistry.NewClient(os.Getenv("NOI_REGISTRY_URL"))

	registry, err := stages.NewRegistry(calcStore, noiClient)
	if err != nil {
		fmt.Printf("[FATAL] Failed to build stage registry: %v\n", err)
		os.Exit(1)
	}
	eng := engine.New(registry, calcStore)
	mixService := unitmix.NewService(mixConfig)

	// Calculation endpoints
	handler := calculations.NewHandler(eng, calcStore, mixService)
	http.HandleFunc("/api/calculations", handler.HandleCreate)
	http.HandleFunc("/api/calculations/execute", handler.HandleExecute)
	http.HandleFunc("/api/calculations/status", handler.HandleStatus)
	http.HandleFunc("/api/calculations/reset", handler.HandleReset)
	http.HandleFunc("/api/calculations/get", handler.HandleGet)
	http.HandleFunc("/api/calculations/list", handler.HandleList)
	http.HandleFunc("/api/calculations/summary", handler.HandleSummary)

	// Provider selection endpoints
	configHandler := config.NewHandler(mixService)
	http.HandleFunc("/api/config", configHandler.HandleConfig)
	http.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	// Prometheus metrics
	http.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - POST /api/calculations")
	fmt.Println("  - POST /api/calculations/execute")
	fmt.Println("  - GET  /api/calculations/status")
	fmt.Println("  - POST /api/calculations/reset")
	fmt.Println("  - GET  /api/calculations/get")
	fmt.Println("  - GET  /api/calculations/list")
	fmt.Println("  - GET  /api/calculations/summary")
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")
	fmt.Println("  - GET  /metrics")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}

// openStore picks the record store from STORE_BACKEND: "postgres",
// "sqlite", or "memory". Unset, it is postgres when DATABASE_URL exists
// and memory otherwise.
func openStore(ctx context.Context) (store.CalculationStore, func(), error) {
	backend := os.Getenv("STORE_BACKEND")
	if backend == "" {
		if os.Getenv("DATABASE_URL") != "" {
			backend = "postgres"
		} else {
			backend = "memory"
		}
	}

	switch backend {
	case "postgres":
		if err := store.InitDB(ctx); err != nil {
			return nil, nil, err
		}
		fmt.Println("[STORE] Using Postgres backend")
		return store.NewPostgresStore(store.GetPool()), store.Close, nil
	case "sqlite":
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "calculations.db"
		}
		s, err := store.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		fmt.Printf("[STORE] Using SQLite backend at %s\n", path)
		return s, func() { s.Close() }, nil
	case "memory":
		fmt.Println("[STORE] Using in-memory backend (records are not persisted)")
		return store.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}
}
