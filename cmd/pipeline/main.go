package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"retrofit_valuation/pkg/core/engine"
	"retrofit_valuation/pkg/core/noiregistry"
	"retrofit_valuation/pkg/core/report"
	"retrofit_valuation/pkg/core/stages"
	"retrofit_valuation/pkg/core/store"
	"retrofit_valuation/pkg/core/unitmix"
	"retrofit_valuation/pkg/models"
)

// BuildingFile is the JSON document the runner takes as input, the same
// shape the create endpoint accepts.
type BuildingFile struct {
	Building models.BuildingInfo `json:"building"`
	UnitMix  *models.UnitMix     `json:"unit_mix,omitempty"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
	}

	sqlitePath := flag.String("sqlite", "", "persist the run to this SQLite file instead of memory")
	configPath := flag.String("config", "config/models.yaml", "model configuration for unit-mix inference")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("Usage: pipeline [-sqlite file] [-config models.yaml] <building.json>")
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to read building file: %v", err)
	}
	var input BuildingFile
	if err := json.Unmarshal(data, &input); err != nil {
		log.Fatalf("Failed to parse building file: %v", err)
	}
	if input.Building.Name == "" || input.Building.TotalSqft <= 0 {
		log.Fatal("Building file must set building.name and a positive building.total_sqft")
	}

	fmt.Println("🚀 Retrofit Valuation Pipeline Starting...")

	var calcStore store.CalculationStore
	if *sqlitePath != "" {
		s, err := store.NewSQLiteStore(*sqlitePath)
		if err != nil {
			log.Fatalf("Failed to open SQLite store: %v", err)
		}
		defer s.Close()
		calcStore = s
	} else {
		calcStore = store.NewMemoryStore()
	}

	ctx := context.Background()

	// 1. Resolve the unit mix
	mix, err := resolveMix(ctx, input, *configPath)
	if err != nil {
		log.Fatalf("Failed to resolve unit mix: %v", err)
	}
	fmt.Printf("🏢 %s: %d units (%s)\n", input.Building.Name, mix.TotalUnits, mix.Source)

	// 2. Run all six stages
	registry, err := stages.NewRegistry(calcStore, noiregistry.NewClient(os.Getenv("NOI_REGISTRY_URL")))
	if err != nil {
		log.Fatalf("Failed to build stage registry: %v", err)
	}
	eng := engine.New(registry, calcStore)

	record := &models.CalculationRecord{
		ID:        uuid.NewString(),
		Building:  input.Building,
		UnitMix:   mix,
		CreatedAt: time.Now().UTC(),
	}
	if err := calcStore.Create(ctx, record); err != nil {
		log.Fatalf("Failed to create calculation: %v", err)
	}
	if err := eng.ExecuteAllServices(ctx, record.ID); err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	// 3. Render the report
	computed, err := calcStore.Get(ctx, record.ID)
	if err != nil {
		log.Fatalf("Failed to reload calculation: %v", err)
	}
	md, err := report.Render(computed)
	if err != nil {
		log.Fatalf("Failed to render report: %v", err)
	}
	fmt.Println()
	fmt.Println(md)

	if *sqlitePath != "" {
		fmt.Printf("✅ Saved calculation %s to %s\n", record.ID, *sqlitePath)
	}
}

// resolveMix uses the caller's mix when the file carries one, otherwise
// infers it (LLM when configured, heuristic fallback).
func resolveMix(ctx context.Context, input BuildingFile, configPath string) (models.UnitMix, error) {
	if input.UnitMix != nil {
		mix := *input.UnitMix
		counted := mix.Studio + mix.OneBedroom + mix.TwoBedroom + mix.ThreeBedroom
		if counted > 0 || mix.TotalUnits > 0 {
			if mix.TotalUnits == 0 {
				mix.TotalUnits = counted
			}
			if mix.Source == "" {
				mix.Source = "manual"
			}
			return mix, nil
		}
	}
	mixConfig, err := unitmix.LoadConfig(configPath)
	if err != nil {
		return models.UnitMix{}, err
	}
	return unitmix.NewService(mixConfig).InferUnitMix(ctx, input.Building)
}
