package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"scenario_forecast/pkg/api/analyze"
	"scenario_forecast/pkg/api/config"
	"scenario_forecast/pkg/core/agent"
	"scenario_forecast/pkg/core/narrative"
	"scenario_forecast/pkg/core/prompt"
	"scenario_forecast/pkg/core/store"

	"github.com/joho/godotenv"
)

const defaultCacheTTL = 24 * time.Hour

func main() {
	// Load environment variables
	godotenv.Load()

	// Prompt overrides (relative to working directory or executable)
	resourcesPath := "resources"
	if _, err := os.Stat(resourcesPath); os.IsNotExist(err) {
		exePath, _ := os.Executable()
		resourcesPath = filepath.Join(filepath.Dir(exePath), "resources")
	}
	if err := prompt.Get().LoadFromDirectory(resourcesPath); err != nil {
		fmt.Printf("[WARNING] Failed to load prompt library: %v\n", err)
		fmt.Println("  Falling back to built-in prompts")
	} else {
		fmt.Printf("[PROMPT] Loaded %d prompts from %s\n", prompt.Get().Count(), resourcesPath)
	}

	agentCfg, err := agent.LoadConfig("config/models.yaml")
	if err != nil {
		fmt.Printf("[WARNING] %v, using defaults\n", err)
	}
	agentMgr := agent.NewManager(agentCfg)

	cache := newNarrativeCache()
	defer store.Close()

	service := narrative.NewService(agentMgr, prompt.Get(), cache)

	analyzeHandler := analyze.NewHandler(service, agentMgr)
	http.HandleFunc("/health", analyzeHandler.HandleHealth)
	http.HandleFunc("/analyze", analyzeHandler.HandleAnalyze)

	configHandler := config.NewHandler(agentMgr)
	http.HandleFunc("/api/config", configHandler.HandleConfig)
	http.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - GET  /health")
	fmt.Println("  - POST /analyze")
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")
	fmt.Printf("  active provider: %s\n", agentMgr.GetActiveProvider())

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}

// newNarrativeCache uses Postgres when DATABASE_URL is reachable and the
// file cache otherwise. NARRATIVE_CACHE=off disables caching entirely.
func newNarrativeCache() *store.NarrativeCache {
	if os.Getenv("NARRATIVE_CACHE") == "off" {
		fmt.Println("[CACHE] Narrative cache disabled")
		return nil
	}

	ttl := defaultCacheTTL
	if raw := os.Getenv("NARRATIVE_CACHE_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			fmt.Printf("[WARNING] Invalid NARRATIVE_CACHE_TTL %q: %v\n", raw, err)
		} else {
			ttl = d
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Database unavailable, using file cache: %v\n", err)
		}
	}

	cache := store.NewNarrativeCache(store.GetPool(), "", ttl)
	if store.GetPool() != nil {
		if err := cache.EnsureSchema(ctx); err != nil {
			fmt.Printf("[WARNING] Failed to create narrative_cache table: %v\n", err)
		} else {
			fmt.Println("[CACHE] Narrative cache backed by Postgres")
		}
	}
	return cache
}
