package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/sparkyed/sparky-engine/internal/catalog"
	"github.com/sparkyed/sparky-engine/internal/httpapi"
	"github.com/sparkyed/sparky-engine/internal/oracle"
	"github.com/sparkyed/sparky-engine/internal/orchestrator"
	"github.com/sparkyed/sparky-engine/internal/session"
	"github.com/sparkyed/sparky-engine/internal/validate"
)

// #region main
func main() {
	addr := envOr("SPARKY_ADDR", ":8080")
	dbPath := envOr("SPARKY_DB", "sparky_sessions.db")
	contentDir := envOr("SPARKY_CONTENT", "content")
	oracleURL := envOr("SPARKY_ORACLE_URL", "http://localhost:8000")
	judgeMode := envOr("SPARKY_JUDGE_MODE", "oracle")

	cat, err := catalog.Load(contentDir)
	if err != nil {
		log.Fatalf("failed to load content: %v", err)
	}

	store, err := session.NewStore(dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	client, err := oracle.NewClient(oracleURL)
	if err != nil {
		log.Fatalf("failed to configure oracle client: %v", err)
	}

	var delegate validate.Delegate
	switch judgeMode {
	case "rule":
		delegate = validate.NewRuleDelegate()
	case "oracle":
		delegate = validate.NewOracleDelegate(client)
	default:
		log.Fatalf("unknown SPARKY_JUDGE_MODE %q (want rule or oracle)", judgeMode)
	}

	engine := orchestrator.NewEngine(cat, client, delegate, store)

	r := gin.Default()
	httpapi.NewHandler(engine).Register(r)

	log.Printf("[SERVER] listening on %s (content=%s oracle=%s judge=%s)", addr, contentDir, oracleURL, judgeMode)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
