package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sparkyed/sparky-engine/internal/catalog"
	"github.com/sparkyed/sparky-engine/internal/oracle"
	"github.com/sparkyed/sparky-engine/internal/orchestrator"
	"github.com/sparkyed/sparky-engine/internal/session"
	"github.com/sparkyed/sparky-engine/internal/validate"
)

// #region main
func main() {
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
	sessionID := uuid.NewString()

	fmt.Println("SPARKY tutor ready.")
	fmt.Printf("  DB: %s | Content: %s | Oracle: %s | Judge: %s\n", dbPath, contentDir, oracleURL, judgeMode)
	fmt.Printf("  Session: %s\n", sessionID)
	fmt.Println("Say hi (or 'quit' to exit, 'reset' to start over):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}
		if input == "reset" {
			if err := engine.ResetSession(sessionID); err != nil {
				log.Printf("reset error: %v", err)
			} else {
				fmt.Println("Session reset. Say hi!")
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		rep, err := engine.HandleTurn(ctx, sessionID, input)
		cancel()
		if err != nil {
			log.Printf("turn error: %v", err)
			continue
		}

		fmt.Printf("\n%s\n", rep.Text)
		if len(rep.Choices) > 0 {
			fmt.Printf("  [choices: %s]\n", strings.Join(rep.Choices, " | "))
		}
		fmt.Println()
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
