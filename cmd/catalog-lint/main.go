package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sparkyed/sparky-engine/internal/catalog"
)

// #region main

// catalog-lint validates a content directory without starting the tutor.
// Exit 0 means every topic and story is servable.
func main() {
	dir := flag.String("content", envOr("SPARKY_CONTENT", "content"), "content directory to lint")
	flag.Parse()

	cat, err := catalog.Load(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	topics := cat.Topics()
	stories := 0
	for _, t := range topics {
		stories += len(cat.StoriesForTopic(t.ID))
	}
	fmt.Printf("ok: %d topics, %d stories\n", len(topics), stories)
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
