package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sparkyed/sparky-engine/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("v", false, "print every reply, not just mismatches")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}
	os.Exit(run(*fixturePath, *verbose))
}

func run(path string, verbose bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results, summary, err := replay.Run(context.Background(), f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}
	fmt.Printf("%-6s| %-18s| %s\n", "Turn", "Step", "Result")
	fmt.Printf("%-6s+%-19s+%s\n", "------", "-------------------", "--------")
	for _, r := range results {
		status := "OK"
		if !r.Passed() {
			status = "FAIL"
		}
		fmt.Printf("%-6d| %-18s| %s\n", r.Index, r.Step, status)
		if verbose || !r.Passed() {
			fmt.Printf("       child: %q\n", r.Input)
			fmt.Printf("       agent: %q\n", r.Reply)
		}
		for _, m := range r.Mismatches {
			fmt.Printf("       ! %s\n", m)
		}
	}

	fmt.Printf("\nSummary: %d turns, %d pass, %d fail, final step %s\n",
		summary.TotalTurns, summary.Passed, summary.Failed, summary.FinalStep)

	if summary.Failed > 0 {
		return 1
	}
	return 0
}

// #endregion main
