// Command scenario-runner runs the reference ward scenarios and exits
// non-zero if any of them misbehaves.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/MRamiBalles/ecshospital/internal/platform/logger"
	"github.com/MRamiBalles/ecshospital/test"
)

func main() {
	level := flag.String("log-level", "warn", "engine log level")
	flag.Parse()

	fmt.Println("HOSPITAL SCENARIO SUITE")
	fmt.Println(strings.Repeat("=", 60))

	log := logger.New(logger.Options{Level: *level, Format: "console", Out: os.Stderr})
	results, err := test.RunAll(context.Background(), test.Standard(), log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "suite aborted:", err)
		os.Exit(1)
	}

	passed, failed := 0, 0
	for _, r := range results {
		mark := "PASS"
		if r.Passed {
			passed++
		} else {
			failed++
			mark = "FAIL"
		}
		fmt.Printf("  [%s] %-20s %-10s after %d days", mark, r.Name, r.Outcome, r.Days)
		if r.Reason != "" {
			fmt.Printf(": %s", r.Reason)
		}
		fmt.Println()
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  passed: %d\n", passed)
	fmt.Printf("  failed: %d\n", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
