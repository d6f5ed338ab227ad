package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/cli"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(ingestor.ExitPanic)
		}
	}()

	if os.Getenv("INGESTOR_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(ingestor.ExitCodeForError(err))
	}
}
