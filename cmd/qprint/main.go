package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

// Exit codes for different failure modes
const (
	ExitSuccess = 0 // Prompts printed
	ExitFailure = 1 // Loader unavailable or dataset failed to load
	ExitUsage   = 2 // Invalid command-line options
)

// UsageError indicates invalid command-line input. It is reported with a
// pointer to --help and exits with ExitUsage.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := execute(ctx, os.Args[1:])
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := exitCode(err)
		if code == ExitUsage {
			fmt.Fprintln(os.Stderr, "Run 'qprint --help' for usage.")
		}
		os.Exit(code)
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsage
	}
	return ExitFailure
}
