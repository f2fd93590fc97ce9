// Package printer loads a task's dataset and writes one formatted prompt per
// record.
package printer

//go:generate go tool mockgen -destination=mock_loader_test.go -package=printer github.com/spboyer/qprint/internal/dataset Loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/spboyer/qprint/internal/dataset"
	"github.com/spboyer/qprint/internal/tasks"
)

// noConfig is printed in the header when the task uses the dataset's
// default configuration.
const noConfig = "None"

// ErrNoSplits is returned when a loaded dataset contains no splits at all.
var ErrNoSplits = errors.New("dataset has no splits")

// Options are the per-run choices made on the command line.
type Options struct {
	Task tasks.Kind

	// Split overrides the task's default split when non-empty.
	Split string

	// Limit caps the number of printed records. Nil prints the whole split.
	Limit *int

	// Subject replaces the configuration variant of the mmlu task.
	Subject string

	// Loaded, when set, is called once: after the first record of the split
	// has been read, or when loading fails.
	Loaded func()
}

// Run loads the dataset for opts.Task through loader, picks the split and
// writes a header line followed by "{index}: {prompt}" for each record.
//
// Nothing is written until the split's first record has been read, so a
// dataset or split that cannot be read fails with empty output. An error
// further into the split stops printing where it occurred.
func Run(ctx context.Context, loader dataset.Loader, opts Options, out io.Writer) error {
	def := tasks.Lookup(opts.Task).WithSubject(opts.Subject)

	requested := opts.Split
	if requested == "" {
		requested = def.DefaultSplit
	}

	loaded := func() {}
	if opts.Loaded != nil {
		loaded = sync.OnceFunc(opts.Loaded)
	}
	defer loaded()

	slog.Debug("Loading dataset", "task", opts.Task, "dataset", def.Dataset, "config", def.Config, "split", requested)

	bundle, err := loader.Load(ctx, def.Dataset, def.Config)
	if err != nil {
		return fmt.Errorf("loading dataset %s: %w", def.Dataset, err)
	}

	split, fellBack, err := ResolveSplit(bundle, requested)
	if err != nil {
		return fmt.Errorf("loading dataset %s: %w", def.Dataset, err)
	}

	next, stop := iter.Pull2(split.Records(ctx))
	defer stop()

	rec, err, ok := next()
	if ok && err != nil {
		return fmt.Errorf("loading dataset %s: reading split %s: %w", def.Dataset, split.Name(), err)
	}
	loaded()

	if fellBack {
		fmt.Fprintf(out, "Split '%s' not available. Available: [%s]. Using first available.\n",
			requested, strings.Join(bundle.Splits(), ", "))
	}

	config := def.Config
	if config == "" {
		config = noConfig
	}
	fmt.Fprintf(out, "# Task: %s | Dataset: %s | Config: %s | Split: %s\n", opts.Task, def.Dataset, config, split.Name())

	printed := 0
	wantMore := func() bool { return opts.Limit == nil || printed < *opts.Limit }
	for ok && wantMore() {
		if err != nil {
			return fmt.Errorf("reading split %s: %w", split.Name(), err)
		}
		fmt.Fprintf(out, "%d: %s\n", printed, tasks.Format(opts.Task, rec))
		printed++
		if !wantMore() {
			break
		}
		rec, err, ok = next()
	}

	slog.Debug("Printed records", "count", printed)
	return nil
}

// ResolveSplit returns the requested split if the bundle has it. Otherwise it
// returns the bundle's first split and reports the fallback.
func ResolveSplit(bundle dataset.Bundle, requested string) (split dataset.Split, fellBack bool, err error) {
	if requested != "" {
		if s, ok := bundle.Split(requested); ok {
			return s, false, nil
		}
	}

	names := bundle.Splits()
	if len(names) == 0 {
		return nil, false, ErrNoSplits
	}
	s, ok := bundle.Split(names[0])
	if !ok {
		return nil, false, fmt.Errorf("split %q listed but not loadable", names[0])
	}
	return s, true, nil
}
