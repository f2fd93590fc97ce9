package dataset

import (
	"context"
	"iter"
	"slices"
	"strings"
)

// Split is a named, ordered sequence of records.
type Split interface {
	Name() string

	// Records walks the split once, in the loader's order. Iteration stops at
	// the first error, which is yielded with a nil Record.
	Records(ctx context.Context) iter.Seq2[Record, error]
}

// Bundle is a loaded dataset: a set of named splits in a fixed order.
type Bundle interface {
	// Splits returns the split names in the loader's order.
	Splits() []string

	// Split returns the named split, or false if the dataset has no such split.
	Split(name string) (Split, bool)
}

// MemoryBundle is a Bundle backed by records held in memory.
type MemoryBundle struct {
	order  []string
	splits map[string]*MemorySplit
}

// NewMemoryBundle returns an empty bundle.
func NewMemoryBundle() *MemoryBundle {
	return &MemoryBundle{splits: make(map[string]*MemorySplit)}
}

// Add appends a split. Adding a name twice replaces the records but keeps the
// original position.
func (b *MemoryBundle) Add(name string, records []Record) *MemoryBundle {
	if _, ok := b.splits[name]; !ok {
		b.order = append(b.order, name)
	}
	b.splits[name] = NewMemorySplit(name, records)
	return b
}

func (b *MemoryBundle) Splits() []string {
	return slices.Clone(b.order)
}

func (b *MemoryBundle) Split(name string) (Split, bool) {
	s, ok := b.splits[name]
	if !ok {
		return nil, false
	}
	return s, true
}

// MemorySplit is a Split over a slice of records.
type MemorySplit struct {
	name    string
	records []Record
}

func NewMemorySplit(name string, records []Record) *MemorySplit {
	return &MemorySplit{name: name, records: records}
}

func (s *MemorySplit) Name() string { return s.name }

// Len returns the number of records in the split.
func (s *MemorySplit) Len() int { return len(s.records) }

func (s *MemorySplit) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for _, rec := range s.records {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// splitRank orders the conventional split names ahead of everything else.
var splitRank = map[string]int{
	"train":      0,
	"validation": 1,
	"dev":        2,
	"test":       3,
}

// SortSplits orders split names train, validation, dev, test, then the rest
// alphabetically. Loaders without a native order use it so that "the first
// split" is stable between runs.
func SortSplits(names []string) {
	slices.SortStableFunc(names, func(a, b string) int {
		ra, aok := splitRank[a]
		rb, bok := splitRank[b]
		switch {
		case aok && bok:
			return ra - rb
		case aok:
			return -1
		case bok:
			return 1
		}
		return strings.Compare(a, b)
	})
}
