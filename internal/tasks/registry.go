// Package tasks holds the fixed set of supported tasks: which dataset each one
// reads and how a record of that dataset is turned into a prompt.
package tasks

import (
	"fmt"
	"strings"
)

// Kind identifies a supported task.
type Kind int

const (
	TriviaQA Kind = iota
	NQOpen
	MMLU
)

// Definition describes where a task's records come from.
type Definition struct {
	Kind Kind

	// Dataset is the identifier handed to the dataset loader.
	Dataset string

	// Config is the dataset configuration variant. Empty means the loader's
	// default configuration.
	Config string

	// DefaultSplit is used when no split is requested explicitly.
	DefaultSplit string
}

// registry is ordered by Kind; Names and Lookup index into it.
var registry = []struct {
	name string
	def  Definition
}{
	{"triviaqa", Definition{Kind: TriviaQA, Dataset: "trivia_qa", Config: "rc.web.nocontext", DefaultSplit: "train"}},
	{"nq_open", Definition{Kind: NQOpen, Dataset: "nq_open", Config: "", DefaultSplit: "train"}},
	{"mmlu", Definition{Kind: MMLU, Dataset: "cais/mmlu", Config: "all", DefaultSplit: "test"}},
}

// Default is the task used when none is requested.
const Default = TriviaQA

// Names returns the task names in registry order.
func Names() []string {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.name
	}
	return names
}

// Parse converts a task name into its Kind.
func Parse(name string) (Kind, error) {
	for _, e := range registry {
		if e.name == name {
			return e.def.Kind, nil
		}
	}
	return 0, fmt.Errorf("invalid task %q (choose from %s)", name, strings.Join(Names(), ", "))
}

// String returns the task name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(registry) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return registry[k].name
}

// Lookup returns the definition for k. Kinds only come from Parse or the
// package constants, so every valid Kind has an entry.
func Lookup(k Kind) Definition {
	return registry[k].def
}

// WithSubject returns def with its configuration variant replaced by subject.
// Only MMLU honours a subject; other tasks and an empty subject leave def as is.
func (def Definition) WithSubject(subject string) Definition {
	if def.Kind == MMLU && subject != "" {
		def.Config = subject
	}
	return def
}
