package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spboyer/qprint/internal/tasks"
	"github.com/spf13/pflag"
)

// taskValue is a pflag.Value restricted to the registered task names.
type taskValue struct {
	kind *tasks.Kind
}

func (v *taskValue) String() string {
	if v.kind == nil {
		return ""
	}
	return v.kind.String()
}

func (v *taskValue) Set(s string) error {
	k, err := tasks.Parse(s)
	if err != nil {
		return err
	}
	*v.kind = k
	return nil
}

func (v *taskValue) Type() string { return "task" }

// limitValue is an optional non-negative integer flag.
type limitValue struct {
	n   int
	set bool
}

func (v *limitValue) String() string {
	if !v.set {
		return ""
	}
	return strconv.Itoa(v.n)
}

func (v *limitValue) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return errors.New("must be a non-negative integer")
	}
	v.n, v.set = n, true
	return nil
}

func (v *limitValue) Type() string { return "int" }

// value returns the limit, or nil when the flag was not given.
func (v *limitValue) value() *int {
	if !v.set {
		return nil
	}
	n := v.n
	return &n
}

// normalizeFlagName accepts underscores in place of dashes and the
// --mmlu-style-subject spelling of --mmlu-subject.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.ReplaceAll(name, "_", "-")
	if name == "mmlu-style-subject" {
		name = "mmlu-subject"
	}
	return pflag.NormalizedName(name)
}
