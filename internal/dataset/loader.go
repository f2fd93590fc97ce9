// Package dataset loads question-answering datasets as bundles of named
// splits. Two backends exist: the Hugging Face datasets-server REST API and a
// local directory of JSONL, JSON or CSV files.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Loader fetches a dataset by identifier and configuration variant. An empty
// config asks for the dataset's default configuration.
type Loader interface {
	Load(ctx context.Context, id, config string) (Bundle, error)
}

// Backend is a Loader that can report whether it is usable at all.
type Backend interface {
	Loader

	// Name identifies the backend in messages.
	Name() string

	// Available reports why the backend cannot be used, or nil if it can.
	Available() error
}

// ErrLoaderUnavailable is returned by Open when the selected backend cannot be
// used, before any dataset is requested.
var ErrLoaderUnavailable = errors.New("dataset loader unavailable")

// Backend names.
const (
	BackendHub   = "hub"
	BackendLocal = "local"
)

// BackendOptions selects and configures a backend.
type BackendOptions struct {
	Kind string

	// Hub settings.
	Endpoint string
	Token    string
	PageSize int
	Timeout  time.Duration

	// Local settings.
	Dir string
}

// NewBackend constructs the backend named by opts.Kind without checking it.
func NewBackend(opts BackendOptions) (Backend, error) {
	switch opts.Kind {
	case BackendHub:
		return NewHubLoader(opts.Endpoint, opts.Token, opts.PageSize, opts.Timeout), nil
	case BackendLocal:
		return NewLocalLoader(opts.Dir), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrLoaderUnavailable, opts.Kind)
	}
}

// Open constructs the backend named by opts.Kind and checks that it is
// available. Any failure wraps ErrLoaderUnavailable.
func Open(opts BackendOptions) (Backend, error) {
	b, err := NewBackend(opts)
	if err != nil {
		return nil, err
	}
	if err := b.Available(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoaderUnavailable, b.Name(), err)
	}
	return b, nil
}
