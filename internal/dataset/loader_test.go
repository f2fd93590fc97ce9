package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(BackendOptions{Kind: BackendHub, Endpoint: DefaultHubEndpoint})
	require.NoError(t, err)
	assert.Equal(t, BackendHub, b.Name())
	assert.IsType(t, &HubLoader{}, b)

	b, err = NewBackend(BackendOptions{Kind: BackendLocal, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, b.Name())
	assert.IsType(t, &LocalLoader{}, b)

	_, err = NewBackend(BackendOptions{Kind: "s3"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoaderUnavailable)
}

func TestOpen(t *testing.T) {
	b, err := Open(BackendOptions{Kind: BackendLocal, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, b)

	_, err = Open(BackendOptions{Kind: BackendLocal, Dir: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoaderUnavailable)
	assert.Contains(t, err.Error(), "dataset loader unavailable: local: data directory")

	_, err = Open(BackendOptions{Kind: BackendHub})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoaderUnavailable)
	assert.Contains(t, err.Error(), "no endpoint configured")
}

func TestHubPageSizeClamp(t *testing.T) {
	assert.Equal(t, MaxHubPageSize, NewHubLoader(DefaultHubEndpoint, "", 0, 0).pageSize)
	assert.Equal(t, MaxHubPageSize, NewHubLoader(DefaultHubEndpoint, "", 1000, 0).pageSize)
	assert.Equal(t, 10, NewHubLoader(DefaultHubEndpoint, "", 10, 0).pageSize)
}
