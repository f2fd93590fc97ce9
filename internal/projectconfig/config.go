// Package projectconfig provides the ProjectConfig struct and loader for
// .qprint.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up from the working directory.
const FileName = ".qprint.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultBackend = "hub"

	DefaultHubEndpoint = "https://datasets-server.huggingface.co"
	DefaultTokenEnv    = "HF_TOKEN"
	DefaultPageSize    = 100
	DefaultHubTimeout  = 0

	DefaultLocalDir = "datasets"
)

// maxSearchDepth bounds how many parent directories are searched.
const maxSearchDepth = 10

// HubConfig holds settings for the datasets-server backend.
type HubConfig struct {
	Endpoint string `yaml:"endpoint,omitempty" validate:"omitempty,url"`
	TokenEnv string `yaml:"token_env,omitempty"`
	PageSize int    `yaml:"page_size,omitempty" validate:"min=1,max=100"`
	// Timeout is in seconds; 0 leaves requests without a timeout.
	Timeout int `yaml:"timeout,omitempty" validate:"min=0"`
}

// LocalConfig holds settings for the on-disk backend.
type LocalConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// LoaderConfig selects and configures the dataset loader.
type LoaderConfig struct {
	Backend string      `yaml:"backend,omitempty" validate:"oneof=hub local"`
	Hub     HubConfig   `yaml:"hub,omitempty"`
	Local   LocalConfig `yaml:"local,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .qprint.yaml.
type ProjectConfig struct {
	Loader LoaderConfig `yaml:"loader,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Loader: LoaderConfig{
			Backend: DefaultBackend,
			Hub: HubConfig{
				Endpoint: DefaultHubEndpoint,
				TokenEnv: DefaultTokenEnv,
				PageSize: DefaultPageSize,
				Timeout:  DefaultHubTimeout,
			},
			Local: LocalConfig{
				Dir: DefaultLocalDir,
			},
		},
	}
}

// Load finds .qprint.yaml by walking up from startDir, unmarshals it, and
// fills in missing fields with defaults. If no config file is found, returns
// defaults with a nil error. Real I/O errors are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	data, path, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}
	return parse(data, path)
}

// LoadFile reads the configuration at path. Unlike Load, a missing file is an
// error.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return parse(data, path)
}

func parse(data []byte, path string) (*ProjectConfig, error) {
	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg := New()
	mergeConfig(cfg, &fileCfg)

	// Relative data directories are relative to the file that names them.
	if fileCfg.Loader.Local.Dir != "" && !filepath.IsAbs(cfg.Loader.Local.Dir) {
		cfg.Loader.Local.Dir = filepath.Join(filepath.Dir(path), cfg.Loader.Local.Dir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *ProjectConfig) Validate() error {
	return validator.New().Struct(c)
}

// findConfigFile walks up from dir looking for .qprint.yaml. Returns
// os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < maxSearchDepth; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, "", os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.Loader.Backend != "" {
		dst.Loader.Backend = src.Loader.Backend
	}

	if src.Loader.Hub.Endpoint != "" {
		dst.Loader.Hub.Endpoint = src.Loader.Hub.Endpoint
	}
	if src.Loader.Hub.TokenEnv != "" {
		dst.Loader.Hub.TokenEnv = src.Loader.Hub.TokenEnv
	}
	if src.Loader.Hub.PageSize != 0 {
		dst.Loader.Hub.PageSize = src.Loader.Hub.PageSize
	}
	if src.Loader.Hub.Timeout != 0 {
		dst.Loader.Hub.Timeout = src.Loader.Hub.Timeout
	}

	if src.Loader.Local.Dir != "" {
		dst.Loader.Local.Dir = src.Loader.Local.Dir
	}
}
