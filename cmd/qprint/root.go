package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spboyer/qprint/internal/dataset"
	"github.com/spboyer/qprint/internal/printer"
	"github.com/spboyer/qprint/internal/projectconfig"
	"github.com/spboyer/qprint/internal/spinner"
	"github.com/spboyer/qprint/internal/tasks"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	task    tasks.Kind
	split   string
	limit   limitValue
	subject string

	backend    string
	dataDir    string
	endpoint   string
	configPath string
	envFile    string
	debug      bool
}

func newRootCommand() *cobra.Command {
	o := &rootOptions{task: tasks.Default}

	cmd := &cobra.Command{
		Use:   "qprint",
		Short: "qprint - print TriviaQA, NQ-Open or MMLU queries",
		Long: `qprint loads a question-answering dataset and prints every record
formatted as the prompt used for that task.

Datasets come from the Hugging Face datasets server (--loader hub) or from a
local directory of JSONL, JSON or CSV split files (--loader local). Defaults
can be set in a .qprint.yaml file.`,
		Version:       version,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}

	cmd.SetGlobalNormalizationFunc(normalizeFlagName)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	flags := cmd.Flags()
	flags.Var(&taskValue{kind: &o.task}, "task", "Task name: "+strings.Join(tasks.Names(), " | "))
	flags.StringVar(&o.split, "split", "", "Dataset split (default: the task's default). Common: train|validation|test|dev")
	flags.Var(&o.limit, "limit", "Optional limit on number of records to print")
	flags.StringVar(&o.subject, "mmlu-subject", "", "For mmlu: a specific subject (e.g. abstract_algebra) instead of 'all'")

	flags.StringVar(&o.backend, "loader", "", "Dataset loader: hub | local (default from .qprint.yaml, else hub)")
	flags.StringVar(&o.dataDir, "data-dir", "", "Directory of datasets for the local loader")
	flags.StringVar(&o.endpoint, "endpoint", "", "Datasets server URL for the hub loader")
	flags.StringVar(&o.configPath, "config", "", "Path to a .qprint.yaml file (default: search upward from the working directory)")
	flags.StringVar(&o.envFile, "env-file", "", "Load environment variables (such as the hub token) from this file (default: .env if present)")
	flags.BoolVar(&o.debug, "debug", false, "Enable debug logging")

	return cmd
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &UsageError{Err: err}
	}
	return nil
}

func (o *rootOptions) run(cmd *cobra.Command) error {
	if o.debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := loadEnvFile(o.envFile); err != nil {
		return err
	}

	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	backendOpts, err := o.backendOptions(cmd, cfg)
	if err != nil {
		return err
	}
	slog.Debug("Opening dataset loader", "backend", backendOpts.Kind, "endpoint", backendOpts.Endpoint, "dir", backendOpts.Dir)

	backend, err := dataset.Open(backendOpts)
	if err != nil {
		return err
	}

	opts := printer.Options{
		Task:    o.task,
		Split:   o.split,
		Limit:   o.limit.value(),
		Subject: o.subject,
	}
	if !o.debug {
		def := tasks.Lookup(o.task).WithSubject(o.subject)
		opts.Loaded = spinner.Start(cmd.ErrOrStderr(), "Loading "+def.Dataset+"...")
	}
	return printer.Run(cmd.Context(), backend, opts, cmd.OutOrStdout())
}

func (o *rootOptions) loadConfig() (*projectconfig.ProjectConfig, error) {
	if o.configPath != "" {
		return projectconfig.LoadFile(o.configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return projectconfig.Load(wd)
}

// backendOptions merges the project configuration with any loader flags
// given on the command line.
func (o *rootOptions) backendOptions(cmd *cobra.Command, cfg *projectconfig.ProjectConfig) (dataset.BackendOptions, error) {
	lc := cfg.Loader
	if cmd.Flags().Changed("loader") {
		switch o.backend {
		case dataset.BackendHub, dataset.BackendLocal:
			lc.Backend = o.backend
		default:
			return dataset.BackendOptions{}, &UsageError{Err: fmt.Errorf("invalid loader %q (choose from hub, local)", o.backend)}
		}
	}
	if cmd.Flags().Changed("data-dir") {
		lc.Local.Dir = o.dataDir
	}
	if cmd.Flags().Changed("endpoint") {
		lc.Hub.Endpoint = o.endpoint
	}

	opts := dataset.BackendOptions{
		Kind:     lc.Backend,
		Endpoint: lc.Hub.Endpoint,
		PageSize: lc.Hub.PageSize,
		Timeout:  time.Duration(lc.Hub.Timeout) * time.Second,
		Dir:      lc.Local.Dir,
	}
	if lc.Hub.TokenEnv != "" {
		opts.Token = os.Getenv(lc.Hub.TokenEnv)
	}
	return opts, nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. With no path, a missing .env is not an error.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

func execute(ctx context.Context, args []string) error {
	rootCmd := newRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
