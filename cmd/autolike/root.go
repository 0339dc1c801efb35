package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"autolike/internal/di"
	"autolike/internal/infrastructure/env"
)

const defaultStartURL = "https://www.youtube.com"

type rootFlags struct {
	logLevel  string
	db        string
	domConfig string
	headless  bool
	verbose   bool
}

func execute() error {
	envService := env.NewEnvService()
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "autolike",
		Short:         "Likes YouTube videos from channels you trust",
		Long:          "autolike drives a Chromium tab, watches which video is playing and likes, dislikes or asks based on your channel lists.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "ERROR, WARN, INFO or DEBUG (default: stored config)")
	root.PersistentFlags().StringVar(&flags.db, "db", "", "path of the sqlite store")
	root.PersistentFlags().StringVar(&flags.domConfig, "dom-config", "", "YAML file overriding timings and default selectors")
	root.PersistentFlags().BoolVar(&flags.headless, "headless", envService.GetBool("BROWSER_HEADLESS", false), "run the browser without a window")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "mirror the log on stderr")

	watch := watchCommand(envService, flags)
	root.AddCommand(
		watch,
		calibrateCommand(envService, flags),
		diagnoseCommand(envService, flags),
		snapshotCommand(envService, flags),
		locateCommand(),
		statsCommand(envService, flags),
	)
	root.RunE = watch.RunE

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}

func (f *rootFlags) containerConfig(e *env.EnvService, task string, offline bool) di.Config {
	cfg := di.ConfigFromEnv(e)
	cfg.Task = task
	cfg.Offline = offline
	cfg.BrowserHeadless = f.headless
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.db != "" {
		cfg.DBPath = f.db
	}
	if f.domConfig != "" {
		cfg.DOMConfigFile = f.domConfig
	}
	if f.verbose {
		cfg.Console = os.Stderr
	}
	return cfg
}

func newContainer(cmd *cobra.Command, e *env.EnvService, f *rootFlags, offline bool) (*di.Container, error) {
	c, err := di.NewContainer(cmd.Context(), f.containerConfig(e, cmd.Name(), offline))
	if err != nil {
		return nil, fmt.Errorf("initialisation failed: %w", err)
	}
	for _, file := range e.Loaded() {
		c.Logger.Debug("Env file loaded", "file", file)
	}
	for _, note := range e.Notes() {
		c.Logger.Debug("Env file skipped", "note", note)
	}
	return c, nil
}

func startURL(e *env.EnvService, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return e.GetDefault("START_URL", defaultStartURL)
}
