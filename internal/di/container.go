package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"autolike/internal/domain/entity"
	"autolike/internal/domain/ports"
	"autolike/internal/domain/resolver"
	"autolike/internal/infrastructure/browser/rod"
	"autolike/internal/infrastructure/config"
	"autolike/internal/infrastructure/env"
	"autolike/internal/infrastructure/llm/suggest"
	"autolike/internal/infrastructure/logger"
	"autolike/internal/infrastructure/storage/sqlite"
	"autolike/internal/infrastructure/userinteraction"
	"autolike/internal/usecase/calibration"
	"autolike/internal/usecase/diagnostic"
	"autolike/internal/usecase/orchestrator"
)

const defaultDBPath = "data/autolike.db"

type Container struct {
	Logger ports.Logger
	DOM    entity.DOMConfig
	Store  *sqlite.Store
	UI     *userinteraction.ConsoleUserInteraction

	// Set only when the container owns a browser.
	Browser      *rod.BrowserAdapter
	Resolver     *resolver.Resolver
	Calibration  *calibration.UseCase
	Diagnostic   *diagnostic.UseCase
	Orchestrator *orchestrator.UseCase
}

type Config struct {
	Task     string
	LogLevel string
	LogDir   string
	// Console mirrors the log to this writer when set.
	Console io.Writer

	DBPath        string
	DOMConfigFile string

	// Offline skips the browser and every use case that needs it.
	Offline         bool
	BrowserHeadless bool
	BrowserBin      string
	UserDataDir     string

	AI AIOverrides
}

// AIOverrides come from the environment and win over stored AI settings.
type AIOverrides struct {
	Enabled  *bool
	Provider string
	APIKey   string
	Model    string
}

// ConfigFromEnv reads every setting the CLI does not pass as a flag.
func ConfigFromEnv(e *env.EnvService) Config {
	cfg := Config{
		LogLevel:        e.Get("LOG_LEVEL"),
		LogDir:          e.GetDefault("LOG_DIR", "log"),
		DBPath:          e.GetDefault("AUTOLIKE_DB", defaultDBPath),
		DOMConfigFile:   e.Get("DOM_CONFIG_FILE"),
		BrowserHeadless: e.GetBool("BROWSER_HEADLESS", false),
		BrowserBin:      e.Get("BROWSER_BIN"),
		UserDataDir:     e.Get("BROWSER_USER_DATA_DIR"),
	}

	provider := entity.AIProvider(strings.ToLower(e.Get("AI_PROVIDER")))
	cfg.AI.Provider = string(provider)
	cfg.AI.Model = e.Get("AI_MODEL")
	if provider == entity.ProviderGroq {
		cfg.AI.APIKey = e.Get("GROQ_API_KEY")
	} else {
		cfg.AI.APIKey = e.Get("OPENROUTER_API_KEY")
	}
	if e.Get("AI_ENABLED") != "" {
		enabled := e.GetBool("AI_ENABLED", false)
		cfg.AI.Enabled = &enabled
	}
	return cfg
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.New(logger.Config{
		Task:    cfg.Task,
		Level:   cfg.LogLevel,
		Dir:     cfg.LogDir,
		Console: cfg.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	c := &Container{Logger: log}

	if err := c.init(ctx, cfg); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) init(ctx context.Context, cfg Config) error {
	dom := config.Default()
	if cfg.DOMConfigFile != "" {
		loaded, err := config.Load(cfg.DOMConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load DOM config: %w", err)
		}
		dom = loaded
	}
	c.DOM = dom

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := sqlite.Open(dbPath, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	c.Store = store

	appCfg, err := store.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.LogLevel == "" {
		if err := c.Logger.SetLevel(appCfg.LogLevel); err != nil {
			c.Logger.Warn("Stored log level ignored", "level", appCfg.LogLevel, "error", err)
		}
	}
	if err := applyAIOverrides(ctx, store, cfg.AI); err != nil {
		return err
	}

	c.UI = userinteraction.NewConsoleUserInteraction()
	if cfg.Offline {
		return nil
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	browserCfg.Bin = cfg.BrowserBin
	browserCfg.UserDataDir = cfg.UserDataDir
	browser, err := rod.NewBrowserAdapter(ctx, browserCfg, c.Logger.With("component", "browser"))
	if err != nil {
		return fmt.Errorf("failed to create browser: %w", err)
	}
	c.Browser = browser

	doc := browser.Document()
	c.Resolver = resolver.New(doc, dom, c.Logger.With("component", "resolver"))

	openClicks := func(context.Context) (ports.ClickSource, error) {
		return rod.NewClickSource(browser.LiveDocument())
	}
	c.Calibration = calibration.New(doc, openClicks, store, c.UI, c.Logger.With("component", "calibration"))
	c.Diagnostic = diagnostic.New(c.Resolver, store, browser, c.Logger.With("component", "diagnostic"))

	suggesterLog := c.Logger.With("component", "suggest")
	c.Orchestrator = orchestrator.New(c.Resolver, doc, store, c.UI, c.Logger.With("component", "orchestrator"),
		orchestrator.WithCalibrator(c.Calibration),
		orchestrator.WithSuggester(func(ai entity.AIConfig) (ports.CommentSuggester, error) {
			return suggest.New(suggest.Config{AI: ai, Logger: suggesterLog})
		}),
	)
	return nil
}

func applyAIOverrides(ctx context.Context, store ports.Store, o AIOverrides) error {
	if o.Enabled == nil && o.Provider == "" && o.APIKey == "" && o.Model == "" {
		return nil
	}
	ai, err := store.LoadAIConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AI config: %w", err)
	}
	if o.Enabled != nil {
		ai.IsEnabled = *o.Enabled
	}
	if o.Provider != "" {
		ai.Provider = entity.AIProvider(o.Provider)
	}
	if o.APIKey != "" {
		ai.APIKey = o.APIKey
	}
	if o.Model != "" {
		ai.Model = o.Model
	}
	if err := store.SaveAIConfig(ctx, ai); err != nil {
		return fmt.Errorf("failed to save AI config: %w", err)
	}
	return nil
}

func (c *Container) Close() error {
	if c.Resolver != nil {
		c.Resolver.Stop()
	}
	if c.Browser != nil {
		c.Browser.Close()
	}
	var errs []error
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.Logger != nil {
		errs = append(errs, c.Logger.Close())
	}
	return errors.Join(errs...)
}
