// Package cli wires configuration, storage and the API client into the
// truthlens commands.
package cli

import (
	"errors"
	"fmt"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mcao2/truthlens/internal/api"
	"github.com/mcao2/truthlens/internal/config"
	"github.com/mcao2/truthlens/internal/logging"
	"github.com/mcao2/truthlens/internal/session"
	"github.com/mcao2/truthlens/internal/store"
	"github.com/mcao2/truthlens/internal/ui"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "dev"

var (
	// Global flags
	cfgFile  string
	apiURL   string
	language string
	timeout  int
	demo     bool
	verbose  bool

	// env is built once per invocation by PersistentPreRunE
	env *app
)

// app holds everything a command needs
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  store.Store
	tokens *session.Tokens
	cache  *session.Cache
	client *api.Client
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}

	tokens := session.NewTokens(st)
	cache := session.NewCache(st,
		session.WithLogger(logger.Named("session")),
		session.WithHistoryLimit(cfg.HistoryLimit),
	)

	client, err := api.NewClient(cfg.APIURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		api.WithTokenStore(tokens),
		api.WithLanguage(cfg.Language),
		api.WithRateLimit(cfg.RateLimit, 1),
		api.WithLogger(logger.Named("api")),
	)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		tokens: tokens,
		cache:  cache,
		client: client,
	}, nil
}

func (a *app) Close() error {
	if a == nil {
		return nil
	}
	_ = a.logger.Sync()
	return a.store.Close()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "truthlens",
	Short: "TruthLens - verify claims from your terminal",
	Long: `TruthLens sends a claim, a paragraph or a URL to a TruthLens server,
lets you confirm the extracted claim, and shows the verdict together with
the evidence it was based on.

Run without arguments to start the interactive interface.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runTUI,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "truthlens %s\n", Version)
	},
}

func init() {
	cobra.OnFinalize(teardown)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/truthlens/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "TruthLens API base URL")
	rootCmd.PersistentFlags().StringVar(&language, "language", "", "language sent with analysis requests")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 0, "HTTP timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&demo, "demo", false, "keep nothing on disk and start without signing in")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
}

// setup loads config and opens storage. The TUI logs to a file because it
// owns the terminal; other commands log to stderr.
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	cfg, err := config.LoadWithFlags(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if demo {
		cfg.Storage.Backend = config.BackendMemory
	}

	logFile := cfg.Log.File
	if !cmd.HasParent() {
		logFile = cfg.LogPath()
	}
	logger, err := logging.New(logging.Options{File: logFile, Level: cfg.Log.Level, Verbose: verbose})
	if err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return err
	}
	env = a
	logger.Debug("configured",
		zap.String("api_url", cfg.APIURL),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("config", cfg.Path()))
	return nil
}

func teardown() {
	if env != nil {
		if err := env.Close(); err != nil {
			env.logger.Warn("failed to close store", zap.Error(err))
		}
		env = nil
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	m := ui.NewModel(ui.Options{
		Config:  env.cfg,
		Backend: env.client,
		Cache:   env.cache,
		Tokens:  env.tokens,
		Logger:  env.logger.Named("ui"),
		Offline: demo,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("interface error: %w", err)
	}
	return nil
}

// sessionError adds a hint to errors that need a fresh login
func sessionError(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("%w: run `truthlens login` to sign in", err)
	}
	return err
}
