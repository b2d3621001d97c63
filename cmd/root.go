package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/hbudget/internal/api"
	"github.com/theirongolddev/hbudget/internal/auth"
	"github.com/theirongolddev/hbudget/internal/budget"
	"github.com/theirongolddev/hbudget/internal/config"
	"github.com/theirongolddev/hbudget/internal/notify"
	"github.com/theirongolddev/hbudget/internal/store"
)

var (
	flagAPIURL       string
	flagLogLevel     string
	flagQuiet        bool
	flagNoStaleGuard bool
	flagDBPath       string
)

// cfg is the effective configuration, loaded before every command runs.
var cfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:               "hbudget",
	Short:             "Home budget client",
	Long:              "Track budgets kept on a remote home-budget API: list, add, edit, delete and attach receipt images.",
	SilenceUsage:      true,
	PersistentPreRunE: initRuntime,
	RunE:              runList,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Budget API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagNoStaleGuard, "no-stale-guard", false, "Apply every completion, even ones older than a later write")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", store.DefaultPath(), "Local credential database")
}

// initRuntime loads .env files and config, then configures logging.
func initRuntime(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(".env", filepath.Join(config.Dir(), ".env")); err != nil {
		return err
	}

	c, err := config.Load()
	if err != nil {
		return err
	}
	if flagAPIURL != "" {
		c.API.BaseURL = flagAPIURL
	}
	if cmd.Flags().Changed("log-level") {
		c.Log.Level = flagLogLevel
	}
	if flagNoStaleGuard {
		c.API.StaleGuard = false
	}
	cfg = c

	setupLogging(cfg.Log, os.Stderr)
	log.Debug().Str("config", config.Path()).Str("api", cfg.API.BaseURL).Msg("runtime ready")
	return nil
}

// setupLogging points the global zerolog logger at out. JSON is used only
// when asked for; humans get the console writer.
func setupLogging(lc config.LogConfig, out io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(lc.Level)))
	if err != nil || lc.Level == "" {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	output := out
	if lc.Format != "json" {
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()
}

// openKV opens the local credential database.
func openKV() (*store.KV, error) {
	return store.Open(flagDBPath)
}

// credentials returns the token source used by every command: the
// HBUDGET_TOKEN environment variable first, then the persisted login.
// The returned close func releases the database.
func credentials() (auth.Source, func()) {
	kv, err := openKV()
	if err != nil {
		log.Warn().Err(err).Msg("credential store unavailable")
		return auth.Chain{auth.EnvSource{}}, func() {}
	}
	return auth.Chain{auth.EnvSource{}, auth.KVSource{KV: kv}}, func() { _ = kv.Close() }
}

func newClient() *api.Client {
	return api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout()),
		api.WithLegacyUpdatePath(cfg.API.LegacyUpdatePath),
	)
}

// newStore wires a budget store for one command invocation.
func newStore(n notify.Notifier) (*budget.Store, func()) {
	creds, closeFn := credentials()
	s := budget.New(newClient(), creds, n,
		budget.WithLogger(log.Logger),
		budget.WithStaleGuard(cfg.API.StaleGuard),
	)
	return s, closeFn
}

// consoleNotifier prints notifications to stderr so stdout stays parseable.
func consoleNotifier() notify.Notifier {
	return notify.NewConsole(os.Stderr, flagQuiet)
}
