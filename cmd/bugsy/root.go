package bugsy

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamilpajak/bugsy/internal/config"
	"github.com/kamilpajak/bugsy/internal/llm"
	"github.com/kamilpajak/bugsy/internal/logging"
	"github.com/kamilpajak/bugsy/internal/stage"
	"github.com/kamilpajak/bugsy/internal/store"
)

// options holds the global flags.
type options struct {
	configPath string
	dataDir    string
	provider   string
	model      string
	logFormat  string
	offline    bool
	verbose    bool
	jsonOutput bool
}

// app is everything a command needs, built once from config and flags.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	gen    llm.Generator
	stdout io.Writer
	stderr io.Writer
	json   bool
}

// NewRootCmd builds the bugsy command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "bugsy",
		Short: "LLM-assisted test design from documentation",
		Long: `Bugsy turns retrieved documentation sections into a testing context,
atomic test attributes and test scenarios, with validation and coverage
reports along the way.

Every model-backed stage falls back to a deterministic heuristic when the
model is unavailable or its reply is unusable, so a run always produces
artifacts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Config file (default ./"+config.DefaultFile+" if present)")
	f.StringVar(&opts.dataDir, "data-dir", "", "Data directory holding contexts/ and outputs/")
	f.StringVarP(&opts.provider, "provider", "p", "", "LLM provider (deepseek, openai, anthropic, google)")
	f.StringVarP(&opts.model, "model", "m", "", "Specific model name")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format (console, json)")
	f.BoolVar(&opts.offline, "offline", false, "Skip the model; every stage uses its fallback")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	f.BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newPromptCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration, applies flags and builds the shared
// collaborators.
func setup(cmd *cobra.Command, opts *options) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, opts, cfg)
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging, opts.verbose, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureDirs(); err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		gen:    newGenerator(cfg.LLM, logger),
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		json:   opts.jsonOutput,
	}, nil
}

func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = opts.dataDir
	}
	if flags.Changed("provider") {
		cfg.LLM.Provider = opts.provider
	}
	if flags.Changed("model") {
		cfg.LLM.Model = opts.model
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}
	if opts.offline {
		cfg.LLM.Offline = true
	}
}

// newGenerator never fails: an unusable backend becomes a generator that
// always errors, which sends every stage down its fallback path.
func newGenerator(cfg config.LLM, logger *zap.Logger) llm.Generator {
	gen, err := llm.New(cfg)
	if err == nil {
		logger.Debug("model backend ready",
			zap.String("provider", cfg.Provider),
			zap.String("model", cfg.Model))
		return gen
	}
	if cfg.Offline {
		logger.Info("offline mode, stages will use fallbacks")
	} else {
		logger.Warn("model backend unavailable, stages will use fallbacks", zap.Error(err))
	}
	return llm.Unavailable{Err: err}
}

func (a *app) deps(em stage.Emitter) stage.Deps {
	return stage.Deps{
		Store:   a.store,
		LLM:     a.gen,
		Logger:  a.logger,
		Emitter: em,
	}
}

func (a *app) close() {
	// Sync reports EINVAL on terminals; nothing useful to do with it.
	_ = a.logger.Sync()
}
