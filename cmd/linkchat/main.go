package main

import (
	"fmt"
	"os"
	"time"

	"linkchat/cmd/linkchat/chat"
	"linkchat/internal/config"
	"linkchat/internal/logging"
	"linkchat/internal/ragclient"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// app carries the resolved configuration from PersistentPreRunE to the
// command bodies.
type app struct {
	// Global flags
	configPath string
	baseURL    string
	timeout    time.Duration
	verbose    bool

	cfg *config.Config
	log *logging.Logger
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "linkchat",
		Short: "linkchat - chat with the contents of a link",
		Long: `linkchat hands a link to a RAG service for ingestion and then answers
questions about its contents.

Run without arguments to start the interactive widget: paste a link, wait for
the greeting, then ask away. Queries submit on Enter or after the field has
been idle for the debounce period.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWidget()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultConfigPath(), "Config file")
	rootCmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "RAG service address (overrides server.base_url)")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "Per-request timeout (overrides server.timeout)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging and verbose output")

	rootCmd.AddCommand(newLoadCmd(a))
	rootCmd.AddCommand(newAskCmd(a))
	rootCmd.AddCommand(newClearCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup resolves configuration (defaults < yaml < .env < env < flags) and
// starts logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.Server.BaseURL = a.baseURL
	}
	if flags.Changed("timeout") {
		cfg.Server.Timeout = a.timeout.String()
	}
	if a.verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logging.Initialize(logging.Options{
		DebugMode:  cfg.Logging.DebugMode,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	a.cfg = cfg
	a.log = logging.Get(logging.CategoryBoot)
	a.log.Info("linkchat %s (base_url=%s, timeout=%s)", cmd.Name(), cfg.Server.BaseURL, cfg.GetTimeout())
	return nil
}

func (a *app) client() *ragclient.Client {
	return ragclient.New(ragclient.Config{
		BaseURL: a.cfg.Server.BaseURL,
		Timeout: a.cfg.GetTimeout(),
	})
}

// runWidget launches the interactive widget and blocks until it quits.
func (a *app) runWidget() error {
	model := chat.New(a.client(), a.cfg)

	p := tea.NewProgram(model, tea.WithAltScreen())

	final, err := p.Run()
	if m, ok := final.(chat.Model); ok {
		m.Close()
	} else {
		model.Close()
	}
	if err != nil {
		return fmt.Errorf("widget failed: %w", err)
	}
	return nil
}
