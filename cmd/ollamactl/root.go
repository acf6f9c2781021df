package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ollamactl/internal/config"
	"ollamactl/internal/logging"
	"ollamactl/internal/telemetry"
	"ollamactl/pkg/client"
)

// app carries state shared by all subcommands for one invocation.
type app struct {
	stdout, stderr io.Writer
	stdin          io.Reader
	getenv         func(string) string

	configPath  string
	cfg         config.Config
	modelPinned bool
	log         zerolog.Logger
	reporter    *telemetry.Reporter

	wait    time.Duration
	timeout time.Duration
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ollamactl",
		Short:         "Client for a local Ollama server",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(a.stderr, "ollamactl: unknown command %q\n", args[0])
			return errExit
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (.yaml, .json or .toml); default $XDG_CONFIG_HOME/ollamactl/config.yaml")
	pf.String("host", "", "Model server host (default 127.0.0.1)")
	pf.Int("port", 0, "Model server port (default 11434)")
	pf.String("model", "", "Model to use; overrides default_model and OLLAMACTL_MODEL")
	pf.String("transport", "", "Transport: conn (default) or http")
	pf.Bool("no-launch", false, "Do not try to start `ollama serve`")
	pf.DurationVar(&a.wait, "wait", 0, "Wait up to this long for the server to answer before running the command")
	pf.DurationVar(&a.timeout, "timeout", 0, "Per-request timeout (0 = none)")
	pf.String("log-level", "", "Log level: debug, info, warn, error, off")
	pf.String("log-format", "", "Log format: auto, json, console")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.setup(cmd)
	}
	_ = root.RegisterFlagCompletionFunc("model", a.completeModels)

	root.AddCommand(
		newVersionCmd(a),
		newModelsCmd(a),
		newPromptCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup resolves configuration with precedence flags > environment > file > defaults.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = config.ApplyEnv(cfg, a.getenv)

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("model") {
		cfg.DefaultModel, _ = flags.GetString("model")
		a.modelPinned = true
	}
	if flags.Changed("transport") {
		cfg.Transport, _ = flags.GetString("transport")
	}
	if noLaunch, _ := flags.GetBool("no-launch"); noLaunch {
		f := false
		cfg.Launch = &f
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	switch cfg.Transport {
	case "", client.TransportHTTP, client.TransportConn:
	default:
		return fmt.Errorf("invalid transport %q: must be http or conn", cfg.Transport)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	a.cfg = cfg
	a.log = logging.New(cfg.LogLevel, cfg.LogFormat, a.stderr)

	rep, err := telemetry.Init(cfg.SentryDSN, version)
	if err != nil {
		a.log.Warn().Err(err).Msg("sentry disabled")
	}
	a.reporter = rep
	return nil
}

// clientConfig maps the resolved configuration onto client.Config.
func (a *app) clientConfig() client.Config {
	cfg := a.cfg
	cc := client.Config{
		Model:       cfg.DefaultModel,
		Host:        cfg.Host,
		Port:        cfg.Port,
		Transport:   cfg.Transport,
		DialTimeout: time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		Publisher:   logPublisher{log: a.log},
		Logger:      &a.log,
	}
	cc.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if a.timeout > 0 {
		cc.RequestTimeout = a.timeout
	}
	switch {
	case !cfg.LaunchEnabled():
		cc.Launcher = client.NoopLauncher{}
	case cfg.ServerBin != "" || len(cfg.ServerArgs) > 0:
		bin, args := cfg.ServerBin, cfg.ServerArgs
		if bin == "" {
			bin = client.DefaultServerBin
		}
		if len(args) == 0 {
			args = []string{"serve"}
		}
		cc.Launcher = client.NewProcessLauncher(bin, args, serverAddr(cc))
	}
	return cc
}

func serverAddr(cc client.Config) string {
	if cc.Host == "" {
		cc.Host = client.DefaultHost
	}
	if cc.Port <= 0 {
		cc.Port = client.DefaultPort
	}
	return cc.Addr()
}

// newClient builds the client and, with --wait, blocks until the server answers.
func (a *app) newClient(ctx context.Context) (*client.Client, error) {
	c := client.NewWithConfig(a.clientConfig())
	if a.wait > 0 {
		wctx, cancel := context.WithTimeout(ctx, a.wait)
		defer cancel()
		if err := c.WaitReady(wctx, 100*time.Millisecond); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// completeModels completes --model from the server's installed models.
func (a *app) completeModels(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	if err := a.setup(cmd); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cc := a.clientConfig()
	cc.Launcher = client.NoopLauncher{}
	names, err := client.NewWithConfig(cc).ModelNames(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// logPublisher forwards client events to the debug log.
type logPublisher struct {
	log zerolog.Logger
}

func (p logPublisher) Publish(e client.Event) {
	ev := p.log.Debug().Str("event", e.Name)
	if e.Model != "" {
		ev = ev.Str("model", e.Model)
	}
	ev.Fields(e.Fields).Msg("client event")
}
