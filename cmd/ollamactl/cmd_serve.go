package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ollamactl/internal/common/fsutil"
	"ollamactl/internal/config"
	"ollamactl/internal/httpapi"
	"ollamactl/pkg/client"
)

const (
	defaultGatewayAddr = "127.0.0.1:8080"
	startupReadyWait   = 10 * time.Second
	shutdownTimeout    = 5 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Long: `Serve /version, /models, /prompt and /model over HTTP using one shared client.

The config file is watched; changing default_model switches the bound model
without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, a)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default gateway_addr or "+defaultGatewayAddr+")")
	return cmd
}

func runServe(cmd *cobra.Command, a *app) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.GatewayAddr
	}
	if addr == "" {
		addr = defaultGatewayAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	if a.wait == 0 {
		wctx, cancel := context.WithTimeout(ctx, startupReadyWait)
		if err := c.WaitReady(wctx, 250*time.Millisecond); err != nil {
			a.log.Warn().Err(err).Msg("model server not ready; serving anyway")
		}
		cancel()
	}

	httpapi.SetLogger(a.log)
	httpapi.SetDefaultLogLevel(a.cfg.LogLevel)
	httpapi.SetCORSOrigins(a.cfg.CORSOrigins)
	httpapi.SetUpstreamTimeout(time.Duration(a.cfg.RequestTimeoutSeconds) * time.Second)
	httpapi.SetBaseContext(ctx)

	if path := a.watchPath(); path != "" {
		go a.watchConfig(ctx, path, c)
	}

	srv := &http.Server{Addr: addr, Handler: httpapi.NewMux(c), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(a.stdout, "ollamactl gateway listening on http://%s (model server %s)\n", addr, c.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		a.log.Warn().Err(err).Msg("graceful shutdown")
	}
	return nil
}

// watchPath is the config file to watch: --config when given, otherwise the default
// file if it exists.
func (a *app) watchPath() string {
	if a.configPath != "" {
		return a.configPath
	}
	if p := fsutil.ConfigFile(); fsutil.PathExists(p) {
		return p
	}
	return ""
}

// watchConfig applies default_model changes from the config file to c.
func (a *app) watchConfig(ctx context.Context, path string, c *client.Client) {
	err := config.Watch(ctx, path, func(cfg config.Config, err error) {
		if err != nil {
			a.log.Warn().Err(err).Str("path", path).Msg("config reload")
			return
		}
		a.applyReload(cfg, c)
	})
	if err != nil {
		a.log.Warn().Err(err).Str("path", path).Msg("config watch disabled")
	}
}

// applyReload switches c to the reloaded default model. A --model flag pins the
// model for the life of the process.
func (a *app) applyReload(cfg config.Config, c *client.Client) {
	if a.modelPinned {
		a.log.Debug().Str("model", c.Model()).Msg("config reload: model pinned by --model")
		return
	}
	cfg = config.ApplyEnv(cfg, a.getenv)
	if cfg.DefaultModel != "" && cfg.DefaultModel != c.Model() {
		a.log.Info().Str("model", cfg.DefaultModel).Msg("config reload: switching model")
		c.SwitchModel(cfg.DefaultModel)
	}
}
