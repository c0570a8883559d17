package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/scout/internal/api"
	"github.com/joescharf/scout/internal/daemon"
	"github.com/joescharf/scout/internal/metrics"
	"github.com/joescharf/scout/internal/proxy"
	webui "github.com/joescharf/scout/internal/ui"
)

const (
	shutdownTimeout = 10 * time.Second
	stopGrace       = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway in the foreground",
	Long: `Run the browser-facing gateway. It serves the embedded UI and forwards
the /api routes to the analysis backend (backend_host), passing along only
the load balancer's x-amzn-* headers.

Use 'scout serve start' to run it in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

var serveStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStartRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the background gateway is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

func init() {
	serveCmd.PersistentFlags().IntP("port", "p", 3000, "port to listen on")
	_ = viper.BindPFlag("port", serveCmd.PersistentFlags().Lookup("port"))

	serveCmd.AddCommand(serveStartCmd)
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func pidFile() *daemon.PIDFile {
	return daemon.NewPIDFile(filepath.Join(stateDir(), "scout-serve.pid"))
}

func serveLogPath() string {
	return filepath.Join(stateDir(), "scout-serve.log")
}

func listenAddr() string {
	return fmt.Sprintf(":%d", viper.GetInt("port"))
}

// newGateway wires the forwarder, metrics and embedded UI into the gateway router.
func newGateway(logger *slog.Logger) (http.Handler, error) {
	// The backend origin is looked up per request so that config changes
	// need no restart.
	fwd := proxy.NewForwarder(func() string { return viper.GetString("backend_host") })
	fwd.Prefix = viper.GetString("header_prefix")

	static, err := webui.Handler()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize UI handler: %w", err)
	}
	return api.NewServer(fwd, logger, metrics.NewGateway(), static).Router(), nil
}

func serveRun(ctx context.Context) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	handler, err := newGateway(logger)
	if err != nil {
		return err
	}

	addr := listenAddr()
	pf := pidFile()
	if err := pf.Acquire(addr); err != nil {
		return err
	}
	defer func() { _ = pf.Release() }()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, daemon.ShutdownSignals()...)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("gateway listening", "addr", addr, "backend_host", viper.GetString("backend_host"))

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("gateway shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func serveStartRun() error {
	pf := pidFile()
	if s, running := pf.Running(); running {
		return fmt.Errorf("gateway already running (pid %d, addr %s)", s.PID, s.Addr)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	args := []string{"serve", "--port", strconv.Itoa(viper.GetInt("port"))}
	if cfg, _ := rootCmd.PersistentFlags().GetString("config"); cfg != "" {
		args = append(args, "--config", cfg)
	}

	if dryRun {
		ui.DryRunMsg("Would run %s %v (log %s)", exe, args, serveLogPath())
		return nil
	}

	if err := os.MkdirAll(stateDir(), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	logFile, err := os.OpenFile(serveLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	daemon.Detach(child)
	if err := child.Start(); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	pid := child.Process.Pid
	_ = child.Process.Release()

	ui.Success("Gateway started (pid %d) on %s", pid, listenAddr())
	ui.Info("Logs: %s", serveLogPath())
	return nil
}

func serveStopRun() error {
	if dryRun {
		if s, running := pidFile().Running(); running {
			ui.DryRunMsg("Would stop gateway (pid %d)", s.PID)
		}
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*stopGrace)
	defer cancel()

	s, err := pidFile().Stop(ctx, stopGrace)
	if errors.Is(err, daemon.ErrNotRunning) {
		return fmt.Errorf("gateway is not running")
	}
	if err != nil {
		return err
	}
	ui.Success("Gateway stopped (pid %d)", s.PID)
	return nil
}

func serveStatusRun() error {
	s, running := pidFile().Running()
	if !running {
		ui.Info("Gateway not running")
		return nil
	}
	ui.Success("Gateway running (pid %d) on %s", s.PID, s.Addr)
	ui.Field("Backend", viper.GetString("backend_host"))
	ui.Field("Log", serveLogPath())

	if err := probeHealth(s.Addr); err != nil {
		ui.Warning("Health check failed: %v", err)
	}
	return nil
}

// probeHealth checks GET /healthz on a listen address such as ":3000".
func probeHealth(addr string) error {
	c := &http.Client{Timeout: 2 * time.Second}
	resp, err := c.Get("http://localhost" + addr + "/healthz")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
