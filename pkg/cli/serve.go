package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/testkit/pkg/config"
	"github.com/getmockd/testkit/pkg/logging"
	"github.com/getmockd/testkit/pkg/mockhttp"
)

// shutdownTimeout bounds how long serve waits for the listener to be
// released on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	configPath string
	port       int
	tls        bool
	printURL   bool
	logLevel   string
	logFormat  string
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stubs from a YAML file until interrupted",
	Long: `Serve starts the mock server with the stubs defined in a config file
and runs in the foreground until SIGINT or SIGTERM.

Flags override the listen section of the config file. Every handled
request is logged at info level.`,
	Example: `  # Serve stubs on an automatically selected port
  testkit serve --config stubs.yaml

  # Pin the port and print the URL for scripts
  testkit serve --config stubs.yaml --port 8080 --print-url

  # HTTPS with a generated self-signed certificate
  testkit serve --config stubs.yaml --tls`,
	RunE: runServe,
}

func init() {
	f := &serveFlagVals

	serveCmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to the stub config file [required]")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", 0, "Listen port (0 picks the next free port from 4280)")
	serveCmd.Flags().BoolVar(&f.tls, "tls", false, "Serve HTTPS with a generated self-signed certificate")
	serveCmd.Flags().BoolVar(&f.printURL, "print-url", false, "Print the server URL to stdout on startup")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")

	_ = serveCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	f := &serveFlagVals

	if _, err := os.Stat(f.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", f.configPath)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override the file's listen and log sections.
	if cmd.Flags().Changed("port") {
		cfg.Listen.Port = f.port
	}
	if cmd.Flags().Changed("tls") {
		cfg.Listen.TLS = f.tls
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
	})

	srv, err := startServer(cfg, log)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (try --port 0 to pick automatically)", cfg.Listen.Port)
		}
		return fmt.Errorf("failed to start server: %w", err)
	}

	registerStubs(srv, cfg)

	if f.printURL {
		fmt.Println(srv.URL())
	}
	log.Info("server started",
		"url", srv.URL(),
		"stubs", len(cfg.Stubs),
		"config", f.configPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Drain captures so the queue stays bounded, logging each request.
	go logRequests(ctx, srv, log)

	<-ctx.Done()

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.CloseAndWait(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// startServer boots the right server mode for the config.
func startServer(cfg *config.Config, log *slog.Logger) (*mockhttp.Server, error) {
	opts := []mockhttp.Option{mockhttp.WithLogger(log.With("component", "server"))}
	if cfg.Listen.Port > 0 {
		opts = append(opts, mockhttp.WithPort(cfg.Listen.Port))
	}
	if cfg.Listen.TLS {
		return mockhttp.StartSecure(opts...)
	}
	return mockhttp.Start(opts...)
}

// registerStubs installs every stub in file order. Registration is
// newest first, so later stubs in the file shadow earlier ones for the
// same method and path.
func registerStubs(srv *mockhttp.Server, cfg *config.Config) {
	if cfg.DefaultStatus != 0 {
		srv.ByDefault(mockhttp.Respond(cfg.DefaultStatus))
	}
	for _, s := range cfg.Stubs {
		srv.ForMethodAndPath(s.Method, s.Path, stubHandler(s))
	}
}

// logRequests consumes the capture queue until the server closes or
// ctx ends.
func logRequests(ctx context.Context, srv *mockhttp.Server, log *slog.Logger) {
	for {
		c, err := srv.NextRequest(ctx)
		if err != nil {
			return
		}
		log.Info("request",
			"method", c.Method,
			"path", c.Path,
			"remote", c.RemoteAddr,
		)
	}
}
