package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamelib/api"
	"gamelib/config"
	"gamelib/db"
	_ "gamelib/docs" // Import for side effect: registers swagger spec via init()
	"gamelib/logging"
	"gamelib/utils"
	"gamelib/watch"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

// @title           GameLib API
// @version         1.0

// @description     ## GameLib API
// @description
// @description     Backend of a personal game library. Game metadata lives in JSON files under the metadata directory
// @description     (`libraries/*.json`, `collections.json`, `categories.json`, `recommended.json`, `settings.json`);
// @description     covers, backgrounds and launch scripts live in per-entity folders under the content directory.
// @description
// @description     **Authentication:** every route except `/health`, `/metrics`, `/swagger`, the image routes and the
// @description     Twitch login routes needs a token, sent as `X-Auth-Token`, `Authorization: Bearer <token>` or `?token=`.
// @description     Accepted tokens are the configured API token and the access tokens of stored Twitch logins.
// @description
// @description     **Errors** are returned as `{"error": "<message>"}`.
// @description
// @description     **Filtering (`filter` parameter on `GET /libraries/{libraryId}/games`):** repeated `filter` values of the form
// @description     `path operator value`, optionally separated by `and` / `or` values, evaluated left to right.
// @description     Example: `?filter=genre contains-insensitive rpg&filter=and&filter=year greaterthan 2000`

// @license.name  MIT

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey ApiToken
// @in header
// @name X-Auth-Token
// @description The API token, or the access token of a Twitch login.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "gamelib",
		Short:         "Personal game library backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running without a subcommand serves, like the serve command.
		RunE: serve.RunE,
	}
	config.RegisterFlags(root.Flags())
	root.AddCommand(serve, newCheckCmd(), newVersionCmd(), newHashTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// serve runs the server until ctx is cancelled. When ready is non-nil it
// receives the bound listener address once the server accepts connections.
func serve(ctx context.Context, cfg *config.Config, ready chan<- string) error {
	flush, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer flush()
	config.LogConfiguration(cfg)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Database ---
	database, err := db.NewDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize metadata store: %w", err)
	}
	defer database.Close()

	if cfg.Watch {
		if err := startWatcher(ctx, cfg, database); err != nil {
			zap.S().Warnw("Metadata watching disabled", "error", err)
		}
	}

	// --- Router ---
	services := api.NewServices(cfg, database)
	router := api.NewRouter(services)

	// --- Start Server ---
	listenAddr := net.JoinHostPort(cfg.ListenAddress, cfg.ListenPort)
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}
	server := &http.Server{
		Handler:           api.WithCORS(router, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	zap.S().Infow("Server listening", "address", listener.Addr().String(), "version", version)
	if ready != nil {
		ready <- listener.Addr().String()
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.S().Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func startWatcher(ctx context.Context, cfg *config.Config, database *db.Database) error {
	if err := os.MkdirAll(cfg.MetadataDir, 0o755); err != nil {
		return err
	}
	w, err := watch.New(database.Layout, database, cfg.WatchDebounce)
	if err != nil {
		return err
	}
	go w.Run(ctx)
	return nil
}

func newCheckCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the metadata files against their schemas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			layout := db.Layout{MetadataDir: v.GetString("metadata-dir")}
			results, err := db.ValidateMetadataDir(layout)
			if err != nil {
				return err
			}
			invalid := 0
			for _, r := range results {
				switch {
				case r.Missing:
					fmt.Fprintf(out, "MISSING  %-12s %s\n", r.Kind, r.Path)
				case r.Valid():
					fmt.Fprintf(out, "OK       %-12s %s\n", r.Kind, r.Path)
				default:
					invalid++
					fmt.Fprintf(out, "INVALID  %-12s %s\n", r.Kind, r.Path)
					for _, e := range r.Errors {
						fmt.Fprintf(out, "         - %s\n", e)
					}
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d metadata file(s) failed validation", invalid)
			}
			return nil
		},
	}
	cmd.Flags().String("metadata-dir", "./metadata", "Directory holding the metadata JSON files")
	_ = v.BindEnv("metadata-dir", "GAMELIB_METADATA_DIR")
	_ = v.BindPFlag("metadata-dir", cmd.Flags().Lookup("metadata-dir"))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newHashTokenCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-token <token>",
		Short: "Print the bcrypt hash of an API token, for --api-token-hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := utils.HashToken(args[0], cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}
