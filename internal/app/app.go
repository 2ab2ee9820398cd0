package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/vidstream/backend/internal/config"
	"github.com/vidstream/backend/internal/db"
	"github.com/vidstream/backend/internal/handlers"
	"github.com/vidstream/backend/internal/httpserver"
	"github.com/vidstream/backend/internal/logging"
	"github.com/vidstream/backend/migrations"
)

// Run bootstraps the VidStream backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	switch args[0] {
	case "serve":
		return serve(ctx, cfg, logger)
	case "migrate":
		return runMigrations(ctx, cfg, args[1:], os.Stdout)
	case "seed":
		return runSeed(ctx, cfg, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.AppPort, handlers.NewRouter(deps))
	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		_ = cleanup(context.WithoutCancel(ctx))
		return fmt.Errorf("listen on %s: %w", srv.Addr(), err)
	}

	logger.Info("starting http server", "port", cfg.AppPort)
	runErr := srv.Run(ctx, ln, cfg.ShutdownTimeout, logger)

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout(cfg))
	defer cancel()
	if err := cleanup(drainCtx); err != nil {
		logger.Warn("storage janitor did not drain", "error", err)
	}
	return runErr
}

func shutdownTimeout(cfg config.Config) time.Duration {
	if cfg.ShutdownTimeout > 0 {
		return cfg.ShutdownTimeout
	}
	return httpserver.DefaultShutdownTimeout
}

func runMigrations(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := db.NewMigrator(pool, migrations.FS)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch command {
	case "up", "":
		return migrator.Up(ctx)
	case "down":
		return migrator.Down(ctx)
	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			mark := " "
			if st.State == goose.StateApplied {
				mark = "x"
			}
			fmt.Fprintf(out, "[%s] %s\n", mark, st.Source.Path)
		}
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func runSeed(ctx context.Context, cfg config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev)")
	}

	seedPath, err := seedFile(cfg.SeedDir, args[0])
	if err != nil {
		return err
	}
	contents, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", filepath.Base(seedPath), err)
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, string(contents)); err != nil {
		return fmt.Errorf("apply seed %s: %w", filepath.Base(seedPath), err)
	}

	logging.FromContext(ctx).Info("applied seed", "path", seedPath)
	return nil
}

// seedFile resolves a seed name like "dev" to <dir>/dev_seed.sql, relative
// to the working directory unless dir is absolute.
func seedFile(dir, name string) (string, error) {
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid seed name %q", name)
	}
	if !strings.HasSuffix(name, ".sql") {
		name = fmt.Sprintf("%s_seed.sql", name)
	}
	return filepath.Join(dir, name), nil
}
