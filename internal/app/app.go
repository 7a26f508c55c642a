package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alfawal/LoA/internal/config"
	"github.com/alfawal/LoA/internal/ddragon"
	"github.com/alfawal/LoA/internal/export"
	"github.com/alfawal/LoA/internal/notify"
	"github.com/alfawal/LoA/internal/plot"
	"github.com/alfawal/LoA/internal/preview"
	"github.com/alfawal/LoA/internal/provider"
	"github.com/alfawal/LoA/internal/roster"
	"github.com/alfawal/LoA/internal/stats"
	"github.com/alfawal/LoA/internal/storage/logs"
	"github.com/alfawal/LoA/internal/storage/postgres"
	"github.com/alfawal/LoA/internal/webapi"
)

const (
	dbTimeout       = 5 * time.Second
	shutdownTimeout = 5 * time.Second
	notifyTimeout   = 15 * time.Second
)

var logOutput io.Writer = os.Stderr

// Run fetches one provider's statistics, normalizes them against the roster
// and hands the dataset to every requested output.
func Run(ctx context.Context, cfg config.Config) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := uuid.Must(uuid.NewV7()).String()

	db, closeDB, err := connectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer closeDB()

	var runLogs *logs.RunHandler
	if db != nil {
		if err := db.CreateLogTable(ctx); err != nil {
			return fmt.Errorf("init log schema: %w", err)
		}
		runLogs = logs.NewRunHandler(runID, slog.LevelDebug, logs.DefaultLimit)
	}
	logger := setupLogger(logOutput, cfg.LogLevel, runLogs)
	defer func() {
		if runLogs == nil {
			return
		}
		if err != nil {
			slog.New(runLogs).Error("Run failed", "error", err)
		}
		if flushErr := runLogs.Flush(context.WithoutCancel(ctx), db, dbTimeout); flushErr != nil {
			logger.Warn("Failed to store run logs", "error", flushErr)
		}
	}()
	logger = logger.With("run_id", runID)

	api := webapi.NewClient(webapi.Options{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: cfg.HTTP.UserAgent,
		Requests:  cfg.HTTP.Requests,
		Window:    cfg.HTTP.Window,
		Burst:     cfg.HTTP.Burst,
	})

	p, err := provider.New(cfg.Provider, api, cfg.Providers)
	if err != nil {
		return err
	}
	logger = logger.With("provider", p.Name())

	champions, err := loadRoster(ctx, api, cfg.Roster, logger)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	startedAt := time.Now()
	raw, err := p.FetchRaw(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p.Name(), err)
	}
	logger.Debug("Provider responded", "rows", raw.Len(), "elapsed", time.Since(startedAt))

	ds, report, err := stats.Normalize(raw, champions)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", p.Name(), err)
	}
	logReport(logger, ds, report)

	if err := publish(ctx, cfg, ds, report, logger); err != nil {
		return err
	}
	if cfg.Serve {
		return serve(ctx, cfg.Addr, ds, logger)
	}
	return nil
}

func loadRoster(ctx context.Context, api *webapi.Client, cfg config.RosterConfig, logger *slog.Logger) (roster.Roster, error) {
	policy := roster.RefreshMissing
	if cfg.Refresh {
		policy = roster.RefreshAlways
	}
	source := ddragon.NewClient(api, ddragon.Options{
		CDN:         cfg.CDN,
		VersionsURL: cfg.VersionsURL,
		Locale:      cfg.Locale,
	})
	store := roster.NewStore(source, roster.Options{Dir: cfg.Dir, Patch: cfg.Patch, Policy: policy})

	champions, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	patch, err := store.Patch()
	if err != nil {
		logger.Debug("Roster patch unknown", "error", err)
	}
	logger.Info("Roster loaded", "champions", len(champions), "patch", patch, "dir", store.Dir())
	return champions, nil
}

func logReport(logger *slog.Logger, ds stats.Dataset, report stats.Report) {
	logger.Info("Dataset ready",
		"records", len(ds.Records),
		"mapped", report.Mapped,
		"duplicates", report.Duplicates,
		"placeholders", len(report.Placeholders),
	)
	if len(report.Placeholders) == 0 {
		logger.Info("No missing champions found")
		return
	}
	logger.Info(fmt.Sprintf("Added %d missing champions", len(report.Placeholders)), "names", stats.JoinNames(report.Placeholders))
}

// publish runs every file output and the Discord summary concurrently. The
// dataset is shared read-only between them.
func publish(ctx context.Context, cfg config.Config, ds stats.Dataset, report stats.Report, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	ts := ds.GeneratedAt

	for _, format := range cfg.Formats {
		g.Go(func() error {
			path, err := export.Write(ds, format, cfg.OutDir, ts)
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			logger.Info("Exported", "format", string(format), "path", path)
			return nil
		})
	}

	if cfg.Plot {
		g.Go(func() error {
			path, err := plot.Render(ds, cfg.OutDir, ts)
			if err != nil {
				return fmt.Errorf("plot: %w", err)
			}
			logger.Info("Plot saved", "path", path)
			return nil
		})
	}

	if strings.TrimSpace(cfg.DiscordWebhook) != "" {
		g.Go(func() error {
			hook, err := notify.NewWebhook(cfg.DiscordWebhook, cfg.NotifyTop)
			if err != nil {
				logger.Warn("Discord summary skipped", "error", err)
				return nil
			}
			nctx, cancel := context.WithTimeout(gctx, notifyTimeout)
			defer cancel()
			if err := hook.Send(nctx, ds, report); err != nil {
				logger.Warn("Discord summary failed", "error", err)
				return nil
			}
			logger.Info("Discord summary posted")
			return nil
		})
	}

	return g.Wait()
}

// serve blocks until ctx is done or the preview server fails.
func serve(ctx context.Context, addr string, ds stats.Dataset, logger *slog.Logger) error {
	srv := preview.New(addr, ds, logger)
	errCh := make(chan error, 1)
	goSafe(logger, "preview_server", func() {
		errCh <- srv.Start()
	})

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("preview server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Stopping preview server")
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("stop preview server: %w", err)
	}
	return nil
}

func connectDB(ctx context.Context, url string) (*postgres.Database, func(), error) {
	if url == "" {
		return nil, func() {}, nil
	}
	var lastErr error
	for i := range 3 {
		if i > 0 {
			timer := time.NewTimer(2 * time.Second)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, nil, fmt.Errorf("database connection canceled: %w", ctx.Err())
			case <-timer.C:
			}
		}
		tCtx, cancel := context.WithTimeout(ctx, dbTimeout)
		pool, err := postgres.NewPool(tCtx, url)
		cancel()

		if err == nil {
			db := postgres.NewDB(pool)
			return db, db.Close, nil
		}
		lastErr = err
	}
	return nil, nil, fmt.Errorf("database connection failed after retries: %w", lastErr)
}

func setupLogger(w io.Writer, level slog.Level, runLogs *logs.RunHandler) *slog.Logger {
	var handler slog.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if runLogs != nil {
		handler = slog.NewMultiHandler(handler, runLogs)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func goSafe(logger *slog.Logger, task string, fn func()) {
	if logger == nil {
		logger = slog.Default()
	}
	task = strings.TrimSpace(task)
	if task == "" {
		task = "unnamed"
	}
	if fn == nil {
		logger.Error("Background task not started: nil func", "task", task)
		return
	}

	taskLogger := logger.With("task", task)
	go func() {
		startedAt := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				taskLogger.Error("Background task panicked", "panic", recovered, "elapsed", time.Since(startedAt), "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
