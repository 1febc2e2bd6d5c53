package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/indexer"
	"github.com/gaze-network/brc20-indexer/internal/config"
	"github.com/gaze-network/brc20-indexer/internal/metrics"
	"github.com/gaze-network/brc20-indexer/modules/brc20"
	"github.com/gaze-network/brc20-indexer/pkg/automaxprocs"
	"github.com/gaze-network/brc20-indexer/pkg/errorhandler"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
	"github.com/gaze-network/brc20-indexer/pkg/middleware/requestlogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Register Modules
var Modules = do.Package(
	do.LazyNamed("brc20", brc20.New),
)

func NewRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start brc20-indexer service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := automaxprocs.Init(); err != nil {
				logger.Error("Failed to set GOMAXPROCS", slogx.Error(err))
			}
			return runHandler(cmd, args)
		},
	}

	// Add local flags
	flags := runCmd.Flags()
	flags.Int64("start-height", 0, "First block height to index when the database is empty")
	flags.Int("port", 8080, "Port of the health check and metrics HTTP server")

	// Bind flags to configuration
	config.BindPFlag("modules.brc20.start_height", flags.Lookup("start-height"))
	config.BindPFlag("http_server.port", flags.Lookup("port"))

	return runCmd
}

const (
	shutdownTimeout = 60 * time.Second
)

func runHandler(cmd *cobra.Command, _ []string) error {
	conf := config.Load()

	// Validate inputs and configurations
	{
		if !conf.Network.IsSupported() {
			return errors.Wrapf(errs.Unsupported, "%q network is not supported", conf.Network.String())
		}
	}

	// Initialize application process context
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := do.New(Modules)
	do.ProvideValue(injector, conf)

	// Initialize worker context to separate worker's lifecycle from main process
	ctxWorker, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	ctxWorker = logger.WithContext(ctxWorker, slogx.Stringer("network", conf.Network))
	group, ctxWorker := errgroup.WithContext(ctxWorker)
	do.ProvideValue(injector, ctxWorker)

	// Initialize HTTP server
	do.Provide(injector, func(i do.Injector) (*fiber.App, error) {
		app := fiber.New(fiber.Config{
			AppName:               "BRC-20 Indexer",
			DisableStartupMessage: true,
			ErrorHandler:          errorhandler.NewHTTPErrorHandler(),
		})
		app.
			Use(favicon.New()).
			Use(requestlogger.New(conf.HTTPServer.Logger)).
			Use(fiberrecover.New(fiberrecover.Config{
				EnableStackTrace: true,
				StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
					buf := make([]byte, 1024) // bufLen = 1024
					buf = buf[:runtime.Stack(buf, false)]
					logger.ErrorContext(c.UserContext(), "Something went wrong, panic in http handler", errors.Newf("panic: %v", e), slog.String("stacktrace", string(buf)))
				},
			}))

		// Health check
		app.Get("/", func(c *fiber.Ctx) error {
			return errors.WithStack(c.SendStatus(http.StatusOK))
		})
		if conf.Metrics.Enabled {
			app.Get("/metrics", metrics.Handler())
		}
		return app, nil
	})

	metrics.Version.WithLabelValues(brc20.ClientVersion).Set(1)

	// Run indexer
	{
		ctx := logger.WithContext(ctxWorker, slogx.String("module", "brc20"))
		indexer, err := do.InvokeNamed[indexer.IndexerWorker](injector, "brc20")
		if err != nil {
			return errors.Wrap(err, "failed to init brc20 module")
		}
		group.Go(func() error {
			// stop main process if indexer stopped
			defer stop()

			logger.InfoContext(ctx, "Starting BRC-20 Indexer")
			if err := indexer.Run(ctx); err != nil {
				return errors.Wrap(err, "error during running indexer")
			}
			return nil
		})
	}

	// Run HTTP server
	httpServer := do.MustInvoke[*fiber.App](injector)
	group.Go(func() error {
		// stop main process if HTTP server stopped
		defer stop()

		logger.InfoContext(ctx, "Started HTTP server", slog.Int("port", conf.HTTPServer.Port))
		if err := httpServer.Listen(fmt.Sprintf(":%d", conf.HTTPServer.Port)); err != nil {
			return errors.Wrap(err, "error during running HTTP server")
		}
		return nil
	})

	logger.InfoContext(ctx, "BRC-20 Indexer started")

	// Wait for interrupt signal or a stopped worker to gracefully stop the server
	<-ctx.Done()

	// Force shutdown if timeout exceeded or got signal again
	go func() {
		defer os.Exit(1)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		select {
		case <-ctx.Done():
			logger.FatalContext(ctx, "Received exit signal again. Force shutdown...")
		case <-time.After(shutdownTimeout + 15*time.Second):
			logger.FatalContext(ctx, "Shutdown timeout exceeded. Force shutdown...")
		}
	}()

	if err := injector.Shutdown(); err != nil {
		logger.PanicContext(ctx, "Failed while gracefully shutting down", slogx.Error(err))
	}

	if err := group.Wait(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
