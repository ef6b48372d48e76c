package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/receipts-extractor/internal/app"
	"github.com/joseph-ayodele/receipts-extractor/internal/async"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
	"github.com/joseph-ayodele/receipts-extractor/internal/export"
	"github.com/joseph-ayodele/receipts-extractor/internal/ingest"
	"github.com/joseph-ayodele/receipts-extractor/internal/receipts"
	"github.com/joseph-ayodele/receipts-extractor/internal/repository"
	"github.com/joseph-ayodele/receipts-extractor/internal/rules"
	"github.com/joseph-ayodele/receipts-extractor/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	userRules, err := rules.Parse(cfg.Rules)
	if err != nil {
		logger.Error("invalid RECEIPT_RULES", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, health, err := server.OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open receipt store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	jobs, err := repository.OpenJobStore(cfg.Store.JobsDBPath)
	if err != nil {
		logger.Error("failed to open job store", "path", cfg.Store.JobsDBPath, "error", err)
		os.Exit(1)
	}
	defer jobs.Close()

	pipe, err := app.BuildPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer pipe.Close()

	svc := receipts.NewService(pipe.Processor, store, logger,
		receipts.WithRules(userRules),
		receipts.WithParser(pipe.Parser),
		receipts.WithJobs(jobs),
		receipts.WithExporter(export.NewService(logger)),
	)
	queue := async.NewProcessorQueue(svc, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)
	svc.SetQueue(queue)

	if cfg.InboxDir != "" {
		inbox := ingest.NewInbox(svc, cfg.InboxDir, cfg.OCR.Language, logger)
		go func() {
			if err := inbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("inbox watcher stopped", "dir", cfg.InboxDir, "error", err)
			}
		}()
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.NewRouter(svc, health, logger),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      3 * time.Minute,
	}
	go func() {
		logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcSrv, healthSrv := server.NewGRPCServer(svc, logger)
	go func() {
		logger.Info("grpc listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthSrv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	grpcSrv.GracefulStop()
	queue.Shutdown(shutdownCtx)
}
