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

	supersdr "github.com/ThiagoDev202/supersdr-prova-tecnica"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/adapters/gojob"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/adapters/gologger"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/classifiers"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	amqpevents "github.com/ThiagoDev202/supersdr-prova-tecnica/events/amqp"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/httpapi"
	sqlstore "github.com/ThiagoDev202/supersdr-prova-tecnica/store/sql"
	"github.com/spf13/cobra"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func serveCmd() *cobra.Command {
	var (
		overrides   runtimeOverrides
		autoMigrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), overrides, autoMigrate)
		},
	}
	cmd.Flags().StringVar(&overrides.addr, "addr", "", "listen address, overrides http.addr")
	cmd.Flags().StringVar(&overrides.mode, "classification-mode", "", "inline or async, overrides classification.mode")
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply migrations before serving")
	return cmd
}

func runServe(parent context.Context, overrides runtimeOverrides, autoMigrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := newLoggerProvider(logLevel)
	logger := provider.GetLogger(gologger.LoggerService)

	cfg, err := loadConfig(ctx, overrides)
	if err != nil {
		return err
	}

	client, err := openDatabase(ctx, cfg.Database, logLevel == "trace")
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()
	if autoMigrate {
		if err := client.Migrate(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	repositories, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		return err
	}
	if cfg.Cache.TTLSeconds > 0 {
		if err := repositories.EnableCache(time.Duration(cfg.Cache.TTLSeconds) * time.Second); err != nil {
			return err
		}
	}

	classifier, err := classifiers.New(cfg.Classifier, &http.Client{})
	if err != nil {
		return err
	}

	opts := append(gologger.ServiceOptions(provider, nil),
		core.WithRepository(repositories.MessageRepository()),
		core.WithClassifier(classifier),
	)

	var jobs *gojob.MemoryQueue
	if cfg.ClassificationMode() == core.ClassificationModeAsync {
		jobs = gojob.NewMemoryQueue(0)
		defer jobs.Close()
		opts = append(opts, core.WithClassificationScheduler(gojob.NewScheduler(jobs)))
	}

	if cfg.Events.AMQPURL != "" {
		publisher, err := amqpevents.Dial(cfg.Events.AMQPURL, cfg.Events.Exchange,
			amqpevents.WithLogger(gologger.Named(gologger.LoggerEvents, provider, nil)),
		)
		if err != nil {
			return err
		}
		defer func() { _ = publisher.Close() }()
		opts = append(opts, core.WithEventPublisher(publisher))
	}

	facade, err := supersdr.NewFacade(cfg, supersdr.WithServiceOptions(opts...))
	if err != nil {
		return err
	}
	defer facade.Close()

	workerDone := make(chan error, 1)
	if jobs != nil {
		worker, err := gojob.NewWorker(jobs, facade.Bindings(),
			gojob.WithHook(gologger.WorkerHook(provider, nil)),
		)
		if err != nil {
			return err
		}
		go func() { workerDone <- worker.Run(ctx) }()
	} else {
		workerDone <- nil
	}

	httpLogger := gologger.Named(gologger.LoggerHTTP, provider, nil)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(facade.HTTPDependencies(httpLogger, requestTimeout)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr, "classification_mode", cfg.ClassificationMode())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			<-workerDone
			return fmt.Errorf("http server: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}
	stop()
	if err := <-workerDone; err != nil {
		logger.Warn("classification worker stopped with error", "error", err)
	}
	return nil
}
