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

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/comms-analyzer/internal/application"
	appanalysis "github.com/bryanwahyu/comms-analyzer/internal/application/analysis"
	appdocs "github.com/bryanwahyu/comms-analyzer/internal/application/documents"
	"github.com/bryanwahyu/comms-analyzer/internal/config"
	"github.com/bryanwahyu/comms-analyzer/internal/domain/document"
	"github.com/bryanwahyu/comms-analyzer/internal/infra/ai/openai"
	"github.com/bryanwahyu/comms-analyzer/internal/infra/httpserver"
	"github.com/bryanwahyu/comms-analyzer/internal/infra/remote"
	minioStore "github.com/bryanwahyu/comms-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/comms-analyzer/internal/logger"
	"github.com/bryanwahyu/comms-analyzer/internal/middleware"
)

func main() {
	// config.yaml is optional; CONFIG_PATH must exist when set
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.InitLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server.exit")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx := context.Background()

	llm, err := openai.NewClient(openai.Config{
		Provider:   cfg.LLM.Provider,
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		APIVersion: cfg.LLM.APIVersion,
		Timeout:    cfg.LLM.Timeout,
		Reasoning:  cfg.LLM.ReasoningModel,
	}, log.WithField("component", "llm"))
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}
	analysisSvc := appanalysis.NewService(llm, application.SystemClock{}, log.WithField("component", "analysis"))

	httpClient := remote.NewHTTPClient(cfg.Documents.Timeout)
	remoteLog := log.WithField("component", "remote")

	health := map[string]middleware.HealthChecker{}
	var issuer document.CredentialIssuer
	var exposed document.CredentialIssuer
	switch cfg.Storage.Provider {
	case config.StorageMinio:
		m := cfg.Storage.Minio
		store, err := minioStore.New(ctx, minioStore.Options{
			Endpoint:     m.Endpoint,
			Region:       m.Region,
			Bucket:       m.BucketName,
			AccessKey:    m.AccessKey,
			SecretKey:    m.SecretKey,
			UseSSL:       m.UseSSL,
			Prefix:       m.Prefix,
			Expiry:       m.Expiry,
			EnsureBucket: m.EnsureBucket,
		})
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		issuer, exposed = store, store
		health[store.Name()] = store
	default:
		issuer = remote.NewCredentialClient(cfg.Documents.CredentialURL, httpClient, remoteLog)
	}

	policy := document.DefaultPolicy()
	policy.MaxBytes = cfg.Documents.MaxUploadBytes
	docsSvc := &appdocs.Service{
		Policy:      policy,
		Credentials: issuer,
		Uploader:    remote.NewBlobUploader(httpClient, remoteLog),
		Extractor:   remote.NewExtractClient(cfg.Documents.ExtractURL, httpClient, remoteLog),
		Log:         log.WithField("component", "documents"),
	}

	limiter := middleware.NewRateLimiter(cfg.Limits.RequestsPerSecond, cfg.Limits.Burst)
	stopSweep := make(chan struct{})
	defer close(stopSweep)
	go limiter.Run(stopSweep)

	handler := httpserver.NewRouter(analysisSvc, docsSvc, httpserver.Options{
		MaxTextChars:   cfg.Limits.MaxTextChars,
		MaxUploadBytes: cfg.Documents.MaxUploadBytes,
		PreviewChars:   cfg.Documents.PreviewChars,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Issuer:         exposed,
		Health:         health,
		RateLimiter:    limiter,
		Log:            log.WithField("component", "http"),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":     srv.Addr,
			"llm":      cfg.LLM.Provider,
			"storage":  cfg.Storage.Provider,
			"max_text": cfg.Limits.MaxTextChars,
		}).Info("server.listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	log.Info("server.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
