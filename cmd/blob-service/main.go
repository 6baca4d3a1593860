package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/azure-blob-kit/pkg/audit"
	"github.com/yourorg/azure-blob-kit/pkg/auth"
	"github.com/yourorg/azure-blob-kit/pkg/blob"
	"github.com/yourorg/azure-blob-kit/pkg/config"
	"github.com/yourorg/azure-blob-kit/pkg/errors"
	"github.com/yourorg/azure-blob-kit/pkg/events"
	"github.com/yourorg/azure-blob-kit/pkg/httpservice"
	"github.com/yourorg/azure-blob-kit/pkg/logging"
	"github.com/yourorg/azure-blob-kit/pkg/storageclient"
	"github.com/yourorg/azure-blob-kit/pkg/telemetry"
	"github.com/yourorg/azure-blob-kit/pkg/utils"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	client     storageclient.Client
	publisher  events.Publisher
	recorder   audit.Recorder
	telemetry  *telemetry.NewRelicClient
	jwtService *auth.JWTService
}

func main() {
	cfg, err := config.LoadConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync(logger)

	logger.Info("Starting blob service",
		logging.NewField("version", cfg.AppVersion),
		logging.NewField("environment", cfg.Environment))

	client, err := buildStorageClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to create storage client", logging.NewField("error", err))
		os.Exit(1)
	}

	var publisher events.Publisher
	if cfg.ServiceBusNamespace == "" {
		logger.Info("Using mock event publisher (no Service Bus namespace configured)")
		publisher = events.NewMockPublisher()
	} else {
		connectionString := fmt.Sprintf(
			"Endpoint=sb://%s.servicebus.windows.net/;SharedAccessKeyName=%s;SharedAccessKey=%s",
			cfg.ServiceBusNamespace, cfg.ServiceBusKeyName, cfg.ServiceBusKeyValue)
		publisher, err = events.NewServiceBusPublisher(connectionString, cfg.ServiceBusQueue, logger)
		if err != nil {
			logger.Error("Failed to create event publisher", logging.NewField("error", err))
			os.Exit(1)
		}
	}

	var recorder audit.Recorder
	if cfg.AuditPostgresDSN == "" {
		logger.Info("Using in-memory audit recorder (no Postgres DSN configured)")
		recorder = audit.NewMemoryRecorder()
	} else {
		recorder, err = audit.NewPostgresRecorder(cfg.AuditPostgresDSN, logger)
		if err != nil {
			logger.Error("Failed to create audit recorder", logging.NewField("error", err))
			os.Exit(1)
		}
	}
	defer recorder.Close()

	nr, err := telemetry.NewNewRelicClient(telemetry.NewRelicConfig{
		LicenseKey: cfg.NewRelicLicenseKey,
		AppName:    cfg.NewRelicAppName,
		Enabled:    cfg.NewRelicEnabled,
	}, logger)
	if err != nil {
		logger.Error("Failed to create telemetry client", logging.NewField("error", err))
		os.Exit(1)
	}

	var jwtService *auth.JWTService
	if cfg.AuthSecret != "" {
		jwtService, err = auth.NewJWTService(cfg.AuthSecret, time.Hour, logger)
		if err != nil {
			logger.Error("Failed to create JWT service", logging.NewField("error", err))
			os.Exit(1)
		}
	} else {
		logger.Warn("Authentication disabled (no AUTH_SECRET configured)")
	}

	app := &App{
		config:     cfg,
		logger:     logger,
		client:     client,
		publisher:  publisher,
		recorder:   recorder,
		telemetry:  nr,
		jwtService: jwtService,
	}

	server, err := httpservice.NewServer(httpservice.ServerConfig{
		Port:           cfg.HTTPPort,
		ReadTimeout:    time.Duration(cfg.HTTPReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.HTTPWriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.HTTPIdleTimeout) * time.Second,
		Logger:         logger,
		RateLimitRPS:   cfg.HTTPRateLimitRPS,
		RateLimitBurst: cfg.HTTPRateLimitBurst,
	}, app)
	if err != nil {
		logger.Error("Failed to create server", logging.NewField("error", err))
		os.Exit(1)
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", logging.NewField("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", logging.NewField("error", err))
	}
	if err := publisher.Close(ctx); err != nil {
		logger.Error("Publisher shutdown error", logging.NewField("error", err))
	}
	nr.Shutdown(10 * time.Second)
}

// buildStorageClient assembles the transport client from configuration:
// endpoint override for emulators, managed identity or account SAS for
// auth, plus retry and client-side throttling.
func buildStorageClient(cfg *config.Config, logger logging.Logger) (storageclient.Client, error) {
	opts := []storageclient.Option{
		storageclient.WithLogger(logger),
		storageclient.WithAPIVersion(cfg.StorageAPIVersion),
		storageclient.WithRetry(utils.RetryConfig{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: time.Duration(cfg.RetryInitialDelay) * time.Millisecond,
			MaxDelay:     time.Duration(cfg.RetryMaxDelay) * time.Millisecond,
			Multiplier:   2.0,
		}),
	}

	if cfg.StorageEndpoint != "" {
		opts = append(opts, storageclient.WithEndpoint(cfg.StorageEndpoint))
	}
	if cfg.ClientRateLimitRPS > 0 {
		opts = append(opts, storageclient.WithRateLimit(cfg.ClientRateLimitRPS, cfg.ClientRateLimitBurst))
	}

	switch {
	case cfg.UseManagedIdentity:
		cred, err := storageclient.DefaultCredential()
		if err != nil {
			return nil, err
		}
		opts = append(opts, storageclient.WithTokenCredential(cred))
	case cfg.StorageAccountKey != "":
		sasQuery, err := storageclient.AccountSAS(cfg.StorageAccountName, cfg.StorageAccountKey,
			time.Duration(cfg.SASExpiryMinutes)*time.Minute)
		if err != nil {
			return nil, err
		}
		opts = append(opts, storageclient.WithSASQuery(sasQuery))
	}

	return storageclient.NewHTTPClient(cfg.StorageAccountName, opts...)
}

// Register implements the httpservice.Handler interface.
func (a *App) Register(router *gin.Engine) {
	api := router.Group("/api/v1")
	if a.jwtService != nil {
		api.Use(auth.Middleware(a.jwtService, a.logger))
	}
	api.DELETE("/containers/:container/blobs/*blob", a.handleDeleteBlob)
}

// DeleteBlobQuery are the query parameters of the delete endpoint.
type DeleteBlobQuery struct {
	Snapshots string `form:"snapshots" binding:"required" validate:"oneof=include only"`
	Timeout   string `form:"timeout" validate:"omitempty,number"`
}

func (a *App) handleDeleteBlob(c *gin.Context) {
	var query DeleteBlobQuery
	if !httpservice.ValidateQuery(c, &query) {
		return
	}

	container := c.Param("container")
	blobName := c.Param("blob")
	// Wildcard params keep their leading slash.
	if len(blobName) > 0 && blobName[0] == '/' {
		blobName = blobName[1:]
	}

	method, err := blob.ParseDeleteSnapshotsMethod(query.Snapshots)
	if err != nil {
		httpservice.HandleError(c, errors.NewConfigurationError(err.Error(), nil))
		return
	}

	builder := blob.NewDeleteBlobBuilder(a.client).
		WithContainerName(container).
		WithBlobName(blobName).
		WithDeleteSnapshotsMethod(method)

	if query.Timeout != "" {
		seconds, err := strconv.ParseUint(query.Timeout, 10, 64)
		if err != nil {
			httpservice.HandleError(c, errors.NewConfigurationError("invalid timeout", err))
			return
		}
		builder = builder.WithTimeout(seconds)
	}

	if leaseHeader := c.GetHeader("x-ms-lease-id"); leaseHeader != "" {
		leaseID, err := blob.ParseLeaseID(leaseHeader)
		if err != nil {
			httpservice.HandleError(c, errors.NewConfigurationError("invalid lease id", err))
			return
		}
		builder = builder.WithLeaseID(leaseID)
	}

	clientRequestID := c.GetHeader("x-ms-client-request-id")
	if clientRequestID == "" {
		clientRequestID = utils.GenerateClientRequestID()
	}
	builder = builder.WithClientRequestID(clientRequestID)

	logger := a.logger.With(
		logging.NewField("operation", "delete_blob"),
		logging.NewField("container", container),
		logging.NewField("blob", blobName))

	start := time.Now()
	resp, err := builder.Finalize(c.Request.Context())
	if err != nil {
		se := errors.FromError(err)
		logger.WithError(err).Error("Delete failed", logging.NewField("code", string(se.Code)))
		a.telemetry.RecordFailure(container, blobName, string(se.Code), se.StatusCode)
		a.recordAudit(c, audit.Entry{
			Container:       container,
			Blob:            blobName,
			SnapshotsMethod: method.String(),
			ClientRequestID: clientRequestID,
			Outcome:         audit.OutcomeFailed,
			StatusCode:      se.StatusCode,
		})
		httpservice.HandleError(c, err)
		return
	}

	logger.Info("Blob deleted", logging.NewField("request_id", resp.RequestID))
	a.telemetry.RecordDeletion(container, blobName, method.String(), resp.RequestID,
		time.Since(start).Milliseconds())

	a.recordAudit(c, audit.Entry{
		Container:       container,
		Blob:            blobName,
		SnapshotsMethod: method.String(),
		RequestID:       resp.RequestID,
		ClientRequestID: clientRequestID,
		Outcome:         audit.OutcomeDeleted,
		StatusCode:      202,
	})

	event := events.DeletionEvent{
		Container:       container,
		Blob:            blobName,
		SnapshotsMethod: method.String(),
		RequestID:       resp.RequestID,
		ClientRequestID: clientRequestID,
		DeletedAt:       time.Now().UTC(),
	}
	if err := a.publisher.PublishDeletion(c.Request.Context(), event); err != nil {
		// The blob is gone; a lost notification must not fail the request.
		logger.WithError(err).Warn("Failed to publish deletion event")
	}

	httpservice.SuccessResponse(c, gin.H{
		"request_id":        resp.RequestID,
		"client_request_id": resp.ClientRequestID,
		"version":           resp.Version,
	})
}

func (a *App) recordAudit(c *gin.Context, entry audit.Entry) {
	if err := a.recorder.Record(c.Request.Context(), entry); err != nil {
		a.logger.WithError(err).Warn("Failed to record audit entry")
	}
}
