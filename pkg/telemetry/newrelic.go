// Package telemetry reports deletion activity to New Relic.
package telemetry

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/yourorg/azure-blob-kit/pkg/logging"
)

// NewRelicClient wraps the New Relic agent. A disabled client is valid
// and turns every call into a no-op.
type NewRelicClient struct {
	app     *newrelic.Application
	logger  logging.Logger
	enabled bool
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	LicenseKey string
	AppName    string
	Enabled    bool
}

// NewNewRelicClient creates a New Relic client. Without a license key or
// with Enabled false it returns a disabled client rather than failing.
func NewNewRelicClient(cfg NewRelicConfig, logger logging.Logger) (*NewRelicClient, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		logger.Info("New Relic disabled or license key not provided")
		return &NewRelicClient{logger: logger}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	logger.Info("New Relic client initialized", logging.NewField("app_name", cfg.AppName))
	return &NewRelicClient{app: app, logger: logger, enabled: true}, nil
}

// RecordDeletion reports a completed blob deletion.
func (n *NewRelicClient) RecordDeletion(container, blob, snapshotsMethod, requestID string, durationMs int64) {
	if !n.enabled || n.app == nil {
		return
	}
	n.app.RecordCustomEvent("BlobDeletion", map[string]interface{}{
		"container":        container,
		"blob":             blob,
		"snapshots_method": snapshotsMethod,
		"request_id":       requestID,
		"duration_ms":      durationMs,
	})
}

// RecordFailure reports a failed deletion attempt.
func (n *NewRelicClient) RecordFailure(container, blob, errorCode string, statusCode int) {
	if !n.enabled || n.app == nil {
		return
	}
	n.app.RecordCustomEvent("BlobDeletionFailure", map[string]interface{}{
		"container":   container,
		"blob":        blob,
		"error_code":  errorCode,
		"status_code": statusCode,
	})
}

// Shutdown flushes pending data and stops the agent.
func (n *NewRelicClient) Shutdown(timeout time.Duration) {
	if n.enabled && n.app != nil {
		n.app.Shutdown(timeout)
	}
}
