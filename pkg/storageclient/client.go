// Package storageclient owns the transport side of storage operations:
// it performs signed HTTP requests against a storage account endpoint and
// validates that responses carry the status an operation expects. Request
// construction for individual operations lives with the operation
// builders in pkg/blob.
package storageclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"golang.org/x/time/rate"

	"github.com/yourorg/azure-blob-kit/pkg/errors"
	"github.com/yourorg/azure-blob-kit/pkg/logging"
	"github.com/yourorg/azure-blob-kit/pkg/utils"
)

const (
	defaultAPIVersion = "2021-12-02"
	userAgent         = "azure-blob-kit/1.0"

	// tokenScope is the OAuth scope for Azure Storage data-plane access.
	tokenScope = "https://storage.azure.com/.default"
)

// Client performs a single HTTP request against the storage service and
// generates resource URIs for the account it is bound to. mutate is
// applied to the outgoing headers after the client's defaults; a nil body
// sends an empty request body.
type Client interface {
	PerformRequest(ctx context.Context, uri, method string, mutate func(http.Header), body io.Reader) (*http.Response, error)
	BlobURL(container, blob string) string
}

// HTTPClient is the production Client implementation. It handles
// endpoint resolution, standard storage headers, authentication, client
// side throttling, and transport-level retries. It never interprets
// response status codes; that stays with CheckStatusAndExtract.
type HTTPClient struct {
	endpoint   string
	apiVersion string
	httpClient *http.Client
	logger     logging.Logger

	credential azcore.TokenCredential
	sasQuery   string

	limiter      *rate.Limiter
	retryConfig  utils.RetryConfig
	retryEnabled bool
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = logger }
}

// WithAPIVersion overrides the x-ms-version header value.
func WithAPIVersion(version string) Option {
	return func(c *HTTPClient) { c.apiVersion = version }
}

// WithEndpoint overrides the account-derived endpoint, e.g. for an
// Azurite emulator or a test server.
func WithEndpoint(endpoint string) Option {
	return func(c *HTTPClient) { c.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithTokenCredential authenticates requests with bearer tokens minted by
// cred (typically azidentity.NewDefaultAzureCredential).
func WithTokenCredential(cred azcore.TokenCredential) Option {
	return func(c *HTTPClient) { c.credential = cred }
}

// WithSASQuery authenticates requests by appending a pre-minted shared
// access signature query string (see AccountSAS).
func WithSASQuery(query string) Option {
	return func(c *HTTPClient) { c.sasQuery = strings.TrimPrefix(query, "?") }
}

// WithRateLimit throttles outgoing requests client-side.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *HTTPClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithRetry retries transport-level failures (never HTTP error statuses)
// with exponential backoff. Requests carrying a body are not retried.
func WithRetry(cfg utils.RetryConfig) Option {
	return func(c *HTTPClient) {
		c.retryConfig = cfg
		c.retryEnabled = cfg.MaxAttempts > 1
	}
}

// NewHTTPClient creates a client bound to the given storage account.
// The endpoint defaults to https://<account>.blob.core.windows.net and
// can be overridden with WithEndpoint.
func NewHTTPClient(accountName string, opts ...Option) (*HTTPClient, error) {
	c := &HTTPClient{
		apiVersion: defaultAPIVersion,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logging.NewNopLogger(),
	}
	if accountName != "" {
		c.endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.endpoint == "" {
		return nil, errors.NewConfigurationError("storage account name or endpoint is required", nil)
	}

	return c, nil
}

// BlobURL returns the resource URI for a blob. Each path segment of the
// blob name is escaped individually so virtual directories survive.
func (c *HTTPClient) BlobURL(container, blob string) string {
	return c.endpoint + "/" + url.PathEscape(container) + "/" + escapeBlobPath(blob)
}

func escapeBlobPath(blob string) string {
	segments := strings.Split(blob, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// PerformRequest issues one HTTP request. Construction happens in full
// before the round trip: default headers, then the caller's mutator,
// then authentication. Transport failures come back as TRANSPORT_ERROR;
// any HTTP response, whatever its status, is returned as-is.
func (c *HTTPClient) PerformRequest(ctx context.Context, uri, method string, mutate func(http.Header), body io.Reader) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.NewTransportError(err)
		}
	}

	requestURI := uri
	if c.sasQuery != "" {
		sep := "?"
		if strings.Contains(uri, "?") {
			sep = "&"
		}
		requestURI = uri + sep + c.sasQuery
	}

	attempt := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, requestURI, body)
		if err != nil {
			return nil, err
		}

		req.Header.Set("x-ms-version", c.apiVersion)
		req.Header.Set("x-ms-date", time.Now().UTC().Format(http.TimeFormat))
		req.Header.Set("User-Agent", userAgent)

		if mutate != nil {
			mutate(req.Header)
		}

		if c.credential != nil {
			token, err := c.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{tokenScope}})
			if err != nil {
				return nil, fmt.Errorf("acquiring token: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+token.Token)
		}

		return c.httpClient.Do(req)
	}

	c.logger.Debug("Performing storage request",
		logging.NewField("method", method),
		logging.NewField("uri", uri),
	)

	var resp *http.Response
	var err error
	if c.retryEnabled && body == nil {
		resp, err = utils.RetryWithResult(ctx, c.retryConfig, nil, attempt)
	} else {
		resp, err = attempt()
	}
	if err != nil {
		c.logger.Error("Storage request failed", logging.NewField("error", err))
		return nil, errors.NewTransportError(err)
	}

	return resp, nil
}

// CheckStatusAndExtract validates that resp carries the expected status
// code, draining and closing the body either way. On a match it returns
// the response headers and body; on a mismatch it returns
// UNEXPECTED_STATUS carrying the actual code and body.
func CheckStatusAndExtract(resp *http.Response, expected int) (http.Header, []byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.NewTransportError(fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode != expected {
		return nil, nil, errors.NewUnexpectedStatusError(resp.StatusCode, body)
	}

	return resp.Header, body, nil
}
