package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/nbmfetch/internal/models"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 20 * time.Second // per request, probes and downloads alike
	userAgent      = "nbmfetch/1.0 (+https://github.com/thesavant42/nbmfetch)"
)

// ArchiveClient talks to the NBM viewer CSV archive
type ArchiveClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ClientOptions configures an ArchiveClient
type ClientOptions struct {
	BaseURL           string
	Timeout           time.Duration // 0 means 20s
	RequestsPerSecond float64       // 0 means unlimited
	Logger            *log.Logger   // nil silences logging
}

// NewArchiveClient creates a new archive client
func NewArchiveClient(opts ClientOptions) *ArchiveClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	httpClient := &http.Client{Timeout: timeout}
	// Some archive front-ends hand out session cookies on the first hit
	if jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err == nil {
		httpClient.Jar = jar
	}

	return &ArchiveClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     opts.Logger,
	}
}

// BuildRunURL renders the archive location of one station CSV:
//
//	{base}/{yyyy}/{mm}/{dd}/{version}/{hh}/{station}.csv
func BuildRunURL(base string, key models.SearchKey) string {
	y, m, d := key.Date.Date()
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s/%02d/%s.csv",
		strings.TrimRight(base, "/"), y, int(m), d, key.Version, key.Hour, key.Station)
}

// RunURL returns the URL for key under this client's base
func (c *ArchiveClient) RunURL(key models.SearchKey) string {
	return BuildRunURL(c.baseURL, key)
}

// Probe checks whether url exists. HEAD is tried first; when the server
// blocks HEAD (403/405) or the request fails outright, a GET decides.
// Only a 200 counts as existing.
func (c *ArchiveClient) Probe(ctx context.Context, url string) models.ProbeOutcome {
	resp, err := c.send(ctx, http.MethodHead, url)
	if err == nil {
		resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			return models.ProbeExists
		case http.StatusForbidden, http.StatusMethodNotAllowed:
			c.debug("HEAD blocked, falling back to GET", "url", url, "status", resp.StatusCode)
		default:
			return models.ProbeAbsent
		}
	} else {
		c.debug("HEAD failed, falling back to GET", "url", url, "err", err)
	}

	resp, err = c.send(ctx, http.MethodGet, url)
	if err != nil {
		c.debug("GET fallback failed", "url", url, "err", err)
		return models.ProbeFailed
	}
	// Existence only; the body is fetched later by Download
	resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return models.ProbeExists
	}
	return models.ProbeAbsent
}

// Download fetches the raw bytes at url
func (c *ArchiveClient) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if c.logger != nil {
		c.logger.Info("CSV downloaded", "url", url, "bytes", len(body))
	}
	return body, nil
}

// send issues one rate-limited request. Transport failures come back as
// *TransportError.
func (c *ArchiveClient) send(ctx context.Context, method, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	return resp, nil
}

func (c *ArchiveClient) debug(msg string, keyvals ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, keyvals...)
	}
}
