// Package access resolves the access status of classified runs against the
// NCBI eutils registry. Lookup failure degrades to an unknown status; it
// never aborts the pipeline.
package access

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/dtnitsch/sra-classifier/models"
)

const (
	defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// NCBI's documented per-key request ceilings.
	keylessRequestsPerSecond = 3
	keyedRequestsPerSecond   = 10

	defaultHTTPTimeout = 15 * time.Second
)

// errNotResolvable marks accessions the registry cannot map to a record.
// Permanent: the resolver reports unknown without retrying.
var errNotResolvable = errors.New("accession not resolvable")

// RetryPolicy is the bounded-retry schedule for transient lookup failures.
type RetryPolicy struct {
	MaxAttempts int           // lookup attempts per request, default 3
	BaseDelay   time.Duration // first backoff delay, doubled per attempt, default 1s
}

// DefaultRetryPolicy retries three times with 1s, 2s, 4s backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// delay returns the backoff before the attempt following `attempt` (1-based).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// httpStatusError carries a non-2xx response for transient/permanent
// classification.
type httpStatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("eutils request: status %d", e.StatusCode)
}

// Client talks to the eutils esearch/esummary endpoints with rate limiting
// and bounded retry.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     RetryPolicy
	sleep      func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the eutils endpoint (useful for tests).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithRetryPolicy overrides the retry schedule.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithLimiter overrides the request rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// NewClient builds an eutils client. Supplying an API key raises the allowed
// request rate from 3/s to 10/s.
func NewClient(apiKey string, opts ...Option) *Client {
	rps := keylessRequestsPerSecond
	if apiKey != "" {
		rps = keyedRequestsPerSecond
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		policy:     DefaultRetryPolicy(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status resolves one run accession: esearch maps the accession to a numeric
// id, esummary classifies the record. "controlled" in the summary means
// controlled access; any other resolvable record is public.
func (c *Client) Status(ctx context.Context, accession string) (models.AccessStatus, error) {
	id, err := c.searchID(ctx, accession)
	if err != nil {
		return models.AccessUnknown, err
	}
	return c.summaryStatus(ctx, id)
}

// searchID resolves an accession to its registry id via esearch.
func (c *Client) searchID(ctx context.Context, accession string) (string, error) {
	params := url.Values{"db": {"sra"}, "term": {accession}}
	doc, err := c.getDoc(ctx, "esearch.fcgi", params)
	if err != nil {
		return "", err
	}

	// The html parser behind goquery lowercases element names, so the
	// eSearchResult <IdList><Id> path is matched in lowercase.
	id := strings.TrimSpace(doc.Find("idlist id").First().Text())
	if id == "" {
		return "", fmt.Errorf("%w: %s", errNotResolvable, accession)
	}
	return id, nil
}

// summaryStatus fetches the esummary DocSum for an id and classifies it.
func (c *Client) summaryStatus(ctx context.Context, id string) (models.AccessStatus, error) {
	params := url.Values{"db": {"sra"}, "id": {id}}
	doc, err := c.getDoc(ctx, "esummary.fcgi", params)
	if err != nil {
		return models.AccessUnknown, err
	}

	summary := doc.Find("docsum item").First().Text()
	if strings.TrimSpace(summary) == "" {
		return models.AccessUnknown, fmt.Errorf("%w: id %s has no summary", errNotResolvable, id)
	}
	if strings.Contains(strings.ToLower(summary), "controlled") {
		return models.AccessControlled, nil
	}
	return models.AccessPublic, nil
}

// getDoc performs one rate-limited, retried GET and parses the XML body.
func (c *Client) getDoc(ctx context.Context, endpoint string, params url.Values) (*goquery.Document, error) {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	target := c.baseURL + "/" + endpoint + "?" + params.Encode()

	attempts := c.policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		doc, err := c.getDocOnce(ctx, target)
		if err == nil {
			return doc, nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return nil, err
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("eutils %s: failed after %d attempts: %w", endpoint, attempts, lastErr)
}

func (c *Client) getDocOnce(ctx context.Context, target string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("eutils request: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eutils request: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryAfter, _ := time.ParseDuration(resp.Header.Get("Retry-After") + "s")
		return nil, &httpStatusError{StatusCode: resp.StatusCode, RetryAfter: retryAfter}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eutils request: parse response: %w", err)
	}
	return doc, nil
}

// retryDelay classifies an error as transient or terminal. Timeouts, rate
// limiting, and server errors retry with exponential backoff; everything else
// is terminal and the caller degrades to unknown.
func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts {
		return 0, false
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return statusErr.RetryAfter, true
			}
			return c.policy.delay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.policy.delay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.policy.delay(attempt), true
	}

	return 0, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
