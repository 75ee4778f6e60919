package fetch

import (
	"context"
	"log"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	// UserAgent for scrape requests
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	defaultBaseline   = 10 * time.Second
	defaultPlateau    = 20 * time.Second
	defaultMaxRetries = 999999 // effectively retry until it works
	defaultTimeout    = 30 * time.Second
)

// rateLimitMarkers are strings the source site puts in a 200 body when it is
// throttling us instead of answering 429.
var rateLimitMarkers = []string{
	"rate limited",
}

// challengeMarkers identify an anti-bot interstitial. A page carrying one of
// these is a block, not data, and retrying will not get past it.
var challengeMarkers = []string{
	"checking your browser",
	"just a moment",
	"cf-browser-verification",
	"cf-challenge",
}

// Options configures a Client. Zero values fall back to production defaults;
// tests shrink the delays to keep runs fast.
type Options struct {
	Baseline          time.Duration
	Plateau           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Response is the raw result of a successful fetch.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client issues outbound HTTP requests with rate-limit detection and
// adaptive retry. One Client is shared by all crawl goroutines so that the
// retry delay reflects the remote limiter's view of this process.
type Client struct {
	http       *resty.Client
	policy     *RetryPolicy
	limiter    *rate.Limiter
	maxRetries int
}

// New creates a fetch client. The transport goes through the cloudflare
// bypass round tripper so plain requests are not rejected on TLS
// fingerprint alone.
func New(opts Options) *Client {
	if opts.Baseline <= 0 {
		opts.Baseline = defaultBaseline
	}
	if opts.Plateau <= 0 {
		opts.Plateau = defaultPlateau
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("User-Agent", UserAgent)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	return &Client{
		http:       httpClient,
		policy:     NewRetryPolicy(opts.Baseline, opts.Plateau),
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2),
		maxRetries: opts.MaxRetries,
	}
}

// Policy exposes the shared retry policy, mainly for tests and logging.
func (c *Client) Policy() *RetryPolicy {
	return c.policy
}

// Do fetches url with the given headers. 429 responses (and 200 responses
// carrying a rate-limit marker) are retried after the shared adaptive delay.
// Everything else resolves on the first attempt: 404 as NotFound, anti-bot
// challenges as Blocked, remaining HTTP/network failures as Transport.
func (c *Client) Do(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	var lastStatus int

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindTransport, URL: url, Err: err}
		}

		resp, err := c.http.R().SetContext(ctx).SetHeaders(headers).Get(url)
		if err != nil {
			return nil, &Error{Kind: KindTransport, URL: url, Err: err}
		}

		status := resp.StatusCode()
		body := resp.Body()
		lastStatus = status

		if status == 429 || (status == 200 && containsAny(body, rateLimitMarkers)) {
			delay := c.policy.RecordRateLimit()
			log.Printf("[fetch] rate limited (attempt %d), waiting %v before retry: %s", attempt, delay, url)
			select {
			case <-ctx.Done():
				return nil, &Error{Kind: KindTransport, URL: url, Err: ctx.Err()}
			case <-time.After(delay):
			}
			continue
		}

		if containsAny(body, challengeMarkers) {
			return nil, &Error{Kind: KindBlocked, URL: url, StatusCode: status}
		}

		if status == 404 {
			return nil, &Error{Kind: KindNotFound, URL: url, StatusCode: status}
		}

		if status >= 400 {
			return nil, &Error{Kind: KindTransport, URL: url, StatusCode: status}
		}

		c.policy.RecordSuccess()
		return &Response{StatusCode: status, Body: body}, nil
	}

	log.Printf("[fetch] retry budget exhausted for %s", url)
	return nil, &Error{Kind: KindRateLimited, URL: url, StatusCode: lastStatus}
}

func containsAny(body []byte, markers []string) bool {
	if len(body) == 0 {
		return false
	}
	lower := strings.ToLower(string(body))
	for _, marker := range markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
