// Package translate drives machine translation of a flattened ledger
// through an external translation service, one entry at a time.
//
// The pipeline stays single-threaded; the host runs this stage on its own
// goroutine so a control surface can stay responsive. Cancellation is
// cooperative via context.Context, checked between entries: the in-flight
// entry finishes, and the returned ledger is always well-formed — entries
// already translated keep their translation, the rest keep source text.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resbundle/resbundle/resfile"
)

// ErrPermanent marks service failures that retrying cannot fix (unsupported
// payload or language). The entry keeps its original text without retry.
var ErrPermanent = errors.New("permanent translation failure")

// Client is the external translation service collaborator. Implementations
// classify unrecoverable failures by wrapping ErrPermanent; any other error
// is treated as transient and retried with backoff.
type Client interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options controls a ledger translation pass.
type Options struct {
	// Source is the source language code (e.g. "en").
	Source string
	// Target is the target language code passed to the service.
	Target string
	// Delay is the enforced minimum delay between service calls.
	// Default 600ms.
	Delay time.Duration
	// MaxRetries is the number of retries per entry on transient failures.
	// Default 3.
	MaxRetries int
	// Reuse maps names to previously translated text; entries found here
	// are applied without a service call (incremental translation).
	Reuse map[string]string
	// OnLog receives informational messages. May be nil.
	OnLog func(format string, args ...any)
	// OnError receives per-entry failure warnings. Falls back to OnLog.
	OnError func(format string, args ...any)
	// OnProgress is called after each entry with (done, total).
	OnProgress func(done, total int)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
		return
	}
	o.log(format, args...)
}

func (o *Options) effectiveDelay() time.Duration {
	if o.Delay > 0 {
		return o.Delay
	}
	return 600 * time.Millisecond
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

// Stats reports what a translation pass did.
type Stats struct {
	// Total is the number of ledger entries considered.
	Total int
	// Translated counts entries translated by the service.
	Translated int
	// Reused counts entries filled from Options.Reuse.
	Reused int
	// Blank counts empty entries carried over untouched.
	Blank int
	// Failed counts entries that kept source text after service failures.
	Failed int
}

// ---------------------------------------------------------------------------
// Ledger translation
// ---------------------------------------------------------------------------

// Ledger translates every non-blank entry of src in sorted name order and
// returns a new ledger. On cancellation the partial result is returned
// together with ctx.Err(); it is safe to persist.
func Ledger(ctx context.Context, client Client, src *resfile.File, opts Options) (*resfile.File, *Stats, error) {
	out := src.Clone()
	names := src.Names()
	stats := &Stats{Total: len(names)}
	delay := opts.effectiveDelay()
	called := false

	for i, name := range names {
		select {
		case <-ctx.Done():
			return out, stats, ctx.Err()
		default:
		}

		text, _ := src.Get(name)
		if strings.TrimSpace(text) == "" {
			stats.Blank++
			opts.progress(i+1, stats.Total)
			continue
		}
		if reused, ok := opts.Reuse[name]; ok && reused != "" {
			out.Set(name, reused)
			stats.Reused++
			opts.progress(i+1, stats.Total)
			continue
		}

		// Minimum inter-call spacing, only between real service calls.
		if called {
			select {
			case <-ctx.Done():
				return out, stats, ctx.Err()
			case <-time.After(delay):
			}
		}
		called = true

		translated, err := translateWithRetry(ctx, client, text, opts)
		switch {
		case err == nil:
			out.Set(name, translated)
			stats.Translated++
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return out, stats, err
		default:
			// Entry keeps its source text; the ledger stays complete.
			stats.Failed++
			opts.logError("translating %q failed, keeping source text: %v", name, err)
		}
		opts.progress(i+1, stats.Total)
	}

	return out, stats, nil
}

func (o *Options) progress(done, total int) {
	if o.OnProgress != nil {
		o.OnProgress(done, total)
	}
}

// translateWithRetry calls the service, retrying transient failures with
// exponential backoff. Permanent failures return immediately.
func translateWithRetry(ctx context.Context, client Client, text string, opts Options) (string, error) {
	maxRetries := opts.effectiveMaxRetries()
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		translated, err := client.Translate(ctx, text, opts.Source, opts.Target)
		if err == nil {
			return translated, nil
		}
		if errors.Is(err, ErrPermanent) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		lastErr = err
		if attempt < maxRetries {
			wait := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			opts.log("transient failure (attempt %d/%d), retrying in %v: %v",
				attempt+1, maxRetries, wait, err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return "", fmt.Errorf("exhausted %d retries: %w", maxRetries, lastErr)
}

// ---------------------------------------------------------------------------
// Google client
// ---------------------------------------------------------------------------

// googleBaseURL is the public translate endpoint (no API key required).
const googleBaseURL = "https://translate.googleapis.com/translate_a/single"

// Google translates through the public Google Translate web endpoint.
type Google struct {
	// BaseURL overrides the endpoint (tests point it at a fake server).
	BaseURL string
	// HTTPClient performs the requests.
	HTTPClient *http.Client
}

// NewGoogle builds a client with proxy support from the environment and the
// given timeout (0 means 60s).
func NewGoogle(proxyURL string, timeout time.Duration) *Google {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Google{HTTPClient: makeHTTPClient(proxyURL, timeout)}
}

// Translate implements Client.
func (g *Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	base := g.BaseURL
	if base == "" {
		base = googleBaseURL
	}
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	client := g.HTTPClient
	if client == nil {
		client = makeHTTPClient("", 60*time.Second)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusRequestEntityTooLarge:
		return "", fmt.Errorf("service rejected payload (status %d): %w", resp.StatusCode, ErrPermanent)
	default:
		// 429, 5xx and everything else: transient, caller retries.
		return "", fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	return decodeGoogleResponse(resp)
}

// decodeGoogleResponse parses the nested-array response of the gtx
// endpoint: [[["translated","original",…],…],…]. Segments concatenate.
func decodeGoogleResponse(resp *http.Response) (string, error) {
	var raw []any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty response: %w", ErrPermanent)
	}
	segments, ok := raw[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected response shape: %w", ErrPermanent)
	}
	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no translation in response: %w", ErrPermanent)
	}
	return b.String(), nil
}

// makeHTTPClient mirrors proxy handling of the standard environment
// variables plus an explicit override.
func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}
