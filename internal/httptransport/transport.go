// Package httptransport is the shared rate-limited, retrying HTTP path used
// by every external collaborator: the venue client, the weather providers,
// and the spike monitor's poll loop. It also carries the venue's RSA-PSS
// request-signing policy and a hard path allowlist.
package httptransport

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Backoff parameters for retry scheduling inside Client.Do.
type Backoff struct {
	Base     time.Duration
	Max      time.Duration
	Jitter   time.Duration
	MaxTries int
}

// nextDelay returns the delay to wait after failed attempt n (1-based):
// Base doubled per earlier attempt plus up to Jitter of random delay, with
// the sum capped at Max.
func (b Backoff) nextDelay(attempt int) time.Duration {
	d := float64(b.Base) * math.Pow(2, float64(attempt-1))
	if b.Jitter > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(b.Jitter)))
		if err == nil {
			d += float64(n.Int64())
		}
	}
	if d > float64(b.Max) {
		d = float64(b.Max)
	}
	return time.Duration(d)
}

// Limiter is a per-client minimum-interval rate limiter realized as a
// buffered channel primed by a ticker, matching the corpus's semaphore-gated
// HTTP client idiom. A zero RequestsPerSecond disables throttling.
type Limiter struct {
	interval time.Duration
	tokens   chan struct{}
	stop     chan struct{}
}

// NewLimiter builds a Limiter that admits at most rps requests per second.
// rps <= 0 disables throttling entirely.
func NewLimiter(rps float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	interval := time.Duration(float64(time.Second) / rps)
	l := &Limiter{
		interval: interval,
		tokens:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	l.tokens <- struct{}{}
	go l.refill()
	return l
}

func (l *Limiter) refill() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			select {
			case l.tokens <- struct{}{}:
			default:
			}
		}
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.tokens == nil {
		return nil
	}
	select {
	case <-l.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the limiter's background refill goroutine.
func (l *Limiter) Close() {
	if l.stop != nil {
		close(l.stop)
	}
}

// Signer produces the three authentication headers the venue requires on
// every request: key ID, millisecond timestamp, and an RSA-PSS signature
// over "timestamp||method||path" computed with SHA-256 and MGF1(SHA-256),
// salt length equal to the digest size. No example repo in the corpus signs
// requests with RSA-PSS (the nearest pattern, the teacher's CLOB client,
// uses HMAC-SHA256); this is the one component of the transport built
// directly on the standard library (crypto/rsa, crypto/sha256) for lack of
// a corpus-grounded RSA-PSS library — see DESIGN.md.
type Signer struct {
	KeyID string
	Key   *rsa.PrivateKey
}

// LoadSigner reads a PEM-encoded RSA private key (PKCS#1 or PKCS#8) from
// path and builds a Signer for keyID.
func LoadSigner(keyID, path string) (*Signer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("httptransport: read signing key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("httptransport: no PEM block found in %s", path)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &Signer{KeyID: keyID, Key: key}, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("httptransport: parse signing key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("httptransport: signing key at %s is not RSA", path)
	}
	return &Signer{KeyID: keyID, Key: key}, nil
}

func (s Signer) sign(method, path string, timestampMs int64) (string, error) {
	msg := fmt.Sprintf("%d%s%s", timestampMs, method, path)
	digest := sha256.Sum256([]byte(msg))
	sig, err := rsa.SignPSS(rand.Reader, s.Key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return "", fmt.Errorf("sign request: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// AllowedPrefixes is the hard read-only path allowlist for the venue API.
// Any attempt to call a path outside of these prefixes is a programmer
// error and panics rather than returning an error.
var AllowedPrefixes = []string{"/series", "/events", "/markets"}

func checkAllowlist(path string) {
	p := path
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	for _, prefix := range AllowedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return
		}
	}
	panic(fmt.Sprintf("httptransport: path %q is not on the read-only allowlist %v", path, AllowedPrefixes))
}

// Client wraps http.Client with rate limiting, retry-with-backoff, optional
// request signing, and structured logging.
type Client struct {
	HTTP    *http.Client
	Limiter *Limiter
	Backoff Backoff
	Signer  *Signer // nil disables signing (used by anonymous weather sources)
	Log     zerolog.Logger

	// Enforce restricts requests to AllowedPrefixes. Only the venue client
	// sets this; weather providers hit arbitrary external hosts.
	Enforce bool
}

// NewClient builds a Client with the given timeout, rate limit, and backoff
// policy. Pass a nil signer for unauthenticated collaborators.
func NewClient(timeout time.Duration, rps float64, backoff Backoff, signer *Signer, enforce bool, log zerolog.Logger) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Limiter: NewLimiter(rps),
		Backoff: backoff,
		Signer:  signer,
		Enforce: enforce,
		Log:     log,
	}
}

// Close releases the client's background limiter goroutine.
func (c *Client) Close() {
	if c.Limiter != nil {
		c.Limiter.Close()
	}
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Do performs method/fullURL with the given headers and body, applying rate
// limiting and retry-with-backoff. path is the request path (no query
// string) used both for allowlist enforcement and for signing.
func (c *Client) Do(ctx context.Context, method, fullURL, path string, headers map[string]string, body io.Reader) (*http.Response, error) {
	if c.Enforce {
		checkAllowlist(path)
	}

	var bodyBytes []byte
	if body != nil {
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("httptransport: read request body: %w", err)
		}
		bodyBytes = b
	}

	maxTries := c.Backoff.MaxTries
	if maxTries <= 0 {
		maxTries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxTries; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = strings.NewReader(string(bodyBytes))
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("httptransport: build request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		if c.Signer != nil {
			timestampMs := time.Now().UnixMilli()
			sig, err := c.Signer.sign(method, path, timestampMs)
			if err != nil {
				return nil, err
			}
			req.Header.Set("KALSHI-ACCESS-KEY", c.Signer.KeyID)
			req.Header.Set("KALSHI-ACCESS-TIMESTAMP", strconv.FormatInt(timestampMs, 10))
			req.Header.Set("KALSHI-ACCESS-SIGNATURE", sig)
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			c.Log.Warn().Err(err).Int("attempt", attempt).Str("path", path).Msg("transport request failed")
			if attempt == maxTries {
				break
			}
			if !sleepCtx(ctx, c.Backoff.nextDelay(attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		if isRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			lastErr = fmt.Errorf("httptransport: retryable status %d on %s", resp.StatusCode, path)
			if attempt == maxTries {
				break
			}
			c.Log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Str("path", path).Msg("retrying after status")
			if !sleepCtx(ctx, c.Backoff.nextDelay(attempt)) {
				return nil, ctx.Err()
			}
			continue
		}

		return resp, nil
	}

	c.Log.Error().Err(lastErr).Str("path", path).Msg("transport exhausted retries")
	return nil, fmt.Errorf("httptransport: exhausted retries for %s: %w", path, lastErr)
}

// sleepCtx waits for d or until ctx is cancelled, returning false on
// cancellation, mirroring the teacher's ctx-aware reconnect sleep helper.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// BuildURL joins a base URL and path with query parameters.
func BuildURL(base, path string, query url.Values) (string, string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", "", fmt.Errorf("httptransport: parse base url: %w", err)
	}
	u.Path = u.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), path, nil
}
