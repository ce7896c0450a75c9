package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ems/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

// Counter counts hits per key inside a fixed window. It returns the count
// including this hit and the time left until the window resets.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
}

type RateLimitOption func(*limiterOptions)

type limiterOptions struct {
	keyFn   RateLimitKeyFunc
	counter Counter
}

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(o *limiterOptions) {
		if fn != nil {
			o.keyFn = fn
		}
	}
}

// WithCounter shares limiter state through c, e.g. a RedisCounter when
// several instances sit behind one load balancer.
func WithCounter(c Counter) RateLimitOption {
	return func(o *limiterOptions) {
		if c != nil {
			o.counter = c
		}
	}
}

func buildOptions(opts []RateLimitOption) limiterOptions {
	o := limiterOptions{keyFn: actorOrIPKey}
	for _, opt := range opts {
		opt(&o)
	}
	if o.counter == nil {
		o.counter = NewMemoryCounter()
	}
	return o
}

type limiter struct {
	scope   string
	limit   int
	window  time.Duration
	keyFn   RateLimitKeyFunc
	counter Counter
}

func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	rl := &limiter{scope: "global", limit: limit, window: window, keyFn: o.keyFn, counter: o.counter}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SensitiveMutationRateLimit adds tighter budgets to login and to the
// mutations that fan out into notifications. Only WithCounter is honoured
// from opts; each budget has its own key.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	authLimit := max(baseLimit/4, 1)
	mutationLimit := max(baseLimit/2, 1)
	authByIP := &limiter{scope: "auth_ip", limit: authLimit, window: window, keyFn: ClientIP, counter: o.counter}
	authByEmail := &limiter{scope: "auth_email", limit: authLimit, window: window, keyFn: AuthEmailOrIPKey("email"), counter: o.counter}
	byActor := &limiter{scope: "mutation", limit: mutationLimit, window: window, keyFn: actorOrIPKey, counter: o.counter}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !authByIP.enforce(w, r) || !authByEmail.enforce(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !byActor.enforce(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	field = strings.TrimSpace(field)
	if field == "" {
		field = "email"
	}
	return func(r *http.Request) string {
		email := extractJSONField(r, field)
		if email == "" {
			return ClientIP(r)
		}
		return "email:" + strings.ToLower(email)
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.EmployeeID != "" {
		return "user:" + user.EmployeeID
	}
	return ClientIP(r)
}

// ClientIP prefers the first X-Forwarded-For hop over RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// enforce fails open when the counter errors so a Redis outage does not
// take the API down with it.
func (l *limiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := l.keyFn(r)
	if key == "" {
		key = ClientIP(r)
	}

	count, resetIn, err := l.counter.Hit(r.Context(), l.scope+":"+key, l.window)
	if err != nil {
		slog.Warn("rate limit counter failed", "scope", l.scope, "err", err)
		return true
	}
	resetSec := durationSeconds(resetIn)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(l.limit-count, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

	if count > l.limit {
		w.Header().Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
		slog.Warn("rate limit exceeded",
			"scope", l.scope,
			"key", key,
			"path", r.URL.Path,
			"method", r.Method,
			"limit", l.limit,
		)
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	return true
}

func durationSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return max(int(d.Seconds()), 1)
}

type rateBucket struct {
	count int
	reset time.Time
}

// MemoryCounter keeps windows in process. Expired buckets are replaced on
// the next hit for the same key.
type MemoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	buckets map[string]*rateBucket
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{now: time.Now, buckets: map[string]*rateBucket{}}
}

func (c *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, ok := c.buckets[key]
	if !ok || !now.Before(bucket.reset) {
		bucket = &rateBucket{reset: now.Add(window)}
		c.buckets[key] = bucket
	}
	bucket.count++
	return bucket.count, bucket.reset.Sub(now), nil
}

// RedisCounter implements fixed windows with INCR and PEXPIRE so every
// instance shares one budget per key.
type RedisCounter struct {
	client redis.Cmdable
	prefix string
}

func NewRedisCounter(client redis.Cmdable) *RedisCounter {
	return &RedisCounter{client: client, prefix: "ems:ratelimit:"}
}

func (c *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	redisKey := c.prefix + key
	count, err := c.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", redisKey, err)
	}
	if count == 1 {
		if err := c.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", redisKey, err)
		}
		return 1, window, nil
	}
	ttl, err := c.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ttl %s: %w", redisKey, err)
	}
	if ttl < 0 {
		// key lost its expiry, e.g. a crash between INCR and PEXPIRE
		if err := c.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", redisKey, err)
		}
		ttl = window
	}
	return int(count), ttl, nil
}

func extractJSONField(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return ""
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}

type sensitiveScope int

const (
	sensitiveScopeNone sensitiveScope = iota
	sensitiveScopeAuth
	sensitiveScopeActor
)

func sensitiveRateScope(r *http.Request) sensitiveScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return sensitiveScopeNone
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch path {
	case "/auth/login":
		return sensitiveScopeAuth
	case "/attendance/bulk", "/attendance/clock", "/leave/requests", "/admin/leave/requests":
		return sensitiveScopeActor
	}
	if strings.HasPrefix(path, "/admin/leave/requests/") && strings.HasSuffix(path, "/status") {
		return sensitiveScopeActor
	}
	if strings.HasPrefix(path, "/notifications/") && strings.HasSuffix(path, "/retry") {
		return sensitiveScopeActor
	}
	return sensitiveScopeNone
}
