package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/caminante/caminante-api/internal/config"
)

// CacheScope derives the invalidation scope of a request. Every cached
// response under the same scope shares one version counter, so a single
// Bump invalidates all of them at once.
type CacheScope func(echo.Context) string

// StaticScope puts every request of the group under one shared counter.
func StaticScope(name string) CacheScope {
	return func(echo.Context) string { return name }
}

// ParamScope scopes requests by a path parameter, e.g. one counter per
// route's seat map.
func ParamScope(name, param string) CacheScope {
	return func(c echo.Context) string { return name + ":" + c.Param(param) }
}

// CacheInvalidator bumps scope version counters after a mutation
// commits. A nil invalidator (cache disabled or no Redis) is a no-op,
// so handlers call Bump unconditionally.
type CacheInvalidator struct {
	rdb    *redis.Client
	prefix string
}

// NewCacheInvalidator returns nil when caching is off, which every
// method tolerates.
func NewCacheInvalidator(cfg config.CacheConfig, rdb *redis.Client) *CacheInvalidator {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return &CacheInvalidator{rdb: rdb, prefix: cfg.Prefix}
}

// Bump invalidates every cached response under scope. Cached entries
// are keyed by hash and cannot be enumerated, so invalidation
// increments the scope's version counter instead; stale entries stop
// matching any key and age out with their TTL.
func (i *CacheInvalidator) Bump(ctx context.Context, scope string) {
	if i == nil {
		return
	}
	if err := i.rdb.Incr(ctx, versionKey(i.prefix, scope)).Err(); err != nil {
		log.Printf("cache: bump version for scope=%s failed: %v", scope, err)
	}
}

func versionKey(prefix, scope string) string {
	return prefix + ":ver:" + scope
}

// cachedResponse is the envelope stored in Redis for a cached reply.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// captureWriter duplicates the response body into a buffer while
// forwarding it to the client, up to a byte limit.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.size < cw.limit {
		if remain := cw.limit - cw.size; int64(len(b)) <= remain {
			cw.buf.Write(b)
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// ResponseCache returns a Redis-backed cache for read endpoints. Only
// configured methods are considered, only 200 responses are stored, and
// the cache key includes the authenticated user so one passenger never
// sees another's reservation list. The key also folds in the scope's
// version counter: a reservation bumps the counter, so the very next
// seat map read misses the cache and sees the seat taken. Redis
// failures fall through to the handler.
func ResponseCache(cfg config.CacheConfig, rdb *redis.Client, scope CacheScope) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cfg.Methods[req.Method] {
				return next(c)
			}
			ctx := req.Context()

			ver, err := rdb.Get(ctx, versionKey(cfg.Prefix, scope(c))).Result()
			if err != nil && err != redis.Nil {
				return next(c)
			}
			key := cacheKey(cfg.Prefix, ver, c)

			if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
				var stored cachedResponse
				if json.Unmarshal(raw, &stored) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(stored.Status, stored.ContentType, stored.Body)
				}
			}

			cw := &captureWriter{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          int64(cfg.MaxBodyBytes),
			}
			c.Response().Header().Set("X-Cache", "MISS")
			c.Response().Writer = cw

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.size > int64(cfg.MaxBodyBytes) {
				return nil
			}
			stored := cachedResponse{
				Status:      cw.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        cw.buf.Bytes(),
			}
			if raw, err := json.Marshal(stored); err == nil {
				if err := rdb.Set(ctx, key, raw, cfg.TTL).Err(); err != nil {
					c.Logger().Warnf("cache: store failed for key=%s: %v", key, err)
				}
			}
			return nil
		}
	}
}

// cacheKey hashes method, path, query, user and scope version into the
// Redis key.
func cacheKey(prefix, version string, c echo.Context) string {
	req := c.Request()
	h := sha1.New()
	h.Write([]byte(req.Method))
	h.Write([]byte{'|'})
	h.Write([]byte(req.URL.Path))
	h.Write([]byte{'|'})
	h.Write([]byte(req.URL.RawQuery))
	h.Write([]byte{'|'})
	h.Write([]byte(contextUserID(c)))
	h.Write([]byte{'|'})
	h.Write([]byte(version))
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}
