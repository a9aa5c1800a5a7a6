package middleware

import (
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"
    "github.com/sirupsen/logrus/hooks/test"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/venue-reservation-bot/internal/config"
    "github.com/iliyamo/venue-reservation-bot/internal/utils"
)

func newRedis(t *testing.T) *redis.Client {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return rdb
}

func postForm(e *echo.Echo, path string, form url.Values) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestTokenBucketLimitsPerSender(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.RateLimitConfig{
        Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
        TTL: time.Hour, KeyStrategy: "sender", Prefix: "rl",
    }
    e := echo.New()
    e.POST("/webhook", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewTokenBucket(cfg, rdb))

    alice := url.Values{"From": {"whatsapp:+1"}, "Body": {"hola"}}
    bob := url.Values{"From": {"whatsapp:+2"}, "Body": {"hola"}}

    assert.Equal(t, http.StatusOK, postForm(e, "/webhook", alice).Code)
    assert.Equal(t, http.StatusOK, postForm(e, "/webhook", alice).Code)
    rec := postForm(e, "/webhook", alice)
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))

    // Other senders have their own bucket.
    assert.Equal(t, http.StatusOK, postForm(e, "/webhook", bob).Code)
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
    e := echo.New()
    e.POST("/webhook", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
        NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil))
    for i := 0; i < 5; i++ {
        assert.Equal(t, http.StatusOK, postForm(e, "/webhook", url.Values{"From": {"x"}}).Code)
    }
}

func TestBuildRateKeyStrategies(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("From=whatsapp%3A%2B9"))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/webhook")
    c.Set(CtxOperator, "ops")

    assert.Equal(t, "rl:sender:whatsapp:+9", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "sender"}, c))
    assert.Equal(t, "rl:ip:10.0.0.1", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
    assert.Equal(t, "rl:operator:ops", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "operator"}, c))
    assert.Equal(t, "rl:sender:whatsapp:+9", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}, c))
}

func TestRedisCacheHitAndMiss(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
        KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1024,
    }
    calls := 0
    e := echo.New()
    e.GET("/v1/stats", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, map[string]int{"calls": calls})
    }, NewRedisCache(cfg, rdb))

    get := func() *httptest.ResponseRecorder {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
        return rec
    }

    first := get()
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
    second := get()
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.JSONEq(t, first.Body.String(), second.Body.String())
    assert.Contains(t, second.Header().Get(echo.HeaderContentType), "application/json")
    assert.Equal(t, 1, calls)
}

func TestRedisCacheSkipsOversizedBodies(t *testing.T) {
    rdb := newRedis(t)
    cfg := config.CacheConfig{
        Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute,
        Prefix: "cache", MaxBodyBytes: 8,
    }
    calls := 0
    e := echo.New()
    e.GET("/big", func(c echo.Context) error {
        calls++
        return c.String(http.StatusOK, strings.Repeat("x", 64))
    }, NewRedisCache(cfg, rdb))

    for i := 0; i < 2; i++ {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/big", nil))
        assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
        assert.Len(t, rec.Body.String(), 64)
    }
    assert.Equal(t, 2, calls)
}

func TestJWTAuthAndRole(t *testing.T) {
    const secret = "s3cret"
    e := echo.New()
    e.GET("/ops", func(c echo.Context) error {
        return c.String(http.StatusOK, c.Get(CtxOperator).(string))
    }, JWTAuth(secret), RequireRole(utils.RoleOperator))

    call := func(auth string) *httptest.ResponseRecorder {
        req := httptest.NewRequest(http.MethodGet, "/ops", nil)
        if auth != "" {
            req.Header.Set(echo.HeaderAuthorization, auth)
        }
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        return rec
    }

    assert.Equal(t, http.StatusUnauthorized, call("").Code)
    assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)

    wrong, err := utils.NewAccessToken("other", "ops", utils.RoleOperator, 5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusUnauthorized, call("Bearer "+wrong.Token).Code)

    guest, err := utils.NewAccessToken(secret, "ops", "GUEST", 5)
    require.NoError(t, err)
    assert.Equal(t, http.StatusForbidden, call("Bearer "+guest.Token).Code)

    ok, err := utils.NewAccessToken(secret, "ops", utils.RoleOperator, 5)
    require.NoError(t, err)
    rec := call("Bearer " + ok.Token)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ops", rec.Body.String())
}

func TestRequestLoggerTagsRequests(t *testing.T) {
    log, hook := test.NewNullLogger()
    e := echo.New()
    e.GET("/healthz", func(c echo.Context) error {
        Logger(c, log).Info("inside")
        return c.NoContent(http.StatusNoContent)
    }, RequestLogger(log))

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

    rid := rec.Header().Get(echo.HeaderXRequestID)
    require.NotEmpty(t, rid)
    require.Len(t, hook.AllEntries(), 2)
    for _, entry := range hook.AllEntries() {
        assert.Equal(t, rid, entry.Data["request_id"])
    }
    last := hook.LastEntry()
    assert.Equal(t, logrus.InfoLevel, last.Level)
    assert.Equal(t, http.StatusNoContent, last.Data["status"])
}
