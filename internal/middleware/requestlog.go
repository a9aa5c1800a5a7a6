package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// CtxLogger is the context key holding the per-request logrus entry.
const CtxLogger = "logger"

// RequestLogger tags every request with an X-Request-ID (reusing the
// caller's when present) and logs one line per request once it finishes.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            rid := c.Request().Header.Get(echo.HeaderXRequestID)
            if rid == "" {
                rid = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, rid)

            entry := log.WithField("request_id", rid)
            c.Set(CtxLogger, entry)

            err := next(c)
            if err != nil {
                c.Error(err)
            }
            fields := logrus.Fields{
                "method":     c.Request().Method,
                "path":       c.Path(),
                "status":     c.Response().Status,
                "latency_ms": time.Since(start).Milliseconds(),
                "remote_ip":  c.RealIP(),
            }
            if c.Response().Status >= 500 {
                entry.WithFields(fields).Warn("request failed")
            } else {
                entry.WithFields(fields).Info("request")
            }
            return nil
        }
    }
}

// Logger returns the request-scoped entry set by RequestLogger, or fallback.
func Logger(c echo.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
    if e, ok := c.Get(CtxLogger).(*logrus.Entry); ok {
        return e
    }
    return fallback
}
