package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "database/sql"
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
    "github.com/redis/go-redis/v9"
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems to verify that the process is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Readiness reports whether the backing services answer.  Redis is
// optional: a nil client is reported as "disabled" and does not fail the
// check.
func Readiness(db *sql.DB, rdb *redis.Client) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()

        status := http.StatusOK
        body := echo.Map{"database": "ok", "redis": "disabled"}
        if err := db.PingContext(ctx); err != nil {
            status = http.StatusServiceUnavailable
            body["database"] = err.Error()
        }
        if rdb != nil {
            if err := rdb.Ping(ctx).Err(); err != nil {
                status = http.StatusServiceUnavailable
                body["redis"] = err.Error()
            } else {
                body["redis"] = "ok"
            }
        }
        return c.JSON(status, body)
    }
}
