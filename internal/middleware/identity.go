package middleware

// identity.go resolves who a request belongs to for rate limiting.  Chat
// webhooks carry the sender in the "From" form field; operator API calls
// carry the token subject stored by JWTAuth.

import (
    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
    CtxOperator = "operator"
    CtxRole     = "role"
)

// senderID returns the chat sender of a webhook request or "anon".
func senderID(c echo.Context) string {
    if s := c.FormValue("From"); s != "" {
        return s
    }
    return "anon"
}

// operatorID returns the authenticated operator or "anon".
func operatorID(c echo.Context) string {
    if s, ok := c.Get(CtxOperator).(string); ok && s != "" {
        return s
    }
    return "anon"
}
