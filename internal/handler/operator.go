package handler

import (
    "crypto/subtle"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation-bot/internal/utils"
)

// OperatorHandler issues short-lived operator access tokens in exchange
// for the panel credentials.
type OperatorHandler struct {
    User         string
    PasswordHash string // bcrypt; empty disables token issuing
    Secret       string
    TTLMin       int
}

func NewOperatorHandler(user, passwordHash, secret string, ttlMin int) *OperatorHandler {
    return &OperatorHandler{User: user, PasswordHash: passwordHash, Secret: secret, TTLMin: ttlMin}
}

type operatorLoginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

// Authorize checks panel credentials.  It matches the signature of echo's
// BasicAuth validator so the panel and the token endpoint share it.
func (h *OperatorHandler) Authorize(user, pass string, _ echo.Context) (bool, error) {
    if h.PasswordHash == "" {
        return false, nil
    }
    userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.User)) == 1
    passOK := utils.VerifyPassword(h.PasswordHash, pass)
    return userOK && passOK, nil
}

// Token exchanges a username and password for an OPERATOR access token.
func (h *OperatorHandler) Token(c echo.Context) error {
    if h.PasswordHash == "" {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "operator access disabled"})
    }
    var req operatorLoginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
    }
    if ok, _ := h.Authorize(req.Username, req.Password, c); !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    tok, err := utils.NewAccessToken(h.Secret, req.Username, utils.RoleOperator, h.TTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
    }
    return c.JSON(http.StatusOK, tok)
}
