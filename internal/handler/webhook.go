package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/venue-reservation-bot/internal/bot"
    "github.com/iliyamo/venue-reservation-bot/internal/middleware"
    "github.com/iliyamo/venue-reservation-bot/internal/twiml"
)

// Conversation handles one inbound chat message.  *bot.Engine implements it.
type Conversation interface {
    Handle(ctx context.Context, sender, body string) bot.Reply
}

// WebhookHandler receives the messaging provider's form-encoded callbacks
// and answers with TwiML.
type WebhookHandler struct {
    Bot Conversation
    Log logrus.FieldLogger
}

func NewWebhookHandler(b Conversation, log logrus.FieldLogger) *WebhookHandler {
    return &WebhookHandler{Bot: b, Log: log}
}

// Receive reads the "From" and "Body" form fields, runs the dialogue and
// renders the reply.  A missing sender is a malformed callback and gets a
// 400; everything else is answered with 200 so the provider never retries
// a message the dialogue already consumed.
func (h *WebhookHandler) Receive(c echo.Context) error {
    from := strings.TrimSpace(c.FormValue("From"))
    if from == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "From is required"})
    }

    // The dialogue itself is short; the timeout only bounds store calls.
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    reply := h.Bot.Handle(ctx, from, c.FormValue("Body"))
    out, err := twiml.Render(reply)
    if err != nil {
        middleware.Logger(c, h.Log).WithError(err).Error("render twiml")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    return c.Blob(http.StatusOK, twiml.ContentType, out)
}
