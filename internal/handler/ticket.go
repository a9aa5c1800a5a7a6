package handler

import (
    "bytes"
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/venue-reservation-bot/internal/middleware"
    "github.com/iliyamo/venue-reservation-bot/internal/model"
    "github.com/iliyamo/venue-reservation-bot/internal/repository"
    "github.com/iliyamo/venue-reservation-bot/internal/ticket"
)

// TicketParser verifies a ticket token.  *ticket.Issuer implements it.
type TicketParser interface {
    Parse(raw string) (uint64, model.EntryKind, error)
}

// TicketHandler serves the page door staff see after scanning a QR.
type TicketHandler struct {
    Tickets TicketParser
    Store   repository.ReservationStore
    Venue   string
    Log     logrus.FieldLogger
}

func NewTicketHandler(t TicketParser, store repository.ReservationStore, venue string, log logrus.FieldLogger) *TicketHandler {
    return &TicketHandler{Tickets: t, Store: store, Venue: venue, Log: log}
}

type ticketView struct {
    Venue       string
    Valid       bool
    Reason      string
    Reservation *model.Reservation
}

// Validate checks the token in ?t= and that the reservation it names
// still exists with the same entry kind.  Reservations wiped by a hard
// reset therefore stop validating.
func (h *TicketHandler) Validate(c echo.Context) error {
    view := ticketView{Venue: h.Venue}
    id, kind, err := h.Tickets.Parse(c.QueryParam("t"))
    if err != nil {
        view.Reason = "Firma inválida."
        return h.render(c, http.StatusUnauthorized, view)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    res, err := h.Store.GetByID(ctx, id)
    switch {
    case errors.Is(err, repository.ErrNotFound):
        view.Reason = "Reserva inexistente."
        return h.render(c, http.StatusNotFound, view)
    case err != nil:
        middleware.Logger(c, h.Log).WithError(err).WithField("reservation_id", id).Error("ticket lookup")
        return c.String(http.StatusInternalServerError, "db error")
    case res.Kind != kind:
        view.Reason = "El tipo de entrada no coincide."
        return h.render(c, http.StatusConflict, view)
    }
    view.Valid = true
    view.Reservation = res
    return h.render(c, http.StatusOK, view)
}

func (h *TicketHandler) render(c echo.Context, status int, view ticketView) error {
    var buf bytes.Buffer
    if err := ticketTmpl.Execute(&buf, view); err != nil {
        middleware.Logger(c, h.Log).WithError(err).Error("ticket render")
        return c.String(http.StatusInternalServerError, "render error")
    }
    return c.HTMLBlob(status, buf.Bytes())
}

var _ TicketParser = (*ticket.Issuer)(nil)
