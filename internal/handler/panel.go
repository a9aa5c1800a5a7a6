package handler

import (
    "bytes"
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/venue-reservation-bot/internal/capacity"
    "github.com/iliyamo/venue-reservation-bot/internal/middleware"
    "github.com/iliyamo/venue-reservation-bot/internal/model"
    "github.com/iliyamo/venue-reservation-bot/internal/repository"
)

// PanelHandler renders the live reservations panel.  Access control is
// applied by the router (basic auth against the operator credentials).
type PanelHandler struct {
    Store repository.ReservationStore
    Guard *capacity.Guard
    Venue string
    Log   logrus.FieldLogger
}

func NewPanelHandler(store repository.ReservationStore, guard *capacity.Guard, venue string, log logrus.FieldLogger) *PanelHandler {
    return &PanelHandler{Store: store, Guard: guard, Venue: venue, Log: log}
}

type panelView struct {
    Venue    string
    Rows     []model.Reservation
    General  int
    VIP      int
    Admitted int
    Capacity int
    Percent  int
}

// Show lists every reservation newest first with the General/VIP split.
func (h *PanelHandler) Show(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    view, err := h.load(ctx)
    if err != nil {
        middleware.Logger(c, h.Log).WithError(err).Error("panel query")
        return c.String(http.StatusInternalServerError, "db error")
    }
    var buf bytes.Buffer
    if err := panelTmpl.Execute(&buf, view); err != nil {
        middleware.Logger(c, h.Log).WithError(err).Error("panel render")
        return c.String(http.StatusInternalServerError, "render error")
    }
    return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *PanelHandler) load(ctx context.Context) (panelView, error) {
    view := panelView{Venue: h.Venue}
    rows, err := h.Store.List(ctx)
    if err != nil {
        return view, err
    }
    view.Rows = rows
    if view.General, err = h.Store.Count(ctx, model.KindGeneral); err != nil {
        return view, err
    }
    if view.VIP, err = h.Store.Count(ctx, model.KindVIP); err != nil {
        return view, err
    }
    occ, err := h.Guard.Check(ctx)
    if err != nil {
        return view, err
    }
    view.Admitted, view.Capacity, view.Percent = occ.Admitted, occ.Capacity, occ.Percent()
    return view, nil
}

func clock(t time.Time) string { return t.Local().Format("15:04") }
