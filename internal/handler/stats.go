package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-reservation-bot/internal/capacity"
    "github.com/iliyamo/venue-reservation-bot/internal/model"
    "github.com/iliyamo/venue-reservation-bot/internal/repository"
)

// StatsHandler serves the aggregate reservation numbers to operators.
type StatsHandler struct {
    Store repository.ReservationStore
    Guard *capacity.Guard
}

func NewStatsHandler(store repository.ReservationStore, guard *capacity.Guard) *StatsHandler {
    return &StatsHandler{Store: store, Guard: guard}
}

type statsResp struct {
    Reservations int    `json:"reservations"`
    General      int    `json:"general"`
    VIP          int    `json:"vip"`
    Admitted     int    `json:"admitted"`
    Capacity     int    `json:"capacity"`
    Remaining    int    `json:"remaining"`
    Occupancy    int    `json:"occupancy_percent"`
    Band         string `json:"band"`
}

// Get returns counts per entry kind plus the current occupancy band.
func (h *StatsHandler) Get(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    total, err := h.Store.Count(ctx, "")
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    general, err := h.Store.Count(ctx, model.KindGeneral)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    vip, err := h.Store.Count(ctx, model.KindVIP)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    occ, err := h.Guard.Check(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
    }
    return c.JSON(http.StatusOK, statsResp{
        Reservations: total,
        General:      general,
        VIP:          vip,
        Admitted:     occ.Admitted,
        Capacity:     occ.Capacity,
        Remaining:    occ.Remaining,
        Occupancy:    occ.Percent(),
        Band:         string(occ.Band),
    })
}
