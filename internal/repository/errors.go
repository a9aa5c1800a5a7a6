// Package repository defines the reservation store and the error values
// shared by its implementations.  ErrNotFound lets callers such as the
// ticket validation handler distinguish an unknown reservation from a
// database failure, and ErrInvalidReservation rejects records that break
// the party size or entry kind invariants before they reach SQL.
package repository

import "errors"

// ErrNotFound is returned when a reservation with the requested ID does
// not exist.  Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("reservation not found")

// ErrInvalidReservation is returned by Create when the record has a party
// size below one or an unknown entry kind.
var ErrInvalidReservation = errors.New("invalid reservation")
