package model

import "time"

// EntryKind distinguishes a single-person general admission ticket from a
// VIP table booked for a whole party.
type EntryKind string

const (
    KindGeneral EntryKind = "General"
    KindVIP     EntryKind = "VIP"
)

// Valid reports whether k is one of the known entry kinds.
func (k EntryKind) Valid() bool {
    return k == KindGeneral || k == KindVIP
}

// Referral sources that are not partner keys.
const (
    ReferralOrganic = "Organic" // no partner detected for the sender
    ReferralAdmin   = "Admin"   // entered manually by an operator
)

// Reservation records a confirmed entry for the venue.  Reservations are
// created once at the end of a dialogue branch and never updated; they
// are only removed in bulk by the hard reset.
//
// Fields:
//  ID         – primary key assigned by the store on insert.
//  Sender     – chat identity of the guest (or operator) who booked.
//  FullName   – title-cased display name; VIP tables carry a " (VIP)" suffix.
//  Kind       – General or VIP.
//  PartySize  – number of people admitted, always >= 1.
//  Confirmed  – always true; reservations are never provisional.
//  CreatedAt  – insert timestamp (UTC).
//  Referral   – partner key, ReferralOrganic or ReferralAdmin.
type Reservation struct {
    ID        uint64    `json:"id"`         // reservations.id
    Sender    string    `json:"sender"`     // reservations.sender
    FullName  string    `json:"full_name"`  // reservations.full_name
    Kind      EntryKind `json:"kind"`       // reservations.kind
    PartySize int       `json:"party_size"` // reservations.party_size
    Confirmed bool      `json:"confirmed"`  // reservations.confirmed
    CreatedAt time.Time `json:"created_at"` // reservations.created_at
    Referral  string    `json:"referral"`   // reservations.referral
}
