// Package session keeps the per-sender dialogue state of the chat
// assistant.  A Session holds the current State, a Draft describing the
// booking in progress and the referral salutation still waiting to be
// shown.  Stores are keyed by sender identity.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// State is a node of the dialogue state machine.
type State string

const (
	StateStart          State = "start"
	StateChoosing       State = "choosing"
	StateGeneralCount   State = "cant_gen"
	StateGeneralNames   State = "names_gen"
	StateVIPName        State = "name_vip"
	StateVIPCount       State = "cant_vip"
	StateAdminAuth      State = "admin_auth"
	StateAdminMenu      State = "admin_menu"
	StateAdminBroadcast State = "admin_broadcast"
	StateAdminManual    State = "admin_manual"
)

// Admin reports whether s belongs to the authenticated operator
// sub-machine.  admin_auth is excluded: the password has not been
// accepted yet.
func (s State) Admin() bool {
	switch s {
	case StateAdminMenu, StateAdminBroadcast, StateAdminManual:
		return true
	}
	return false
}

// Draft is the scratch data of the dialogue branch in progress.  It is
// either a *GeneralDraft or a *VIPDraft.
type Draft interface {
	draftKind() string
}

// GeneralDraft collects guest names for general admission tickets.
type GeneralDraft struct {
	Requested int      `json:"requested"`
	Names     []string `json:"names"`
}

// Complete reports whether every requested name has been collected.
func (d *GeneralDraft) Complete() bool { return d.Requested > 0 && len(d.Names) >= d.Requested }

func (*GeneralDraft) draftKind() string { return "general" }

// VIPDraft holds the titular name of a VIP table while the party size is
// being asked for.
type VIPDraft struct {
	Holder string `json:"holder"`
}

func (*VIPDraft) draftKind() string { return "vip" }

// Session is the ephemeral dialogue record of one sender.  The zero value
// is a fresh session in StateStart.
type Session struct {
	State           State
	Draft           Draft
	PendingReferral string // partner key detected but not yet greeted
	LastActive      time.Time
}

// Current returns the session state, mapping the zero value to StateStart.
func (s Session) Current() State {
	if s.State == "" {
		return StateStart
	}
	return s.State
}

// Reset returns s back at StateStart with all scratch data cleared.
func (s Session) Reset() Session {
	return Session{State: StateStart, LastActive: s.LastActive}
}

type wireSession struct {
	State           State         `json:"state"`
	General         *GeneralDraft `json:"general,omitempty"`
	VIP             *VIPDraft     `json:"vip,omitempty"`
	PendingReferral string        `json:"pending_referral,omitempty"`
	LastActive      time.Time     `json:"last_active"`
}

// MarshalJSON encodes the draft union as one of two optional fields.
func (s Session) MarshalJSON() ([]byte, error) {
	w := wireSession{State: s.State, PendingReferral: s.PendingReferral, LastActive: s.LastActive}
	switch d := s.Draft.(type) {
	case *GeneralDraft:
		w.General = d
	case *VIPDraft:
		w.VIP = d
	case nil:
	default:
		return nil, fmt.Errorf("session: unknown draft %T", d)
	}
	return json.Marshal(w)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Session) UnmarshalJSON(b []byte) error {
	var w wireSession
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = Session{State: w.State, PendingReferral: w.PendingReferral, LastActive: w.LastActive}
	switch {
	case w.General != nil:
		s.Draft = w.General
	case w.VIP != nil:
		s.Draft = w.VIP
	}
	return nil
}

// Store persists sessions.  Get returns the zero Session for unknown
// senders.  Implementations must be safe for concurrent use; callers are
// responsible for serializing access to a single sender.
type Store interface {
	Get(ctx context.Context, sender string) (Session, error)
	Put(ctx context.Context, sender string, s Session) error
	Delete(ctx context.Context, sender string) error
	// Clear drops every session.
	Clear(ctx context.Context) error
}

// Sweeper is implemented by stores that need explicit eviction of idle
// sessions.
type Sweeper interface {
	Sweep(ctx context.Context, idleSince time.Time) (int, error)
}
