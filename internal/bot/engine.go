// Package bot implements the reservation dialogue.  Engine.Handle takes
// one inbound chat message and returns the reply, walking the sender
// through the general admission and VIP table flows or, after the secret
// trigger and password, through the operator console.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/venue-reservation-bot/internal/attribution"
	"github.com/iliyamo/venue-reservation-bot/internal/capacity"
	"github.com/iliyamo/venue-reservation-bot/internal/model"
	"github.com/iliyamo/venue-reservation-bot/internal/queue"
	"github.com/iliyamo/venue-reservation-bot/internal/repository"
	"github.com/iliyamo/venue-reservation-bot/internal/session"
)

// TicketIssuer renders the QR media URL of a stored reservation.
type TicketIssuer interface {
	QRImageURL(id uint64, kind model.EntryKind) (string, error)
}

// EventPublisher forwards domain events to the broker.
type EventPublisher interface {
	PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error
	PublishBroadcast(ctx context.Context, ev queue.BroadcastRequestedEvent) error
}

// Settings are the literals and policies of the dialogue.
type Settings struct {
	VenueName       string
	FlyerURL        string
	AdminTrigger    string   // matched case-sensitively against the trimmed message
	AdminPassword   string   // compared byte for byte
	HardResetPhrase string   // matched case-insensitively
	EscapeWords     []string // matched case-insensitively
	MaxGuests       int      // 0 disables the per-booking cap
}

// Deps are the collaborators of the engine.  Events may be nil, which
// disables reservation events and broadcasts.
type Deps struct {
	Store    repository.ReservationStore
	Sessions session.Store
	Resolver *attribution.Resolver
	Guard    *capacity.Guard
	Tickets  TicketIssuer
	Events   EventPublisher
	Log      logrus.FieldLogger
}

// Engine is the per-sender conversation state machine.  Messages from the
// same sender are processed one at a time; different senders run
// concurrently.
type Engine struct {
	store    repository.ReservationStore
	sessions session.Store
	resolver *attribution.Resolver
	guard    *capacity.Guard
	tickets  TicketIssuer
	events   EventPublisher
	log      logrus.FieldLogger

	settings Settings
	escape   map[string]struct{}
	reset    string

	locks   keyedMutex
	pending sync.WaitGroup
	now     func() time.Time
}

// New wires an engine.  Store, Sessions, Resolver, Guard and Tickets are
// required.
func New(deps Deps, settings Settings) *Engine {
	if deps.Store == nil || deps.Sessions == nil || deps.Resolver == nil || deps.Guard == nil || deps.Tickets == nil {
		panic("nil dependency passed to bot.New")
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	escape := make(map[string]struct{}, len(settings.EscapeWords))
	for _, w := range settings.EscapeWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			escape[w] = struct{}{}
		}
	}
	return &Engine{
		store:    deps.Store,
		sessions: deps.Sessions,
		resolver: deps.Resolver,
		guard:    deps.Guard,
		tickets:  deps.Tickets,
		events:   deps.Events,
		log:      deps.Log,
		settings: settings,
		escape:   escape,
		reset:    strings.ToLower(strings.TrimSpace(settings.HardResetPhrase)),
		locks:    keyedMutex{locks: make(map[string]*refLock)},
		now:      time.Now,
	}
}

// Wait blocks until background event publishing has finished.
func (e *Engine) Wait() { e.pending.Wait() }

// turn carries the per-message context shared by the state handlers.
type turn struct {
	sender string
	text   string // trimmed
	lower  string // trimmed and lower-cased
	attr   attribution.Result
	log    logrus.FieldLogger
}

// Handle processes one inbound message and never fails: any error or
// panic inside the dialogue resets the sender's session and yields a
// generic apology.
func (e *Engine) Handle(ctx context.Context, sender, body string) (reply Reply) {
	unlock := e.locks.Lock(sender)
	defer unlock()

	text := strings.TrimSpace(body)
	t := &turn{
		sender: sender,
		text:   text,
		lower:  strings.ToLower(text),
		log:    e.log.WithFields(logrus.Fields{"sender": sender, "request_id": uuid.NewString()}),
	}

	defer func() {
		if r := recover(); r != nil {
			reply = e.fault(ctx, t, fmt.Errorf("panic: %v", r))
		}
	}()

	sess, err := e.sessions.Get(ctx, sender)
	if err != nil {
		return e.fault(ctx, t, err)
	}
	t.log.WithField("state", sess.Current()).Debugf("inbound %q", text)

	next, reply, err := e.step(ctx, t, sess)
	if err != nil {
		return e.fault(ctx, t, err)
	}
	next.LastActive = e.now()
	if err := e.sessions.Put(ctx, sender, next); err != nil {
		return e.fault(ctx, t, err)
	}
	return reply
}

// step applies the global overrides and then dispatches on state.
func (e *Engine) step(ctx context.Context, t *turn, sess session.Session) (session.Session, Reply, error) {
	if _, ok := e.escape[t.lower]; ok {
		if sess.Current().Admin() {
			return session.Session{State: session.StateAdminMenu}, Text(msgAdminEscapedMenu), nil
		}
		return sess.Reset(), Text(msgReset), nil
	}

	if e.reset != "" && t.lower == e.reset {
		return e.hardReset(ctx, t)
	}

	attr, err := e.resolver.Resolve(ctx, t.sender, t.lower)
	if err != nil {
		return sess, Reply{}, fmt.Errorf("resolve attribution: %w", err)
	}
	t.attr = attr
	if attr.Detected != "" {
		sess.PendingReferral = attr.Detected
	}

	if e.settings.AdminTrigger != "" && t.text == e.settings.AdminTrigger {
		sess.State = session.StateAdminAuth
		sess.Draft = nil
		return sess, Text(msgAdminPrompt), nil
	}

	switch sess.Current() {
	case session.StateStart:
		return e.onStart(ctx, t, sess)
	case session.StateChoosing:
		return e.onChoosing(t, sess)
	case session.StateGeneralCount:
		return e.onGeneralCount(t, sess)
	case session.StateGeneralNames:
		return e.onGeneralNames(ctx, t, sess)
	case session.StateVIPName:
		return e.onVIPName(t, sess)
	case session.StateVIPCount:
		return e.onVIPCount(ctx, t, sess)
	case session.StateAdminAuth:
		return e.onAdminAuth(t, sess)
	case session.StateAdminMenu:
		return e.onAdminMenu(ctx, t, sess)
	case session.StateAdminBroadcast:
		return e.onAdminBroadcast(ctx, t, sess)
	case session.StateAdminManual:
		return e.onAdminManual(ctx, t, sess)
	}
	return sess, Reply{}, fmt.Errorf("unknown state %q", sess.State)
}

// hardReset deletes every reservation and every session.  Sticky
// attributions are kept.
func (e *Engine) hardReset(ctx context.Context, t *turn) (session.Session, Reply, error) {
	n, err := e.store.DeleteAll(ctx)
	if err != nil {
		return session.Session{}, Reply{}, err
	}
	if err := e.sessions.Clear(ctx); err != nil {
		return session.Session{}, Reply{}, fmt.Errorf("clear sessions: %w", err)
	}
	t.log.WithField("deleted", n).Warn("hard reset: reservations and sessions wiped")
	return session.Session{State: session.StateStart}, Text(msgHardReset), nil
}

func (e *Engine) fault(ctx context.Context, t *turn, err error) Reply {
	t.log.WithError(err).Error("message handling failed; session reset")
	if perr := e.sessions.Put(ctx, t.sender, session.Session{State: session.StateStart, LastActive: e.now()}); perr != nil {
		t.log.WithError(perr).Error("session reset after fault failed")
	}
	return Text(msgFault)
}

var errDraftMissing = errors.New("session draft missing for state")

// createReservation stores res and publishes its event in the background.
func (e *Engine) createReservation(ctx context.Context, t *turn, res *model.Reservation) error {
	if err := e.store.Create(ctx, res); err != nil {
		return err
	}
	e.announce(ctx, t, res)
	return nil
}

// createReservations stores the whole batch atomically, then announces
// each record.  A failed batch leaves nothing behind.
func (e *Engine) createReservations(ctx context.Context, t *turn, batch []*model.Reservation) error {
	if err := e.store.CreateBatch(ctx, batch); err != nil {
		return err
	}
	for _, res := range batch {
		e.announce(ctx, t, res)
	}
	return nil
}

// announce logs a stored reservation and publishes its event.
func (e *Engine) announce(ctx context.Context, t *turn, res *model.Reservation) {
	t.log.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"kind":           res.Kind,
		"party_size":     res.PartySize,
		"referral":       res.Referral,
	}).Info("reservation created")

	if e.events == nil {
		return
	}
	ev := queue.ReservationCreatedEvent{
		ReservationID: res.ID,
		Sender:        res.Sender,
		FullName:      res.FullName,
		Kind:          string(res.Kind),
		PartySize:     res.PartySize,
		Referral:      res.Referral,
		CreatedAt:     res.CreatedAt.Format(time.RFC3339),
	}
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := e.events.PublishReservationCreated(pctx, ev); err != nil {
			t.log.WithError(err).Warn("reservation event not published")
		}
	}()
}

// keyedMutex hands out one mutex per key and forgets it once no goroutine
// holds or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

// Lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
