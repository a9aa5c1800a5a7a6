package bot

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/venue-reservation-bot/internal/model"
	"github.com/iliyamo/venue-reservation-bot/internal/queue"
	"github.com/iliyamo/venue-reservation-bot/internal/session"
)

// Manual entry parse failures.  Both keep the operator in admin_manual.
var (
	ErrManualFormat = errors.New("manual entry: want \"Name, Count\"")
	ErrManualCount  = errors.New("manual entry: count must be a positive integer")
)

// onAdminAuth checks the password.  There is no lockout: a failed attempt
// drops the sender back to start and the trigger can be sent again.
func (e *Engine) onAdminAuth(t *turn, sess session.Session) (session.Session, Reply, error) {
	if e.settings.AdminPassword != "" &&
		subtle.ConstantTimeCompare([]byte(t.text), []byte(e.settings.AdminPassword)) == 1 {
		t.log.Info("admin login")
		return session.Session{State: session.StateAdminMenu}, Text(msgAdminMenu), nil
	}
	t.log.Warn("admin login rejected")
	return sess.Reset(), Text(msgAdminDenied), nil
}

func (e *Engine) onAdminMenu(ctx context.Context, t *turn, sess session.Session) (session.Session, Reply, error) {
	switch t.lower {
	case "1":
		total, err := e.store.Count(ctx, "")
		if err != nil {
			return sess, Reply{}, err
		}
		vip, err := e.store.Count(ctx, model.KindVIP)
		if err != nil {
			return sess, Reply{}, err
		}
		occ, err := e.guard.Check(ctx)
		if err != nil {
			return sess, Reply{}, err
		}
		return sess, Text(dashboard(total, vip, occ)), nil
	case "2":
		sess.State = session.StateAdminBroadcast
		return sess, Text(msgBroadcastPrompt), nil
	case "3":
		sess.State = session.StateAdminManual
		return sess, Text(msgManualPrompt), nil
	case "4":
		t.log.Info("admin logout")
		return sess.Reset(), Text(msgAdminLogout), nil
	case "0":
		return sess, Text(msgAdminMenu), nil
	}
	return sess, Text(msgAdminInvalid), nil
}

// onAdminBroadcast hands the message to the broker for every distinct
// sender with a reservation.  Success is only reported once the broker
// accepted the request.
func (e *Engine) onAdminBroadcast(ctx context.Context, t *turn, sess session.Session) (session.Session, Reply, error) {
	if t.text == "" {
		return sess, Text(msgBroadcastEmpty), nil
	}
	sess.State = session.StateAdminMenu
	if e.events == nil {
		return sess, Text(msgBroadcastOff), nil
	}
	recipients, err := e.store.DistinctSenders(ctx)
	if err != nil {
		return sess, Reply{}, err
	}
	ev := queue.BroadcastRequestedEvent{
		RequestedBy: t.sender,
		Message:     t.text,
		Recipients:  recipients,
		RequestedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.events.PublishBroadcast(ctx, ev); err != nil {
		t.log.WithError(err).Warn("broadcast not queued")
		return sess, Text(msgBroadcastFailed), nil
	}
	t.log.WithField("recipients", len(recipients)).Info("broadcast queued")
	return sess, Text(broadcastQueued(len(recipients))), nil
}

// onAdminManual registers a VIP table from a "Name, Count" line and stays
// in admin_manual so several entries can be loaded in a row.
func (e *Engine) onAdminManual(ctx context.Context, t *turn, sess session.Session) (session.Session, Reply, error) {
	name, count, err := ParseManualEntry(t.text)
	switch {
	case errors.Is(err, ErrManualFormat):
		return sess, Text(msgManualFormat), nil
	case errors.Is(err, ErrManualCount):
		return sess, Text(msgManualCount), nil
	case err != nil:
		return sess, Reply{}, err
	}

	res := &model.Reservation{
		Sender:    t.sender,
		FullName:  name + " (VIP)",
		Kind:      model.KindVIP,
		PartySize: count,
		Referral:  model.ReferralAdmin,
	}
	if err := e.createReservation(ctx, t, res); err != nil {
		return sess, Reply{}, err
	}
	qr, err := e.tickets.QRImageURL(res.ID, res.Kind)
	if err != nil {
		return sess, Reply{}, err
	}
	reply := Reply{}.Add(manualCreated(name, count), qr).Add(msgManualAnother, "")
	return sess, reply, nil
}

// ParseManualEntry splits "Name, Count" into a title-cased name and a
// positive count.  Anything but exactly two comma-separated fields with a
// non-empty name is ErrManualFormat; a count that is not a positive
// integer is ErrManualCount.
func ParseManualEntry(line string) (string, int, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return "", 0, ErrManualFormat
	}
	name := titleName(fields[0])
	if name == "" {
		return "", 0, ErrManualFormat
	}
	count, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil || count <= 0 {
		return "", 0, ErrManualCount
	}
	return name, count, nil
}
