package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/iliyamo/venue-reservation-bot/internal/capacity"
	"github.com/iliyamo/venue-reservation-bot/internal/model"
	"github.com/iliyamo/venue-reservation-bot/internal/session"
)

// onStart greets the sender unless the venue is sold out.  Capacity is
// only checked here; a booking already past this point completes even if
// the venue fills up meanwhile.
func (e *Engine) onStart(ctx context.Context, t *turn, sess session.Session) (session.Session, Reply, error) {
	occ, err := e.guard.Check(ctx)
	if err != nil {
		return sess, Reply{}, err
	}
	if occ.Band == capacity.BandSoldOut {
		sess.State = session.StateStart
		return sess, Text(msgSoldOut), nil
	}

	salutation := ""
	if sess.PendingReferral != "" {
		salutation = e.resolver.Directory().Lookup(sess.PendingReferral).Name
	}
	sess.PendingReferral = ""
	sess.State = session.StateChoosing
	sess.Draft = nil
	return sess, Reply{}.Add(greeting(e.settings.VenueName, salutation, occ), e.settings.FlyerURL), nil
}

func (e *Engine) onChoosing(t *turn, sess session.Session) (session.Session, Reply, error) {
	switch t.lower {
	case "1":
		sess.State = session.StateGeneralCount
		sess.Draft = &session.GeneralDraft{Names: []string{}}
		return sess, Text(msgAskGeneral), nil
	case "2":
		sess.State = session.StateVIPName
		sess.Draft = &session.VIPDraft{}
		return sess, Text(msgAskVIPHolder), nil
	case "3":
		partner := e.resolver.Directory().Lookup(t.attr.Referral)
		return sess.Reset(), Text(contactPartner(partner)), nil
	}
	return sess, Text(msgChooseInvalid), nil
}

func (e *Engine) onGeneralCount(t *turn, sess session.Session) (session.Session, Reply, error) {
	draft, ok := sess.Draft.(*session.GeneralDraft)
	if !ok {
		return sess, Reply{}, fmt.Errorf("%w %s", errDraftMissing, sess.State)
	}
	n, ok := parseDigits(t.lower)
	switch {
	case !ok:
		return sess, Text(msgNumbersOnly), nil
	case n <= 0:
		return sess, Text(msgMustBePositive), nil
	case e.settings.MaxGuests > 0 && n > e.settings.MaxGuests:
		return sess, Text(guestCap(e.settings.MaxGuests)), nil
	}
	draft.Requested = n
	draft.Names = draft.Names[:0]
	sess.State = session.StateGeneralNames
	return sess, Text(confirmCount(n)), nil
}

// onGeneralNames collects one guest name per message.  When the last
// name arrives, one General reservation is created per guest, in the
// order the names were given and in a single batch, each with its own
// ticket message.
func (e *Engine) onGeneralNames(ctx context.Context, t *turn, sess session.Session) (session.Session, Reply, error) {
	draft, ok := sess.Draft.(*session.GeneralDraft)
	if !ok || draft.Requested <= 0 {
		return sess, Reply{}, fmt.Errorf("%w %s", errDraftMissing, sess.State)
	}
	name := titleName(t.text)
	if name == "" {
		return sess, Text(askGuestName(len(draft.Names) + 1)), nil
	}
	draft.Names = append(draft.Names, name)
	if !draft.Complete() {
		return sess, Text(askGuestName(len(draft.Names) + 1)), nil
	}

	batch := make([]*model.Reservation, 0, len(draft.Names))
	for _, guest := range draft.Names {
		batch = append(batch, &model.Reservation{
			Sender:    t.sender,
			FullName:  guest,
			Kind:      model.KindGeneral,
			PartySize: 1,
			Referral:  t.attr.Referral,
		})
	}
	if err := e.createReservations(ctx, t, batch); err != nil {
		return sess, Reply{}, err
	}

	reply := Text(msgGenerating)
	for _, res := range batch {
		qr, err := e.tickets.QRImageURL(res.ID, res.Kind)
		if err != nil {
			return sess, Reply{}, err
		}
		reply = reply.Add(ticketIssued(res.FullName), qr)
	}
	return sess.Reset(), reply, nil
}

func (e *Engine) onVIPName(t *turn, sess session.Session) (session.Session, Reply, error) {
	draft, ok := sess.Draft.(*session.VIPDraft)
	if !ok {
		return sess, Reply{}, fmt.Errorf("%w %s", errDraftMissing, sess.State)
	}
	holder := titleName(t.text)
	if holder == "" {
		return sess, Text(msgAskVIPHolder), nil
	}
	draft.Holder = holder
	sess.State = session.StateVIPCount
	return sess, Text(askVIPParty(holder)), nil
}

func (e *Engine) onVIPCount(ctx context.Context, t *turn, sess session.Session) (session.Session, Reply, error) {
	draft, ok := sess.Draft.(*session.VIPDraft)
	if !ok || draft.Holder == "" {
		return sess, Reply{}, fmt.Errorf("%w %s", errDraftMissing, sess.State)
	}
	n, ok := parseDigits(t.lower)
	if !ok {
		return sess, Text(msgNumbersOnly), nil
	}
	if n <= 0 {
		return sess, Text(msgMustBePositive), nil
	}
	res := &model.Reservation{
		Sender:    t.sender,
		FullName:  draft.Holder + " (VIP)",
		Kind:      model.KindVIP,
		PartySize: n,
		Referral:  t.attr.Referral,
	}
	if err := e.createReservation(ctx, t, res); err != nil {
		return sess, Reply{}, err
	}
	return sess.Reset(), Text(vipConfirmed(draft.Holder)), nil
}

// parseDigits accepts only ASCII digit strings that fit in an int.
func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// titleName collapses whitespace and title-cases every word.
func titleName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}
