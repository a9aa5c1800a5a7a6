// Package ticket builds the QR references attached to outbound ticket
// messages.  Each QR encodes a validation URL carrying an HS256 token
// whose subject is the reservation id, so door staff can verify a ticket
// without trusting a bare id.
package ticket

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/venue-reservation-bot/internal/model"
)

const issuer = "venue-ticket"

// ValidatePath is the route of the public validation view.
const ValidatePath = "/v1/tickets/validate"

// ErrInvalidToken is returned for tokens that fail signature, issuer or
// subject checks.
var ErrInvalidToken = errors.New("invalid ticket token")

// Claims are the registered claims plus the entry kind of the ticket.
type Claims struct {
	Kind model.EntryKind `json:"kind"`
	jwt.RegisteredClaims
}

// Issuer signs ticket tokens and renders QR image URLs.
type Issuer struct {
	secret     []byte
	baseURL    string
	qrEndpoint string
}

// NewIssuer returns an issuer.  baseURL is the public origin of this
// service; qrEndpoint is the external image service that turns a data
// string into a QR code.
func NewIssuer(secret, baseURL, qrEndpoint string) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		baseURL:    strings.TrimRight(baseURL, "/"),
		qrEndpoint: qrEndpoint,
	}
}

// Token signs a ticket token for a reservation.
func (i *Issuer) Token(id uint64, kind model.EntryKind) (string, error) {
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  strconv.FormatUint(id, 10),
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// ValidationURL returns the public URL that validates the ticket.
func (i *Issuer) ValidationURL(id uint64, kind model.EntryKind) (string, error) {
	tok, err := i.Token(id, kind)
	if err != nil {
		return "", fmt.Errorf("sign ticket %d: %w", id, err)
	}
	return i.baseURL + ValidatePath + "?t=" + url.QueryEscape(tok), nil
}

// QRImageURL returns the media URL of a 300x300 QR code encoding the
// validation URL of the ticket.
func (i *Issuer) QRImageURL(id uint64, kind model.EntryKind) (string, error) {
	data, err := i.ValidationURL(id, kind)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("size", "300x300")
	q.Set("data", data)
	return i.qrEndpoint + "?" + q.Encode(), nil
}

// Parse verifies raw and returns the reservation id and kind it names.
func (i *Issuer) Parse(raw string) (uint64, model.EntryKind, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil || !tok.Valid {
		return 0, "", ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, "", ErrInvalidToken
	}
	return id, claims.Kind, nil
}
