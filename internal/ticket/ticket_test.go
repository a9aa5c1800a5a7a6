package ticket

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-reservation-bot/internal/model"
)

func TestQRImageURLEncodesValidationURL(t *testing.T) {
	iss := NewIssuer("s3cret", "https://bot.example.com/", "https://api.qrserver.com/v1/create-qr-code/")

	raw, err := iss.QRImageURL(42, model.KindGeneral)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(raw, "https://api.qrserver.com/v1/create-qr-code/?"))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "300x300", u.Query().Get("size"))

	data, err := url.Parse(u.Query().Get("data"))
	require.NoError(t, err)
	assert.Equal(t, "bot.example.com", data.Host)
	assert.Equal(t, ValidatePath, data.Path)

	id, kind, err := iss.Parse(data.Query().Get("t"))
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, model.KindGeneral, kind)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	iss := NewIssuer("s3cret", "http://localhost", "http://qr")
	other := NewIssuer("different", "http://localhost", "http://qr")

	tok, err := other.Token(7, model.KindVIP)
	require.NoError(t, err)

	_, _, err = iss.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = iss.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
