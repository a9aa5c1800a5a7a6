package twiml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-reservation-bot/internal/bot"
)

func TestRenderMessagesWithMedia(t *testing.T) {
	r := bot.Text("⏳ Generando tickets...").Add("✅ Ticket: Ana & Bea", "https://qr.example/?size=300x300&data=x")
	out, err := Render(r)
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<Response><Message><Body>⏳ Generando tickets...</Body></Message>` +
		`<Message><Body>✅ Ticket: Ana &amp; Bea</Body><Media>https://qr.example/?size=300x300&amp;data=x</Media></Message></Response>`
	assert.Equal(t, want, string(out))
}

func TestRenderEmptyReply(t *testing.T) {
	out, err := Render(bot.Reply{})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<Response></Response>")
}
