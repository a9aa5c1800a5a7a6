// Package twiml renders bot replies as Twilio Messaging Response XML.
package twiml

import (
	"encoding/xml"

	"github.com/iliyamo/venue-reservation-bot/internal/bot"
)

// ContentType is the media type of a rendered response.
const ContentType = "application/xml"

type response struct {
	XMLName  xml.Name  `xml:"Response"`
	Messages []message `xml:"Message"`
}

type message struct {
	Body  string `xml:"Body"`
	Media string `xml:"Media,omitempty"`
}

// Render encodes r as <Response><Message><Body/><Media/></Message>...</Response>.
// An empty reply renders an empty <Response/>, which sends nothing.
func Render(r bot.Reply) ([]byte, error) {
	resp := response{Messages: make([]message, 0, len(r.Messages))}
	for _, m := range r.Messages {
		resp.Messages = append(resp.Messages, message{Body: m.Body, Media: m.MediaURL})
	}
	out, err := xml.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
