package bot

// Message is one outbound chat message: a text body and at most one media
// URL.
type Message struct {
	Body     string
	MediaURL string
}

// Reply is everything sent back for one inbound message, in order.
type Reply struct {
	Messages []Message
}

// Text builds a single-message reply.
func Text(body string) Reply {
	return Reply{Messages: []Message{{Body: body}}}
}

// Add appends a message and returns the reply for chaining.
func (r Reply) Add(body, mediaURL string) Reply {
	r.Messages = append(r.Messages, Message{Body: body, MediaURL: mediaURL})
	return r
}

// Bodies returns the message bodies in order.
func (r Reply) Bodies() []string {
	out := make([]string, len(r.Messages))
	for i, m := range r.Messages {
		out[i] = m.Body
	}
	return out
}
