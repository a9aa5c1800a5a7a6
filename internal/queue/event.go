package queue

// Message payloads exchanged over the message broker.

// Queue names.  Both are durable.
const (
    ReservationCreatedQueue = "reservation.created"
    BroadcastRequestedQueue = "broadcast.requested"
)

// ReservationCreatedEvent is published after a reservation is stored.  It
// contains enough information for downstream consumers to log, notify or
// trigger analytics without querying the primary database.
type ReservationCreatedEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    Sender        string `json:"sender"`
    FullName      string `json:"full_name"`
    Kind          string `json:"kind"`
    PartySize     int    `json:"party_size"`
    Referral      string `json:"referral"`
    CreatedAt     string `json:"created_at"`
}

// BroadcastRequestedEvent hands an operator broadcast to whatever delivers
// outbound messages.  Recipients are the distinct senders holding a
// reservation when the broadcast was requested.
type BroadcastRequestedEvent struct {
    RequestedBy string   `json:"requested_by"`
    Message     string   `json:"message"`
    Recipients  []string `json:"recipients"`
    RequestedAt string   `json:"requested_at"`
}
