package eventbus

import "time"

// Event is one message carried by the bus. Payload holds a typed value owned
// by the publisher; listeners type-switch on it.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)
