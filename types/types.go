package types

import "time"

// Turn is one exchange between the user and the assistant.
type Turn struct {
	Transcript string    `json:"transcript"`
	Reply      string    `json:"reply"`
	Ended      bool      `json:"ended"`
	At         time.Time `json:"at"`
}
