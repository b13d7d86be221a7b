package messages

import (
	"context"
	"encoding/json"
	"errors"
)

// Message type identifiers for every message crossing the document/native
// boundary. The strings are part of the wire contract shared with the
// embedded web application and must not change.
const (
	// TypeClick is sent by the document when a purchase row is activated.
	TypeClick = "click"
	// TypeContentPageNavigationState reports the discovered paging controls.
	TypeContentPageNavigationState = "contentPageNavigationState"
	// TypeContentPageNavigationCommand drives a paging control from native.
	TypeContentPageNavigationCommand = "mobileAppContentPageNavigationCommand"
	// TypeTocPages carries the extracted table of contents (legacy surface).
	TypeTocPages = "tocPages"
	// TypeTocPageChanged reports an in-page navigation (legacy surface).
	TypeTocPageChanged = "tocPageChanged"
	// TypeNavigateToPage asks the document to open a page (legacy surface).
	TypeNavigateToPage = "navigateToPage"
	// TypeAudioPlayerInfo mirrors native playback state into the document.
	TypeAudioPlayerInfo = "mobileAppAudioPlayerInfo"
)

// ErrMalformedMessage is returned by Decode for input that is not a valid
// envelope: unparsable JSON, or a missing or non-string type field.
var ErrMalformedMessage = errors.New("malformed message")

// Envelope is the wire format for every message crossing the boundary.
// Payload is left raw; each handler owns its own payload validation.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode parses a raw wire message into an Envelope. It never panics:
// anything that is not a JSON object with a non-empty string type is
// rejected with ErrMalformedMessage. The payload is not inspected here.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, errors.Join(ErrMalformedMessage, err)
	}
	if env.Type == "" {
		return Envelope{}, ErrMalformedMessage
	}
	return env, nil
}

// MessageType is a type alias for any message payload routed by the dispatcher.
type MessageType any

// Factory is a function type that creates new instances of message types.
type Factory func() MessageType

// Handler is a function type for processing decoded payloads with context.
type Handler func(ctx context.Context, msg MessageType) error

// Guard inspects a decoded payload and reports whether it is acceptable.
// Payloads failing their guard are dropped by the dispatcher.
type Guard func(msg MessageType) bool
