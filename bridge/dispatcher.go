package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quillcart/bridge/messages"
)

// ErrDuplicateType is returned when two registrations claim the same
// message type. Two owners of one event is a configuration bug, so it is
// surfaced at construction instead of silently overwriting.
var ErrDuplicateType = fmt.Errorf("duplicate message type registration")

// Dispatcher routes decoded envelopes to typed handlers keyed by message
// type. Anything that cannot be routed — unparsable input, unknown types,
// payloads failing their guard — is logged and dropped; the document may
// share its channel with unrelated script chatter, so rejection is never
// an error condition for the processing loop.
type Dispatcher struct {
	log      Logger
	registry map[string]messages.RegEntry
}

// NewDispatcher builds a dispatcher from an ordered list of registrations.
// Registering the same type twice fails with ErrDuplicateType.
func NewDispatcher(log Logger, specs ...messages.MessageSpec) (*Dispatcher, error) {
	if log == nil {
		log = defaultLogger()
	}
	d := &Dispatcher{
		log:      log,
		registry: make(map[string]messages.RegEntry, len(specs)),
	}
	for _, sp := range specs {
		if _, exists := d.registry[sp.Type]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateType, sp.Type)
		}
		d.registry[sp.Type] = sp.Reg
	}
	return d, nil
}

// Dispatch decodes one raw wire message and invokes the matching handler.
// Handlers may suspend for arbitrarily long; dispatch completes one
// message before the caller reads the next, preserving per-channel FIFO.
// A handler failure or panic is contained and logged — it must never take
// down the message-processing loop.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) {
	env, err := messages.Decode(raw)
	if err != nil {
		d.log.Warn("dropping malformed message", "err", err, "len", len(raw))
		return
	}

	entry, ok := d.registry[env.Type]
	if !ok {
		d.log.Warn("no handler for message type", "type", env.Type)
		return
	}

	msg := entry.New()
	if err := json.Unmarshal(env.Payload, msg); err != nil {
		d.log.Warn("dropping message with invalid payload", "type", env.Type, "err", err)
		return
	}
	if entry.Guard != nil && !entry.Guard(msg) {
		d.log.Warn("dropping message rejected by payload guard", "type", env.Type)
		return
	}

	d.log.Info("message accepted", "type", env.Type, "len", len(env.Payload))

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("handler panic", "type", env.Type, "panic", r)
		}
	}()
	if err := entry.Handler(ctx, msg); err != nil {
		d.log.Error("handler error", "type", env.Type, "err", err)
	}
}

// Handles reports whether a handler is registered for the given type.
func (d *Dispatcher) Handles(typeName string) bool {
	_, ok := d.registry[typeName]
	return ok
}
