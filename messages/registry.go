package messages

import (
	"context"
)

// RegEntry holds the factory, optional guard, and handler for a registered
// message type.
type RegEntry struct {
	New     Factory
	Guard   Guard
	Handler Handler
}

// MessageSpec describes one message registration.
type MessageSpec struct {
	Type string
	Reg  RegEntry
}

// MessageOption is a function type used to configure message registration.
type MessageOption func(*RegEntry)

// WithGuard attaches a typed payload guard to the registration. Decoded
// payloads for which fn returns false are dropped before the handler runs.
func WithGuard[T any](fn func(*T) bool) MessageOption {
	return func(entry *RegEntry) {
		entry.Guard = func(msg MessageType) bool {
			m, ok := msg.(*T)
			return ok && fn(m)
		}
	}
}

// Message registers a message type with its handler function and optional
// configuration. The typeName must match the type used in the envelope.
func Message[T any](typeName string, h func(context.Context, *T) error, opts ...MessageOption) MessageSpec {
	entry := RegEntry{
		New: func() MessageType { return new(T) },
		Handler: func(ctx context.Context, msg MessageType) error {
			return h(ctx, msg.(*T))
		},
	}

	for _, opt := range opts {
		opt(&entry)
	}

	return MessageSpec{
		Type: typeName,
		Reg:  entry,
	}
}
