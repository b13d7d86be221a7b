package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/quillcart/bridge/messages"
)

type recordedClick struct {
	payload *messages.ClickPayload
}

func clickSpec(rec *recordedClick) messages.MessageSpec {
	return messages.Message[messages.ClickPayload](messages.TypeClick,
		func(ctx context.Context, c *messages.ClickPayload) error {
			rec.payload = c
			return nil
		},
		messages.WithGuard(func(c *messages.ClickPayload) bool { return c.ResourceID != "" }),
	)
}

func TestDispatcher(t *testing.T) {
	t.Run("invalid json invokes no handler and does not panic", func(t *testing.T) {
		rec := &recordedClick{}
		d, err := NewDispatcher(nil, clickSpec(rec))
		if err != nil {
			t.Fatal(err)
		}
		for _, raw := range []string{`{{{`, ``, `42`, `"chatter"`, `{"payload":{}}`} {
			d.Dispatch(context.Background(), []byte(raw))
		}
		if rec.payload != nil {
			t.Error("expected no handler invocation for malformed input")
		}
	})

	t.Run("unmatched type is dropped", func(t *testing.T) {
		rec := &recordedClick{}
		d, _ := NewDispatcher(nil, clickSpec(rec))
		d.Dispatch(context.Background(), []byte(`{"type":"somethingElse","payload":{}}`))
		if rec.payload != nil {
			t.Error("expected no handler invocation for unknown type")
		}
	})

	t.Run("matched type reaches handler with typed payload", func(t *testing.T) {
		rec := &recordedClick{}
		d, _ := NewDispatcher(nil, clickSpec(rec))
		d.Dispatch(context.Background(), []byte(`{"type":"click","payload":{"resourceId":"r1","isDownload":true}}`))
		if rec.payload == nil {
			t.Fatal("expected handler invocation")
		}
		if rec.payload.ResourceID != "r1" || !rec.payload.IsDownload {
			t.Errorf("unexpected payload: %+v", rec.payload)
		}
	})

	t.Run("guard drops click without resourceId", func(t *testing.T) {
		rec := &recordedClick{}
		d, _ := NewDispatcher(nil, clickSpec(rec))
		d.Dispatch(context.Background(), []byte(`{"type":"click","payload":{"isDownload":true}}`))
		if rec.payload != nil {
			t.Error("expected guard to drop payload without resourceId")
		}
	})

	t.Run("undecodable payload shape is dropped", func(t *testing.T) {
		rec := &recordedClick{}
		d, _ := NewDispatcher(nil, clickSpec(rec))
		d.Dispatch(context.Background(), []byte(`{"type":"click","payload":"not an object"}`))
		if rec.payload != nil {
			t.Error("expected drop for non-object payload")
		}
	})

	t.Run("handler error does not propagate", func(t *testing.T) {
		d, _ := NewDispatcher(nil, messages.Message[messages.TocPageChangedPayload](
			messages.TypeTocPageChanged,
			func(ctx context.Context, p *messages.TocPageChangedPayload) error {
				return errors.New("boom")
			}))
		// Must not panic or surface the handler error.
		d.Dispatch(context.Background(), []byte(`{"type":"tocPageChanged","payload":{"currentPageIndex":2}}`))
	})

	t.Run("handler panic is recovered", func(t *testing.T) {
		d, _ := NewDispatcher(nil, messages.Message[messages.TocPageChangedPayload](
			messages.TypeTocPageChanged,
			func(ctx context.Context, p *messages.TocPageChangedPayload) error {
				panic("handler bug")
			}))
		d.Dispatch(context.Background(), []byte(`{"type":"tocPageChanged","payload":{"currentPageIndex":0}}`))
	})

	t.Run("duplicate registration is a configuration error", func(t *testing.T) {
		rec := &recordedClick{}
		_, err := NewDispatcher(nil, clickSpec(rec), clickSpec(rec))
		if !errors.Is(err, ErrDuplicateType) {
			t.Fatalf("expected ErrDuplicateType, got %v", err)
		}
	})

	t.Run("Handles reflects registry", func(t *testing.T) {
		rec := &recordedClick{}
		d, _ := NewDispatcher(nil, clickSpec(rec))
		if !d.Handles(messages.TypeClick) {
			t.Error("expected click to be handled")
		}
		if d.Handles(messages.TypeTocPages) {
			t.Error("expected tocPages to be unhandled")
		}
	})
}
