package bridge

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quillcart/bridge/messages"
)

// dialHost spins up a Host behind httptest and dials its channel endpoint.
func dialHost(t *testing.T, d *Dispatcher) (*Host, *websocket.Conn) {
	t.Helper()

	h := NewHost(d)
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	// The handler installs the connection before reading; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for !h.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("document never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return h, conn
}

func TestHostInboundDispatch(t *testing.T) {
	got := make(chan *messages.ClickPayload, 1)
	d, err := NewDispatcher(nil, messages.Message[messages.ClickPayload](messages.TypeClick,
		func(ctx context.Context, c *messages.ClickPayload) error {
			got <- c
			return nil
		}))
	if err != nil {
		t.Fatal(err)
	}

	_, conn := dialHost(t, d)

	msg := `{"type":"click","payload":{"resourceId":"res-9","type":"audio","isPlaying":"false"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.ResourceID != "res-9" || c.ContentType != "audio" {
			t.Errorf("unexpected payload: %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestHostPostReachesDocument(t *testing.T) {
	d, _ := NewDispatcher(nil)
	h, conn := dialHost(t, d)

	info := messages.AudioPlayerInfo{FileID: "f1", IsPlaying: true, LatestMediaLocation: "12.5"}
	if err := h.Post(messages.TypeAudioPlayerInfo, info); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}

	var env messages.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != messages.TypeAudioPlayerInfo {
		t.Fatalf("expected %q, got %q", messages.TypeAudioPlayerInfo, env.Type)
	}
	var round messages.AudioPlayerInfo
	if err := json.Unmarshal(env.Payload, &round); err != nil {
		t.Fatal(err)
	}
	if round != info {
		t.Errorf("expected %+v, got %+v", info, round)
	}
}

func TestHostPostWithoutDocument(t *testing.T) {
	d, _ := NewDispatcher(nil)
	h := NewHost(d)
	if err := h.Post(messages.TypeAudioPlayerInfo, messages.AudioPlayerInfo{FileID: "f"}); err != ErrNoDocument {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestHostNonTextFramesIgnored(t *testing.T) {
	got := make(chan struct{}, 1)
	d, _ := NewDispatcher(nil, messages.Message[messages.TocPageChangedPayload](messages.TypeTocPageChanged,
		func(ctx context.Context, p *messages.TocPageChangedPayload) error {
			got <- struct{}{}
			return nil
		}))
	_, conn := dialHost(t, d)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte(`{"type":"tocPageChanged","payload":{"currentPageIndex":1}}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case <-got:
		t.Fatal("binary frame should not be dispatched")
	case <-time.After(200 * time.Millisecond):
	}
}
