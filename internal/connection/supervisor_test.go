package connection

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"streamgate/internal/classify"
	"streamgate/internal/model"
)

// captureHub records broadcast events for assertions.
type captureHub struct {
	mu     sync.Mutex
	events []model.Event
}

func (h *captureHub) Broadcast(ev model.Event) {
	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()
}

func (h *captureHub) snapshot() []model.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.Event(nil), h.events...)
}

func testSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		Client: ClientConfig{
			ConnectTimeout: 2 * time.Second,
			WriteTimeout:   time.Second,
			BufferSize:     100,
		},
		Handshake:   testHandshakeConfig(),
		ReadTimeout: 5 * time.Second,
	}
}

// acceptHandshake performs the server side of greeting, auth, and the first
// subscription, returning the parsed subscription request.
func acceptHandshake(t *testing.T, conn *websocket.Conn) (subscribeRequest, bool) {
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"success","msg":"connected"}]`)); err != nil {
		return subscribeRequest{}, false
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return subscribeRequest{}, false
	}
	var auth authRequest
	if err := json.Unmarshal(msg, &auth); err != nil || auth.Action != "auth" {
		t.Errorf("expected auth request, got %s", msg)
		return subscribeRequest{}, false
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"success","msg":"authenticated"}]`)); err != nil {
		return subscribeRequest{}, false
	}

	_, msg, err = conn.ReadMessage()
	if err != nil {
		return subscribeRequest{}, false
	}
	var sub subscribeRequest
	if err := json.Unmarshal(msg, &sub); err != nil || sub.Action != "subscribe" {
		t.Errorf("expected subscribe request, got %s", msg)
		return subscribeRequest{}, false
	}
	return sub, true
}

func closeNormally(conn *websocket.Conn) {
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
}

func TestSupervisor_StreamsToHub(t *testing.T) {
	frames := []string{
		`[{"T":"q","S":"AAPL","bp":187.1,"ap":187.2,"t":"2024-01-01T14:30:00Z"}]`,
		`[{"T":"t","S":"AAPL","p":187.15,"s":100,"t":"2024-01-01T14:30:01Z"}]`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		if _, ok := acceptHandshake(t, conn); !ok {
			return
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Let the supervisor drain before the close frame arrives.
		time.Sleep(100 * time.Millisecond)
		closeNormally(conn)
	})
	defer server.Close()

	h := &captureHub{}
	sup := NewSupervisor(
		marketDataDescriptor(wsURL(server)),
		Credentials{Key: "k", Secret: "s"},
		testSupervisorConfig(),
		classify.NewClassifier(),
		h,
		nil,
	)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not terminate on clean close")
	}

	if st := sup.State(); st != StateClosed {
		t.Errorf("State = %s, want %s", st, StateClosed)
	}

	events := h.snapshot()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	// Events from one connection arrive in receive order.
	if events[0].Kind != model.KindQuote || events[1].Kind != model.KindTrade {
		t.Errorf("kinds = %s, %s, want quote, trade", events[0].Kind, events[1].Kind)
	}
	if events[0].Source != "iex" {
		t.Errorf("Source = %s, want iex", events[0].Source)
	}
}

func TestSupervisor_TooManySymbolsShrinks(t *testing.T) {
	subs := make(chan subscribeRequest, 2)

	server := mockWSServer(t, func(conn *websocket.Conn) {
		first, ok := acceptHandshake(t, conn)
		if !ok {
			return
		}
		subs <- first

		// Reject the first subscription as too large.
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"error","code":413,"msg":"too many symbols"}]`)); err != nil {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var second subscribeRequest
		if err := json.Unmarshal(msg, &second); err != nil {
			t.Errorf("expected resubscription, got %s", msg)
			return
		}
		subs <- second

		closeNormally(conn)
	})
	defer server.Close()

	ep := marketDataDescriptor(wsURL(server))
	ep.DefaultSymbols = []string{"AAPL", "MSFT", "SPY", "QQQ"}

	sup := NewSupervisor(ep, Credentials{Key: "k", Secret: "s"}, testSupervisorConfig(), classify.NewClassifier(), &captureHub{}, nil)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not terminate")
	}

	first := <-subs
	second := <-subs
	if len(first.Trades) != 4 {
		t.Errorf("first subscription carried %d symbols, want 4", len(first.Trades))
	}
	if len(second.Trades) != 2 {
		t.Errorf("resubscription carried %d symbols, want 2", len(second.Trades))
	}
}

func TestSupervisor_StreamErrorIsFault(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		if _, ok := acceptHandshake(t, conn); !ok {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"error","code":406,"msg":"connection limit exceeded"}]`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	sup := NewSupervisor(
		marketDataDescriptor(wsURL(server)),
		Credentials{Key: "k", Secret: "s"},
		testSupervisorConfig(),
		classify.NewClassifier(),
		&captureHub{},
		nil,
	)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not terminate on stream error")
	}
}

func TestSupervisor_CloseUnblocksStreaming(t *testing.T) {
	streaming := make(chan struct{})

	server := mockWSServer(t, func(conn *websocket.Conn) {
		if _, ok := acceptHandshake(t, conn); !ok {
			return
		}
		close(streaming)
		// Never send a frame; the supervisor sits in a blocked receive.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	sup := NewSupervisor(
		marketDataDescriptor(wsURL(server)),
		Credentials{Key: "k", Secret: "s"},
		testSupervisorConfig(),
		classify.NewClassifier(),
		&captureHub{},
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	select {
	case <-streaming:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor never reached streaming")
	}

	cancel()
	sup.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after Close")
	}
}

func TestSupervisor_NoRestartOnAuthError(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	server := mockWSServer(t, func(conn *websocket.Conn) {
		mu.Lock()
		attempts++
		mu.Unlock()

		conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"success","msg":"connected"}]`))
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`[{"T":"error","code":402,"msg":"auth failed"}]`))
	})
	defer server.Close()

	cfg := testSupervisorConfig()
	cfg.Restart = RestartPolicy{Enabled: true, BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}

	sup := NewSupervisor(
		marketDataDescriptor(wsURL(server)),
		Credentials{Key: "bad", Secret: "bad"},
		cfg,
		classify.NewClassifier(),
		&captureHub{},
		nil,
	)

	done := make(chan struct{})
	go func() {
		sup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor kept restarting on an auth error")
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
