package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"streamgate/internal/classify"
	"streamgate/internal/endpoint"
	"streamgate/internal/model"
)

// State is the lifecycle state of a supervised connection.
type State string

const (
	StateConnecting     State = "connecting"
	StateAuthenticating State = "authenticating"
	StateSubscribing    State = "subscribing"
	StateStreaming      State = "streaming"
	StateClosed         State = "closed"
)

// RestartPolicy controls whether a faulted connection is re-established.
// Disabled by default: the base design terminates the supervisor on any
// unrecoverable error and leaves restart to the operator.
type RestartPolicy struct {
	Enabled   bool
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// SupervisorConfig configures a supervisor.
type SupervisorConfig struct {
	Client    ClientConfig
	Handshake HandshakeConfig

	// ReadTimeout bounds one streaming receive. Expiry is a liveness check,
	// not a fault: the loop logs and keeps waiting.
	ReadTimeout time.Duration

	Restart RestartPolicy
}

// DefaultSupervisorConfig returns sensible defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		Client:      DefaultClientConfig(),
		Handshake:   DefaultHandshakeConfig(),
		ReadTimeout: 30 * time.Second,
		Restart: RestartPolicy{
			Enabled:   false,
			BaseDelay: time.Second,
			MaxDelay:  60 * time.Second,
		},
	}
}

// Broadcaster receives the canonical events a supervisor produces. The
// subscriber hub satisfies it.
type Broadcaster interface {
	Broadcast(ev model.Event)
}

// Supervisor owns one long-lived connection to a usable endpoint. It is the
// only goroutine that touches that connection.
type Supervisor struct {
	ep         endpoint.Descriptor
	creds      Credentials
	cfg        SupervisorConfig
	classifier *classify.Classifier
	hub        Broadcaster
	logger     *slog.Logger

	mu      sync.RWMutex
	state   State
	client  Client
	symbols []string
}

// NewSupervisor creates a supervisor for one endpoint.
func NewSupervisor(ep endpoint.Descriptor, creds Credentials, cfg SupervisorConfig, classifier *classify.Classifier, h Broadcaster, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		ep:         ep,
		creds:      creds,
		cfg:        cfg,
		classifier: classifier,
		hub:        h,
		logger:     logger.With("endpoint", ep.Name),
		state:      StateConnecting,
		symbols:    append([]string(nil), ep.DefaultSymbols...),
	}
}

// Endpoint returns the supervised endpoint descriptor.
func (s *Supervisor) Endpoint() endpoint.Descriptor {
	return s.ep
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Close forces the supervised socket closed, unblocking a pending receive.
func (s *Supervisor) Close() {
	s.mu.RLock()
	c := s.client
	s.mu.RUnlock()

	if c != nil {
		c.Close()
	}
}

// Run drives the connection lifecycle until the context is canceled or the
// connection faults. With restart disabled it makes a single attempt; with
// restart enabled it re-runs the full handshake with exponential backoff.
func (s *Supervisor) Run(ctx context.Context) {
	defer s.setState(StateClosed)

	delay := s.cfg.Restart.BaseDelay

	for {
		err := s.runOnce(ctx)

		if ctx.Err() != nil {
			return
		}

		if err != nil {
			s.logger.Error("connection terminated", "error", err)
		} else {
			s.logger.Info("connection closed by remote")
		}

		if !s.cfg.Restart.Enabled {
			return
		}

		// A failed authentication will not heal on its own; restarting
		// would hammer the endpoint with bad credentials.
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return
		}

		s.logger.Info("restarting connection", "delay", delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.cfg.Restart.MaxDelay {
			delay = s.cfg.Restart.MaxDelay
		}
	}
}

// runOnce performs one full connect→auth→subscribe→stream cycle. A nil
// return means the remote closed cleanly.
func (s *Supervisor) runOnce(ctx context.Context) error {
	s.setState(StateConnecting)

	cfg := s.cfg.Client
	cfg.URL = s.ep.URL

	c := NewClient(cfg, s.logger)
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
	defer c.Close()

	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	s.setState(StateAuthenticating)
	if err := performHandshake(c, s.ep, s.creds, s.classifier, s.cfg.Handshake, s.logger); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	s.setState(StateSubscribing)
	if err := s.subscribe(c, s.symbols); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	s.setState(StateStreaming)
	s.logger.Info("streaming", "symbols", len(s.symbols))

	return s.streamLoop(ctx, c)
}

// subscribe issues the endpoint's default subscription: symbol-based for
// market-data endpoints, stream-listen for the account endpoint.
func (s *Supervisor) subscribe(c Client, symbols []string) error {
	var req any
	if s.ep.SymbolAgnostic() {
		req = listenRequest{
			Action: "listen",
			Data:   listenData{Streams: []string{"trade_updates"}},
		}
	} else {
		req = subscribeRequest{
			Action: "subscribe",
			Trades: symbols,
			Quotes: symbols,
			Bars:   symbols,
		}
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}
	return c.Send(data)
}

// streamLoop receives frames until the context is canceled, the remote
// closes, or the connection faults. Events derived from one connection are
// broadcast in receive order: Broadcast completes before the next frame is
// taken.
func (s *Supervisor) streamLoop(ctx context.Context, c Client) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-c.Errors():
			if isCleanClose(err) {
				return nil
			}
			return fmt.Errorf("stream fault: %w", err)

		case <-time.After(s.cfg.ReadTimeout):
			// Liveness check only. Quiet feeds are normal outside market
			// hours.
			s.logger.Debug("no frames within read timeout")

		case msg, ok := <-c.Messages():
			if !ok {
				return nil
			}
			if err := s.handleFrame(c, msg.Data); err != nil {
				return err
			}
		}
	}
}

// handleFrame classifies one raw frame and broadcasts the resulting events.
// Subscription error frames are handled here because they arrive on the
// same stream as data.
func (s *Supervisor) handleFrame(c Client, data []byte) error {
	frames, err := s.classifier.Decode(data)
	if err != nil {
		return fmt.Errorf("decode fault: %w", err)
	}

	for _, f := range frames {
		if f.T == classify.TypeError {
			if f.Code == CodeTooManySymbols {
				return s.shrinkSubscription(c)
			}
			return fmt.Errorf("stream fault: %w", &AuthError{Code: f.Code, Msg: f.Msg})
		}

		if ev, ok := classify.ClassifyFrame(s.ep.Name, f); ok {
			s.hub.Broadcast(ev)
		}
	}
	return nil
}

// shrinkSubscription halves the symbol list after a too-many-symbols error
// and re-issues the subscription. Running out of symbols to shed is fatal.
func (s *Supervisor) shrinkSubscription(c Client) error {
	s.mu.Lock()
	if len(s.symbols) <= 1 {
		s.mu.Unlock()
		return errors.New("subscription rejected: symbol list cannot shrink further")
	}
	s.symbols = s.symbols[:len(s.symbols)/2]
	symbols := s.symbols
	s.mu.Unlock()

	s.logger.Warn("subscription too large, retrying with fewer symbols", "symbols", len(symbols))
	return s.subscribe(c, symbols)
}

// isCleanClose reports whether the receive error is a normal remote close.
func isCleanClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
