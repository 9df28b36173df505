package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"streamgate/internal/classify"
	"streamgate/internal/connection"
	"streamgate/internal/endpoint"
	"streamgate/internal/hub"
)

// ErrNoUsableEndpoints is returned by Initialize when probing finds no
// endpoint the configured credentials can use. This is the one
// configuration-level hard failure; individual unusable endpoints are not.
var ErrNoUsableEndpoints = errors.New("no usable endpoints")

// ErrAlreadyInitialized is returned by a second Initialize call.
var ErrAlreadyInitialized = errors.New("already initialized")

// ErrShutDown is returned by Initialize on a gateway that was already shut
// down.
var ErrShutDown = errors.New("gateway is shut down")

// Config configures the gateway manager.
type Config struct {
	Supervisor connection.SupervisorConfig
	Hub        hub.Config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Supervisor: connection.DefaultSupervisorConfig(),
		Hub:        hub.DefaultConfig(),
	}
}

// InitSummary reports the probing outcome.
type InitSummary struct {
	Usable   []string
	Unusable map[string]string // endpoint name → failure reason
}

// EndpointStatus is the per-endpoint view returned by Status.
type EndpointStatus struct {
	Name   string
	Usable bool
	Reason string           // Failure reason for unusable endpoints
	State  connection.State // Closed for endpoints never started
}

// Status is the gateway-wide view returned by Status.
type Status struct {
	Endpoints   []EndpointStatus
	Subscribers int
}

// Manager is the top-level gateway API consumed by the rest of the service.
type Manager interface {
	// Initialize probes the full registry and starts one supervisor per
	// usable endpoint. It fails only if every endpoint is unusable.
	Initialize(ctx context.Context) (InitSummary, error)

	// Status reports per-endpoint connection state and the subscriber count.
	Status() Status

	// Register adds a downstream subscriber.
	Register(sink hub.Sink) uuid.UUID

	// Unregister removes a downstream subscriber.
	Unregister(id uuid.UUID) bool

	// Shutdown cancels all supervisors, forces live sockets closed, and
	// clears subscribers. Idempotent; safe before Initialize completes.
	Shutdown(ctx context.Context) error
}

// manager implements the Manager interface.
type manager struct {
	cfg        Config
	registry   *endpoint.Registry
	creds      connection.Credentials
	classifier *classify.Classifier
	hub        *hub.Hub
	logger     *slog.Logger

	mu          sync.Mutex
	initialized bool
	shutdown    bool
	results     []connection.ProbeResult
	supervisors map[string]*connection.Supervisor
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewManager creates a gateway manager. Nothing connects until Initialize.
func NewManager(cfg Config, registry *endpoint.Registry, creds connection.Credentials, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &manager{
		cfg:         cfg,
		registry:    registry,
		creds:       creds,
		classifier:  classify.NewClassifier(),
		hub:         hub.New(cfg.Hub, logger),
		logger:      logger,
		supervisors: make(map[string]*connection.Supervisor),
	}
}

// Initialize probes every registry entry, then starts supervisors.
func (m *manager) Initialize(ctx context.Context) (InitSummary, error) {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return InitSummary{}, ErrAlreadyInitialized
	}
	if m.shutdown {
		m.mu.Unlock()
		return InitSummary{}, ErrShutDown
	}
	m.initialized = true

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	prober := connection.NewProber(
		m.creds,
		m.cfg.Supervisor.Client,
		m.cfg.Supervisor.Handshake,
		m.classifier,
		m.logger,
	)

	results := prober.ProbeAll(runCtx, m.registry.All())

	summary := InitSummary{Unusable: make(map[string]string)}
	for _, res := range results {
		if res.Usable {
			summary.Usable = append(summary.Usable, res.Endpoint.Name)
		} else {
			summary.Unusable[res.Endpoint.Name] = res.FailureReason
		}
	}

	m.mu.Lock()
	m.results = results
	m.mu.Unlock()

	if len(summary.Usable) == 0 {
		m.logger.Error("initialization failed, no usable endpoints",
			"probed", len(results),
		)
		return summary, ErrNoUsableEndpoints
	}

	// Probing settled usability; only now do long-lived connections start.
	for _, res := range results {
		if !res.Usable {
			continue
		}

		sup := connection.NewSupervisor(
			res.Endpoint,
			m.creds,
			m.cfg.Supervisor,
			m.classifier,
			m.hub,
			m.logger,
		)

		m.mu.Lock()
		if m.shutdown {
			// Shutdown raced Initialize; stop spawning.
			m.mu.Unlock()
			break
		}
		m.supervisors[res.Endpoint.Name] = sup
		m.wg.Add(1)
		m.mu.Unlock()

		go func() {
			defer m.wg.Done()
			sup.Run(runCtx)
		}()
	}

	m.logger.Info("gateway initialized",
		"usable", len(summary.Usable),
		"unusable", len(summary.Unusable),
	)

	return summary, nil
}

// Status reports the current per-endpoint state and subscriber count.
func (m *manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{Subscribers: m.hub.Count()}

	for _, res := range m.results {
		eps := EndpointStatus{
			Name:   res.Endpoint.Name,
			Usable: res.Usable,
			Reason: res.FailureReason,
			State:  connection.StateClosed,
		}
		if sup, ok := m.supervisors[res.Endpoint.Name]; ok {
			eps.State = sup.State()
		}
		st.Endpoints = append(st.Endpoints, eps)
	}

	return st
}

// Register adds a downstream subscriber.
func (m *manager) Register(sink hub.Sink) uuid.UUID {
	return m.hub.Register(sink)
}

// Unregister removes a downstream subscriber.
func (m *manager) Unregister(id uuid.UUID) bool {
	return m.hub.Unregister(id)
}

// Shutdown stops everything. Safe to call repeatedly and before Initialize
// completes.
func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	cancel := m.cancel
	sups := make([]*connection.Supervisor, 0, len(m.supervisors))
	for _, sup := range m.supervisors {
		sups = append(sups, sup)
	}
	m.mu.Unlock()

	m.logger.Info("shutting down gateway")

	if cancel != nil {
		cancel()
	}

	// Cancellation alone cannot interrupt a blocked socket read; force the
	// sockets closed as well.
	for _, sup := range sups {
		sup.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout waiting for supervisors")
	}

	m.hub.Clear()

	m.logger.Info("gateway stopped")
	return nil
}
