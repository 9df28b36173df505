package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"streamgate/internal/classify"
	"streamgate/internal/endpoint"
)

// ProbeResult is the usability judgment for one endpoint. Computed once
// during initialization and read-only afterward.
type ProbeResult struct {
	Endpoint      endpoint.Descriptor
	Usable        bool
	FailureCode   int    // 0 when no numeric code accompanied the failure
	FailureReason string // Empty when usable
}

// Prober judges endpoint usability with throwaway handshake connections.
// Probing never issues the production subscription and never leaves a socket
// open.
type Prober struct {
	creds      Credentials
	clientCfg  ClientConfig
	handshake  HandshakeConfig
	classifier *classify.Classifier
	logger     *slog.Logger

	// newClient is swappable for tests.
	newClient func(cfg ClientConfig, logger *slog.Logger) Client
}

// NewProber creates a prober.
func NewProber(creds Credentials, clientCfg ClientConfig, handshake HandshakeConfig, classifier *classify.Classifier, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		creds:      creds,
		clientCfg:  clientCfg,
		handshake:  handshake,
		classifier: classifier,
		logger:     logger,
		newClient:  NewClient,
	}
}

// Probe opens a throwaway connection to the endpoint, runs the handshake,
// and classifies the outcome. The connection is closed before Probe returns
// regardless of outcome.
func (p *Prober) Probe(ctx context.Context, ep endpoint.Descriptor) ProbeResult {
	logger := p.logger.With("endpoint", ep.Name)

	cfg := p.clientCfg
	cfg.URL = ep.URL

	c := p.newClient(cfg, logger)
	defer c.Close()

	if err := c.Connect(ctx); err != nil {
		logger.Warn("probe connect failed", "error", err)
		return ProbeResult{
			Endpoint:      ep,
			Usable:        false,
			FailureReason: FailureReason(err),
		}
	}

	if err := performHandshake(c, ep, p.creds, p.classifier, p.handshake, logger); err != nil {
		code := 0
		var authErr *AuthError
		if errors.As(err, &authErr) {
			code = authErr.Code
		}
		logger.Warn("probe handshake failed", "code", code, "error", err)
		return ProbeResult{
			Endpoint:      ep,
			Usable:        false,
			FailureCode:   code,
			FailureReason: FailureReason(err),
		}
	}

	logger.Info("endpoint usable")
	return ProbeResult{Endpoint: ep, Usable: true}
}

// ProbeAll probes every endpoint concurrently and returns results in
// registry order.
func (p *Prober) ProbeAll(ctx context.Context, endpoints []endpoint.Descriptor) []ProbeResult {
	results := make([]ProbeResult, len(endpoints))

	var wg sync.WaitGroup
	for i, ep := range endpoints {
		wg.Add(1)
		go func(i int, ep endpoint.Descriptor) {
			defer wg.Done()
			results[i] = p.Probe(ctx, ep)
		}(i, ep)
	}
	wg.Wait()

	return results
}
